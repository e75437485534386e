package core_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ilpatch/core"
	"github.com/sarchlab/ilpatch/instr"
)

var _ = Describe("Mutation", func() {
	Context("Insert", func() {
		var b *core.Buffer

		BeforeEach(func() {
			b = mustBuild(
				"LOAD 0",
				"BR_TRUE @L1",
				"NOP",
				"L1: RET",
			)
		})

		It("should shift the cursor past the inserted run", func() {
			Expect(b.Seek(3)).To(Succeed())
			Expect(b.Insert(
				instr.New(instr.CONST, instr.IntOperand(5)),
				instr.Simple(instr.POP),
			)).To(Succeed())

			Expect(b.Len()).To(Equal(6))
			Expect(b.Position()).To(Equal(5))

			out := mustRender(b)
			Expect(out[5].Op).To(Equal(instr.RET))
			Expect(out[5].Labels).To(Equal([]instr.LabelID{1}))
			Expect(out[3].Labels).To(BeEmpty())
		})

		It("should append at the end", func() {
			b.End()
			Expect(b.Insert(instr.Simple(instr.NOP))).To(Succeed())
			Expect(b.AtEnd()).To(BeTrue())

			out := mustRender(b)
			Expect(out[4].Op).To(Equal(instr.NOP))
		})

		It("should move labels onto the inserted run", func() {
			Expect(b.Seek(3)).To(Succeed())
			labels, err := b.ExtractLabels()
			Expect(err).NotTo(HaveOccurred())
			Expect(labels).To(Equal([]instr.LabelID{1}))

			Expect(b.Insert(instr.Simple(instr.NOP).WithLabels(labels...))).To(Succeed())

			Expect(mustRender(b)).To(Equal(mustParse(
				"LOAD 0",
				"BR_TRUE @L1",
				"NOP",
				"L1: NOP",
				"RET",
			)))
		})

		It("should reject a label that already has a target", func() {
			err := b.Insert(instr.Simple(instr.NOP).WithLabels(1))
			Expect(err).To(MatchError(core.ErrInvalidEdit))
			Expect(b.Len()).To(Equal(4))
			Expect(b.Position()).To(Equal(0))
		})

		It("should reject a branch to an undefined label", func() {
			err := b.Insert(instr.Branch(instr.BR, 42))
			Expect(err).To(MatchError(core.ErrInvalidEdit))
			Expect(b.Len()).To(Equal(4))
		})

		It("should accept a branch to a label defined in the same run", func() {
			Expect(b.Insert(
				instr.Branch(instr.BR, 7),
				instr.Simple(instr.NOP).WithLabels(7),
			)).To(Succeed())

			out := mustRender(b)
			Expect(out[1].Labels).To(Equal([]instr.LabelID{7}))
		})

		It("should reject a branch without a label", func() {
			err := b.Insert(instr.New(instr.BR, instr.IntOperand(3)))
			Expect(err).To(MatchError(core.ErrInvalidEdit))
		})

		It("should accept an empty run", func() {
			Expect(b.Insert()).To(Succeed())
			Expect(b.Len()).To(Equal(4))
		})
	})

	Context("Remove", func() {
		It("should move labels to the next survivor", func() {
			b := mustBuild(
				"BR @L1",
				"L1: CONST 1",
				"POP",
				"RET",
			)
			Expect(b.Seek(1)).To(Succeed())
			Expect(b.Remove(2)).To(Succeed())

			Expect(b.Position()).To(Equal(1))
			Expect(mustRender(b)).To(Equal(mustParse("BR @L1", "L1: RET")))
		})

		It("should reject removing a label target with nothing after it", func() {
			b := mustBuild("BR @L1", "L1: RET")
			Expect(b.Seek(1)).To(Succeed())

			Expect(b.Remove(1)).To(MatchError(core.ErrInvalidEdit))
			Expect(b.Len()).To(Equal(2))
			Expect(b.Position()).To(Equal(1))
		})

		It("should fail past the end", func() {
			b := mustBuild("NOP", "RET")
			Expect(b.Seek(1)).To(Succeed())
			Expect(b.Remove(2)).To(MatchError(core.ErrCursorOutOfRange))
			Expect(b.Len()).To(Equal(2))
		})

		It("should reject a negative count", func() {
			b := mustBuild("NOP", "RET")
			Expect(b.Remove(-1)).To(MatchError(core.ErrInvalidEdit))
		})

		It("should reject extreme counts without changing the buffer", func() {
			b := mustBuild("NOP", "CONST 1", "RET")
			Expect(b.Seek(1)).To(Succeed())

			Expect(b.Remove(math.MaxInt)).To(MatchError(core.ErrCursorOutOfRange))
			Expect(b.Remove(math.MinInt)).To(MatchError(core.ErrInvalidEdit))
			Expect(b.Len()).To(Equal(3))
			Expect(b.Position()).To(Equal(1))
		})

		It("should allow removing everything", func() {
			b := mustBuild("NOP", "RET")
			Expect(b.Remove(2)).To(Succeed())
			Expect(b.AtEnd()).To(BeTrue())
			Expect(mustRender(b)).To(BeEmpty())
		})

		It("should remove up to a pattern", func() {
			b := mustBuild("NOP", "NOP", "CONST 1", "RET")

			n, err := b.RemoveUntil(instr.Pattern{instr.Op(instr.RET)})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(3))
			Expect(mustRender(b)).To(Equal(mustParse("RET")))
		})

		It("should leave the buffer alone when RemoveUntil finds nothing", func() {
			b := mustBuild("NOP", "RET")
			Expect(b.Advance(1)).To(Succeed())

			_, err := b.RemoveUntil(instr.Pattern{instr.Op(instr.DIV)})
			Expect(err).To(MatchError(core.ErrPatternNotFound))
			Expect(b.Len()).To(Equal(2))
			Expect(b.Position()).To(Equal(1))
		})
	})

	Context("Replace", func() {
		It("should be idempotent for operands", func() {
			once := mustBuild(`LOAD_STR "addedParrotBoy"`, "RET")
			twice := mustBuild(`LOAD_STR "addedParrotBoy"`, "RET")

			Expect(once.ReplaceOperand(instr.StringOperand("leoMoved"))).To(Succeed())
			Expect(twice.ReplaceOperand(instr.StringOperand("leoMoved"))).To(Succeed())
			Expect(twice.ReplaceOperand(instr.StringOperand("leoMoved"))).To(Succeed())

			Expect(mustRender(twice)).To(Equal(mustRender(once)))
			Expect(mustRender(once)).To(Equal(mustParse(`LOAD_STR "leoMoved"`, "RET")))
		})

		It("should keep labels when replacing an operand", func() {
			b := mustBuild("BR @L1", `L1: LOAD_STR "a"`, "RET")
			Expect(b.Seek(1)).To(Succeed())
			Expect(b.ReplaceOperand(instr.StringOperand("b"))).To(Succeed())

			cur, _ := b.Current()
			Expect(cur.Labels).To(Equal([]instr.LabelID{1}))
		})

		It("should fail at the end", func() {
			b := mustBuild("RET")
			b.End()
			Expect(b.ReplaceOperand(instr.IntOperand(1))).To(MatchError(core.ErrCursorOutOfRange))
			Expect(b.ReplaceInstruction(instr.Simple(instr.NOP))).To(MatchError(core.ErrCursorOutOfRange))
		})

		It("should reject a non-label operand on a branch", func() {
			b := mustBuild("BR @L1", "L1: RET")
			Expect(b.ReplaceOperand(instr.IntOperand(1))).To(MatchError(core.ErrInvalidEdit))

			cur, _ := b.Current()
			Expect(cur.Operand).To(Equal(instr.LabelOperand(1)))
		})

		It("should carry labels over to a replaced instruction", func() {
			b := mustBuild("BR @L1", "L1: NOP", "RET")
			Expect(b.Seek(1)).To(Succeed())
			Expect(b.ReplaceInstruction(instr.Simple(instr.POP))).To(Succeed())

			Expect(mustRender(b)).To(Equal(mustParse("BR @L1", "L1: POP", "RET")))
		})

		It("should retarget a branch", func() {
			b := mustBuild("BR_FALSE @L1", "NOP", "L1: NOP", "L2: RET")
			Expect(b.ReplaceInstruction(instr.Branch(instr.BR_TRUE, 2))).To(Succeed())

			out := mustRender(b)
			Expect(out[0]).To(Equal(instr.Branch(instr.BR_TRUE, 2)))
		})
	})

	Context("Labels", func() {
		var b *core.Buffer

		BeforeEach(func() {
			b = mustBuild("LOAD 0", "BR_TRUE @L1", "NOP", "L1: RET")
		})

		It("should define and attach a fresh label", func() {
			Expect(b.Seek(2)).To(Succeed())
			l, err := b.DefineAndAttachLabel()
			Expect(err).NotTo(HaveOccurred())
			Expect(l).To(Equal(instr.LabelID(2)))

			b.Start()
			Expect(b.Insert(instr.Branch(instr.BR, l))).To(Succeed())

			out := mustRender(b)
			Expect(out[0].Operand.Labels).To(Equal([]instr.LabelID{2}))
			Expect(out[3].Labels).To(Equal([]instr.LabelID{2}))
		})

		It("should fail to render a branch to an unattached label", func() {
			l := b.DefineLabel()
			Expect(b.Insert(instr.Branch(instr.BR, l))).To(Succeed())

			_, err := b.Render()
			Expect(err).To(MatchError(core.ErrRender))

			var renderErr *core.RenderError
			Expect(errors.As(err, &renderErr)).To(BeTrue())
			Expect(renderErr.Label).To(Equal(l))
			Expect(renderErr.Position).To(Equal(0))
		})

		It("should fail to render after extracting a used label", func() {
			Expect(b.Seek(3)).To(Succeed())
			_, err := b.ExtractLabels()
			Expect(err).NotTo(HaveOccurred())

			_, err = b.Render()
			Expect(err).To(MatchError(core.ErrRender))
		})

		It("should attach a defined label", func() {
			l := b.DefineLabel()
			Expect(b.AttachLabel(l)).To(Succeed())
			Expect(b.LabelsAt()).To(Equal([]instr.LabelID{l}))
		})

		It("should reject attaching an undefined label", func() {
			Expect(b.AttachLabel(9)).To(MatchError(core.ErrInvalidEdit))
		})

		It("should reject attaching a label targeting elsewhere", func() {
			Expect(b.AttachLabel(1)).To(MatchError(core.ErrInvalidEdit))
		})

		It("should accept attaching a label to its own target", func() {
			Expect(b.Seek(3)).To(Succeed())
			Expect(b.AttachLabel(1)).To(Succeed())
		})

		It("should copy without labels", func() {
			Expect(b.Seek(2)).To(Succeed())
			out, err := b.Copy(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]instr.Instruction{
				instr.Simple(instr.NOP),
				instr.Simple(instr.RET),
			}))
			Expect(b.Position()).To(Equal(2))

			_, err = b.Copy(3)
			Expect(err).To(MatchError(core.ErrCursorOutOfRange))
			_, err = b.Copy(math.MaxInt)
			Expect(err).To(MatchError(core.ErrCursorOutOfRange))
			_, err = b.Copy(math.MinInt)
			Expect(err).To(MatchError(core.ErrCursorOutOfRange))
		})
	})
})
