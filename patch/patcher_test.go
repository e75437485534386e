package patch_test

import (
	"bytes"
	"errors"
	"log/slog"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ilpatch/core"
	"github.com/sarchlab/ilpatch/instr"
	"github.com/sarchlab/ilpatch/patch"
)

var scaling = instr.Pattern{
	instr.Op(instr.LOAD),
	instr.Op(instr.LOAD_FIELD),
	instr.Op(instr.LOAD_FIELD),
	instr.OpWith(instr.CONST, instr.FloatOperand(10000)),
	instr.Op(instr.DIV),
}

func addOffset(b *core.Buffer) error {
	if _, err := b.FindNext(scaling); err != nil {
		return err
	}
	if err := b.Advance(3); err != nil {
		return err
	}
	return b.Insert(
		instr.New(instr.CONST, instr.FloatOperand(280)),
		instr.Simple(instr.ADD),
	)
}

var _ = Describe("Patcher", func() {
	var (
		mockCtrl *gomock.Controller
		host     *MockHost
		logs     *bytes.Buffer
		patcher  *patch.Patcher
		body     []instr.Instruction
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		host = NewMockHost(mockCtrl)

		logs = &bytes.Buffer{}
		patcher = patch.NewPatcher(host, slog.New(slog.NewTextHandler(logs, nil)))
		patcher.SetOutput(&bytes.Buffer{})

		body = listing(
			"LOAD 0",
			"LOAD_FIELD X",
			"LOAD_FIELD Y",
			"CONST 10000.0",
			"DIV",
			"RET",
		)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should install the rewritten body", func() {
		host.EXPECT().Body("Stats.Scale").Return(body, nil)
		host.EXPECT().Install("Stats.Scale", listing(
			"LOAD 0",
			"LOAD_FIELD X",
			"LOAD_FIELD Y",
			"CONST 280.0",
			"ADD",
			"CONST 10000.0",
			"DIV",
			"RET",
		)).Return(nil)

		patcher.Register(patch.Patch{Name: "offset", Method: "Stats.Scale", Apply: addOffset})
		report := patcher.ApplyAll()

		Expect(report.Results).To(HaveLen(1))
		res := report.Results[0]
		Expect(res.Applied).To(BeTrue())
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Edits).To(Equal(1))
		Expect(res.Before).To(Equal(6))
		Expect(res.After).To(Equal(8))
		Expect(res.ID.IsNil()).To(BeFalse())
		Expect(logs.String()).To(ContainSubstring("Patch applied"))
	})

	It("should skip a patch whose pattern is missing and keep going", func() {
		other := listing("NOP", "RET")

		host.EXPECT().Body("Stats.Other").Return(other, nil)
		host.EXPECT().Body("Stats.Scale").Return(body, nil)
		host.EXPECT().Install("Stats.Scale", gomock.Any()).Return(nil)

		patcher.Register(
			patch.Patch{Name: "misplaced", Method: "Stats.Other", Apply: addOffset},
			patch.Patch{Name: "offset", Method: "Stats.Scale", Apply: addOffset},
		)
		report := patcher.ApplyAll()

		Expect(report.Failed()).To(HaveLen(1))
		Expect(report.Applied()).To(HaveLen(1))

		failed := report.Failed()[0]
		Expect(failed.Patch).To(Equal("misplaced"))
		Expect(failed.Kind).To(Equal(patch.KindNotFound))
		Expect(failed.Err).To(MatchError(core.ErrPatternNotFound))
		Expect(logs.String()).To(ContainSubstring("Kind=PATTERN_NOT_FOUND"))
		Expect(logs.String()).To(ContainSubstring("Patch=misplaced"))
	})

	It("should recover from a panicking patch", func() {
		host.EXPECT().Body("Stats.Scale").Return(body, nil)

		patcher.Register(patch.Patch{
			Name:   "broken",
			Method: "Stats.Scale",
			Apply: func(*core.Buffer) error {
				panic("boom")
			},
		})
		report := patcher.ApplyAll()

		res := report.Results[0]
		Expect(res.Kind).To(Equal(patch.KindPanic))
		Expect(res.Err).To(MatchError(patch.ErrPanic))
		Expect(res.Applied).To(BeFalse())
	})

	It("should not install a body without edits", func() {
		host.EXPECT().Body("Stats.Scale").Return(body, nil)

		patcher.Register(patch.Patch{
			Name:   "look",
			Method: "Stats.Scale",
			Apply: func(b *core.Buffer) error {
				_, err := b.FindNext(scaling)
				return err
			},
		})
		report := patcher.ApplyAll()

		res := report.Results[0]
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Applied).To(BeFalse())
		Expect(res.Status()).To(Equal("unchanged"))
	})

	It("should not install a body that ends up unchanged", func() {
		host.EXPECT().Body("Stats.Scale").Return(body, nil)

		patcher.Register(patch.Patch{
			Name:   "undo",
			Method: "Stats.Scale",
			Apply: func(b *core.Buffer) error {
				if err := b.Insert(instr.Simple(instr.NOP)); err != nil {
					return err
				}
				if err := b.Retreat(1); err != nil {
					return err
				}
				return b.Remove(1)
			},
		})
		report := patcher.ApplyAll()

		res := report.Results[0]
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Edits).To(Equal(2))
		Expect(res.Status()).To(Equal("unchanged"))
		Expect(logs.String()).To(ContainSubstring("Patch left body unchanged"))
	})

	It("should install a rewrite that only moves a label", func() {
		retarget := listing("BR_TRUE @L1", "NOP", "L1: RET", "RET")
		host.EXPECT().Body("Game.Exit").Return(retarget, nil)
		host.EXPECT().Install("Game.Exit",
			listing("BR_TRUE @L1", "NOP", "RET", "L1: RET")).Return(nil)

		patcher.Register(patch.Patch{
			Name:   "retarget",
			Method: "Game.Exit",
			Apply: func(b *core.Buffer) error {
				if err := b.Seek(2); err != nil {
					return err
				}
				labels, err := b.ExtractLabels()
				if err != nil {
					return err
				}
				if err := b.Advance(1); err != nil {
					return err
				}
				return b.AttachLabel(labels[0])
			},
		})
		report := patcher.ApplyAll()

		res := report.Results[0]
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Applied).To(BeTrue())
		Expect(res.Edits).To(Equal(2))
	})

	It("should report host failures", func() {
		host.EXPECT().Body("Stats.Scale").Return(body, nil)
		host.EXPECT().Install("Stats.Scale", gomock.Any()).
			Return(errors.New("read-only"))

		patcher.Register(patch.Patch{Name: "offset", Method: "Stats.Scale", Apply: addOffset})
		report := patcher.ApplyAll()

		res := report.Results[0]
		Expect(res.Kind).To(Equal(patch.KindHost))
		Expect(res.Applied).To(BeFalse())
	})

	It("should report a missing apply function", func() {
		host.EXPECT().Body("Stats.Scale").Return(body, nil)

		patcher.Register(patch.Patch{Name: "empty", Method: "Stats.Scale"})
		report := patcher.ApplyAll()

		Expect(report.Results[0].Err).To(MatchError(patch.ErrNoApply))
		Expect(report.Results[0].Kind).To(Equal(patch.KindOther))
	})

	It("should pass every buffer to registered hooks", func() {
		host.EXPECT().Body("Stats.Scale").Return(body, nil)
		host.EXPECT().Install("Stats.Scale", gomock.Any()).Return(nil)

		counter := &core.EditCounter{}
		patcher.AcceptHook(counter)
		patcher.Register(patch.Patch{Name: "offset", Method: "Stats.Scale", Apply: addOffset})
		patcher.ApplyAll()

		Expect(counter.Matches).To(Equal(1))
		Expect(counter.Inserts).To(Equal(1))
	})
})

var _ = Describe("Patcher with MemHost", func() {
	It("should chain patches on the same method", func() {
		host := patch.NewMemHost()
		host.Add("Stats.Scale", listing(
			"LOAD 0",
			"LOAD_FIELD X",
			"LOAD_FIELD Y",
			"CONST 10000.0",
			"DIV",
			"RET",
		))

		patcher := patch.NewPatcher(host, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		patcher.Register(
			patch.Patch{Name: "offset", Method: "Stats.Scale", Apply: addOffset},
			patch.Patch{
				Name:   "precision",
				Method: "Stats.Scale",
				Apply: func(b *core.Buffer) error {
					_, err := b.FindNext(instr.Pattern{
						instr.OpWith(instr.CONST, instr.FloatOperand(280)),
					})
					if err != nil {
						return err
					}
					return b.ReplaceOperand(instr.FloatOperand(281.5))
				},
			},
			patch.Patch{Name: "ghost", Method: "Stats.Missing", Apply: addOffset},
		)

		report := patcher.ApplyAll()
		Expect(report.Applied()).To(HaveLen(2))
		Expect(report.Failed()).To(HaveLen(1))
		Expect(report.Failed()[0].Err).To(MatchError(patch.ErrUnknownMethod))
		Expect(report.Results[0].ID).NotTo(Equal(report.Results[1].ID))

		out, err := host.Body("Stats.Scale")
		Expect(err).NotTo(HaveOccurred())
		Expect(out[3]).To(Equal(instr.New(instr.CONST, instr.FloatOperand(281.5))))
		Expect(host.Methods()).To(Equal([]string{"Stats.Scale"}))
	})

	It("should leave the body alone when a rewrite fails", func() {
		host := patch.NewMemHost()
		original := listing("BR @L1", "L1: RET")
		host.Add("M", original)

		patcher := patch.NewPatcher(host, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		patcher.Register(patch.Patch{
			Name:   "drop",
			Method: "M",
			Apply: func(b *core.Buffer) error {
				if err := b.Advance(1); err != nil {
					return err
				}
				return b.Remove(1)
			},
		})

		report := patcher.ApplyAll()
		Expect(report.Results[0].Kind).To(Equal(patch.KindInvalidEdit))

		out, err := host.Body("M")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(original))
	})
})
