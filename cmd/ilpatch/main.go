// Command ilpatch applies YAML patch files to method bodies.
//
//	ilpatch -bodies bodies.yaml -patches patches.yaml -out patched.yaml
//
// It prints a table of the patch outcomes and exits with status 1 if any
// patch failed or, with -lint, if a patched body has structural issues.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/ilpatch/config"
	"github.com/sarchlab/ilpatch/core"
	"github.com/sarchlab/ilpatch/patch"
	"github.com/sarchlab/ilpatch/verify"
)

var (
	bodiesPath  = flag.String("bodies", "", "YAML file with the method bodies to patch")
	patchesPath = flag.String("patches", "", "YAML file with the patch definitions")
	outPath     = flag.String("out", "", "write the patched bodies to this file, - for stdout")
	logLevel    = flag.String("log", "info", "log level: error, warn, info, debug or trace")
	lint        = flag.Bool("lint", false, "check every patched body for label issues")
)

func main() {
	flag.Parse()

	level, err := parseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	atexit.Exit(run(logger, level))
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "error":
		return slog.LevelError, nil
	case "warn":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "trace":
		return core.LevelTrace, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

func run(logger *slog.Logger, level slog.Level) int {
	if *bodiesPath == "" || *patchesPath == "" {
		flag.Usage()
		return 2
	}

	host, err := config.LoadHost(*bodiesPath)
	if err != nil {
		logger.Error("Cannot load bodies", "Err", err)
		return 2
	}

	file, err := config.LoadFile(*patchesPath)
	if err != nil {
		logger.Error("Cannot load patches", "Err", err)
		return 2
	}

	patches, err := file.Compile()
	if err != nil {
		logger.Error("Cannot compile patches", "Path", *patchesPath, "Err", err)
		return 2
	}

	patcher := patch.NewPatcher(host, logger)
	patcher.SetOutput(os.Stderr)
	if level <= core.LevelTrace {
		patcher.AcceptHook(core.NewTraceHook(logger))
	}
	patcher.Register(patches...)

	report := patcher.ApplyAll()
	report.WriteTable(os.Stdout)

	code := 0
	if len(report.Failed()) > 0 {
		code = 1
	}

	if *lint && !lintApplied(report, host, os.Stdout) {
		code = 1
	}

	if *outPath != "" {
		if err := writeBodies(host, *outPath); err != nil {
			logger.Error("Cannot write bodies", "Path", *outPath, "Err", err)
			return 2
		}
	}

	return code
}

// lintApplied checks each method that a patch changed, once.
func lintApplied(report *patch.Report, host patch.Host, w io.Writer) bool {
	ok := true
	seen := make(map[string]bool)

	for _, res := range report.Applied() {
		if seen[res.Method] {
			continue
		}
		seen[res.Method] = true

		body, err := host.Body(res.Method)
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", res.Method, err)
			ok = false
			continue
		}

		r := verify.GenerateReport(res.Method, body)
		r.WriteReport(w)
		ok = ok && r.OK()
	}

	return ok
}

func writeBodies(host *patch.MemHost, path string) error {
	if path == "-" {
		return config.WriteHost(os.Stdout, host)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := config.WriteHost(f, host); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
