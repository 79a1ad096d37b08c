// cortex is the thin CLI front-end for the benchmarking core: it parses
// verbs and flags, binds environment overrides, and delegates everything
// else to the orchestrator, loader, and calibstate packages. Config
// parsing, oracle comparison, and report generation are external
// collaborators this binary merely invokes entry points into.
//
// Usage:
//
//	cortex run <config.yaml>
//	cortex calibrate --kernel <id> --dataset <path> --windows N --output <state-file>
//	cortex validate
//
// Exit codes: 0 success; non-zero on configuration errors, plugin load
// failures, or I/O failures during result writing. Deadline misses never
// affect the exit code.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cortexbench/cortex/internal/config"
	"github.com/cortexbench/cortex/internal/obslog"
	"github.com/cortexbench/cortex/orchestrator"
)

const usageText = `cortex — deterministic real-time kernel benchmarking harness

Usage:
  cortex run [--plugins-root <dir>] [--log-level <level>] [--pretty] <config.yaml>
  cortex calibrate --kernel <id> --dataset <path> --windows N --output <state-file>
  cortex validate

Exit codes:
  0  success
  1  configuration error, plugin load failure, or I/O failure
  2  usage error
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		return 2
	}

	verb := args[0]
	rest := args[1:]

	switch verb {
	case "run":
		return runVerb(rest)
	case "calibrate":
		return calibrateVerb(rest)
	case "validate":
		return validateVerb(rest)
	case "help", "-h", "--help":
		fmt.Print(usageText)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "cortex: unknown verb %q\n\n%s", verb, usageText)
		return 2
	}
}

func runVerb(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	pluginsRoot := fs.String("plugins-root", ".", "root directory plugin spec_uri values resolve against")
	logLevel := fs.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	pretty := fs.Bool("pretty", false, "use human-readable console log output (also enabled by CORTEX_LOG_PRETTY=1)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "cortex run: expected exactly one config path\n\n%s", usageText)
		return 2
	}

	obslog.Initialize(*logLevel, resolvePretty(*pretty))
	log := obslog.Component("cli")

	cfg, err := config.Load(fs.Arg(0))
	if err != nil {
		log.Error().Err(err).Msg("configuration error")
		return 1
	}

	root, err := filepath.Abs(*pluginsRoot)
	if err != nil {
		log.Error().Err(err).Msg("resolve plugins root")
		return 1
	}

	orch := orchestrator.New(cfg, root)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Warn().Msg("shutdown signal received; finishing current window then stopping")
		orch.RequestShutdown()
	}()

	result, exitCode := orch.Run()
	for _, outcome := range result.Outcomes {
		if outcome.Err != nil {
			log.Warn().Str("plugin", outcome.Name).Err(outcome.Err).Msg("plugin outcome")
		} else {
			log.Info().Str("plugin", outcome.Name).Int("records", outcome.Records).Msg("plugin completed")
		}
	}
	return exitCode
}

func calibrateVerb(args []string) int {
	fs := flag.NewFlagSet("calibrate", flag.ContinueOnError)
	kernel := fs.String("kernel", "", "plugin spec URI of the kernel to calibrate")
	dataset := fs.String("dataset", "", "path to the training dataset")
	windows := fs.Int("windows", 0, "number of windows to use for calibration")
	output := fs.String("output", "", "path to write the resulting calibration-state file")
	pluginsRoot := fs.String("plugins-root", ".", "root directory the kernel spec resolves against")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *kernel == "" || *dataset == "" || *output == "" || *windows <= 0 {
		fmt.Fprintln(os.Stderr, "cortex calibrate: --kernel, --dataset, --windows, and --output are all required")
		return 2
	}

	obslog.Initialize("info", resolvePretty(false))
	log := obslog.Component("cli")

	if err := runCalibration(*pluginsRoot, *kernel, *dataset, *windows, *output); err != nil {
		log.Error().Err(err).Msg("calibration failed")
		return 1
	}
	return 0
}

// resolvePretty reports whether console log output should be human-readable:
// either the --pretty flag was set, or CORTEX_LOG_PRETTY=1 is in the
// environment.
func resolvePretty(flagSet bool) bool {
	return flagSet || os.Getenv("CORTEX_LOG_PRETTY") == "1"
}

func validateVerb(args []string) int {
	fmt.Fprintln(os.Stderr, "cortex validate: oracle-comparison validation is an external collaborator; not implemented in core")
	return 0
}
