// Command planner plans trips from an input document on disk and writes the
// result and report documents.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arnavshah/trip-planner-go/internal/config"
	"github.com/arnavshah/trip-planner-go/internal/logging"
	"github.com/arnavshah/trip-planner-go/pkg/auth"
	"github.com/arnavshah/trip-planner-go/pkg/planner"
)

const (
	exitOK       = 0
	exitFatal    = 1
	exitFindings = 2
)

// exitError carries a process exit code through cobra's error return
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type options struct {
	in         string
	out        string
	report     string
	seed       int64
	timeLimit  int
	logLevel   string
	configPath string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and maps the outcome to an exit code
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteC()
	if err == nil {
		return exitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintln(stderr, "Error:", exit.err)
		}
		return exit.code
	}
	// anything cobra rejected before RunE is a usage error
	fmt.Fprintln(stderr, "Error:", err)
	fmt.Fprint(stderr, cmd.UsageString())
	return exitFatal
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "planner",
		Short:         "Allocate locations and time slots to visiting groups",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.in, "in", "", "input document (.json, .yaml or .yml)")
	flags.StringVar(&opts.out, "out", "", "path for the result document")
	flags.StringVar(&opts.report, "report", "", "path for the report document")
	flags.Int64Var(&opts.seed, "seed", 42, "random seed for tie-breaking")
	flags.IntVar(&opts.timeLimit, "time", 300, "time limit in seconds")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.toml", "optional TOML config file")

	cmd.AddCommand(newKeygenCmd(opts))
	return cmd
}

func runPlan(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return &exitError{code: exitFatal, err: err}
	}

	seed := cfg.Planner.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.seed
	}
	limit := cfg.Planner.TimeLimit()
	if cmd.Flags().Changed("time") {
		if opts.timeLimit <= 0 {
			return &exitError{code: exitFatal, err: errors.New("--time must be a positive number of seconds")}
		}
		limit = time.Duration(opts.timeLimit) * time.Second
	}
	level := cfg.Logs.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}

	logger, err := logging.NewDevelopment(level)
	if err != nil {
		return &exitError{code: exitFatal, err: err}
	}
	defer func() { _ = logger.Sync() }()

	raw, format, err := planner.ReadInput(opts.in)
	if err != nil {
		return &exitError{code: exitFatal, err: err}
	}

	p := planner.New(planner.Options{Seed: seed, TimeLimit: limit, Logger: logger})
	out, err := p.Run(raw, format)
	if err != nil {
		return &exitError{code: exitFatal, err: err}
	}

	if err := planner.WriteOutput(opts.out, out.Result); err != nil {
		return &exitError{code: exitFatal, err: err}
	}
	if opts.report != "" {
		if err := planner.WriteOutput(opts.report, out.Report); err != nil {
			return &exitError{code: exitFatal, err: err}
		}
	}

	logger.Debug("documents written",
		zap.String("result", opts.out),
		zap.String("report", opts.report),
		zap.String("snapshot", out.Result.SnapshotID))

	if out.HasFindings() {
		fmt.Fprintln(cmd.OutOrStdout(), planner.Summarize(out))
		return &exitError{code: exitFindings}
	}
	return nil
}

func newKeygenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <name>",
		Short: "Print an API key for the HTTP planning endpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return &exitError{code: exitFatal, err: err}
			}
			key, err := auth.New(cfg.Auth).GenerateHMACKey(args[0])
			if err != nil {
				return &exitError{code: exitFatal, err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated Key for %s:\n%s\n", args[0], key)
			return nil
		},
	}
}
