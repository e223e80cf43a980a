package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spektr-org/impactlens/config"
)

// ============================================================================
// IMPACTLENS CLI — dashboards figures from the terminal
// ============================================================================

const version = "0.3.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Environ())
	stop()
	os.Exit(code)
}

// command is one subcommand. setup registers its flags and returns the
// function that runs it once flags are parsed.
type command struct {
	name  string
	usage string
	short string
	setup func(fs *flag.FlagSet) func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	filterCommand,
	groupCommand,
	trendCommand,
	summaryCommand,
	progressCommand,
	importCommand,
	removeCommand,
	schemaCommand,
}

// app carries what every command needs after flags are parsed.
type app struct {
	stdout io.Writer
	stderr io.Writer
	env    []string

	configPath string
	format     string
	out        string
	logLevel   string
	verbose    bool

	workDir string
	cfg     config.Config
	logger  *zap.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, env []string) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}
	switch args[0] {
	case "-h", "--help", "help":
		printUsage(stdout)
		return 0
	case "-v", "--version", "version":
		fmt.Fprintf(stdout, "impactlens %s\n", version)
		return 0
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "error: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	a := &app{stdout: stdout, stderr: stderr, env: env}
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	exec := cmd.setup(fs)
	fs.StringVar(&a.configPath, "config", "", "config file (default .impactlens.json in the working directory)")
	fs.StringVarP(&a.format, "format", "f", "json", "output format: json, pretty, text, csv")
	fs.StringVarP(&a.out, "out", "o", "", "write output to a file instead of stdout")
	fs.StringVar(&a.logLevel, "log-level", "", "override the configured log level")
	fs.BoolVar(&a.verbose, "verbose", false, "human-readable debug logs")

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printCommandHelp(stdout, cmd, fs)
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		printCommandHelp(stderr, cmd, fs)
		return 2
	}

	if err := a.init(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer func() { _ = a.logger.Sync() }()

	if err := exec(ctx, a, fs.Args()); err != nil {
		a.logger.Debug("command failed", zap.String("command", cmd.name), zap.Error(err))
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func (a *app) init() error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}
	a.workDir = wd

	cfg, sources, err := config.Load(wd, a.configPath, a.env)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.verbose && a.logLevel == "" {
		level = "debug"
	}
	a.logger, err = config.NewLogger(level, a.verbose)
	if err != nil {
		return err
	}
	a.logger.Debug("config loaded",
		zap.String("global", sources.Global),
		zap.String("project", sources.Project),
		zap.String("backend", cfg.Store.Backend))
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "impactlens %s: filter, group and summarize platform records\n\nUsage:\n", version)
	for _, c := range commands {
		fmt.Fprintf(w, "  impactlens %-34s %s\n", c.usage, c.short)
	}
	fmt.Fprint(w, `
Data comes from a CSV export (--file, with --schema or discovery) or from the
configured store (--kind). Run "impactlens <command> --help" for flags.
`)
}

func printCommandHelp(w io.Writer, c *command, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: impactlens %s\n\n%s\n\nFlags:\n", c.usage, c.short)
	var b strings.Builder
	fs.SetOutput(&b)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
	fmt.Fprint(w, b.String())
}
