// Command copilint validates GitHub Copilot customization files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/drewdunne/copilint/internal/config"
	"github.com/drewdunne/copilint/internal/logging"
	"github.com/drewdunne/copilint/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.1.0"

// Exit codes.
const (
	exitOK          = 0
	exitFailed      = 1
	exitEnvironment = 2
)

// errValidationFailed is returned by commands whose report did not pass.
var errValidationFailed = errors.New("validation failed")

// app holds flag values and the state shared by the commands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath     string
	verbose        bool
	format         string
	failOnWarnings bool
	workers        int
	remote         string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: stdout, stderr: stderr, logger: zap.NewNop()}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	_ = a.logger.Sync()
	return exitCode(err, stderr)
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errValidationFailed):
		return exitFailed
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitEnvironment
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "copilint",
		Short: "Validate GitHub Copilot customization files",
		Long: `copilint checks the instruction, prompt and chat mode files under .github/
for front matter, required fields, file naming, code fences, template
placeholders and deprecated URLs.

Run without arguments to validate the current directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runValidate,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", ".copilint.yaml", "Path to config file (optional)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVarP(&a.format, "format", "f", "", "Report format: text, json, markdown or rich")
	pf.BoolVar(&a.failOnWarnings, "fail-on-warnings", false, "Treat warnings as failures")
	pf.IntVar(&a.workers, "workers", 0, "Concurrent file checks (0 = number of CPUs)")
	root.Flags().StringVar(&a.remote, "remote", "", "Validate a hosted repository: provider:owner/repo[@ref]")

	root.AddCommand(
		a.validateCmd(),
		a.watchCmd(),
		a.serveCmd(),
		a.initCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "copilint v%s\n", version)
		},
	}
}

// setup loads the config and builds the logger. Only an explicit --config
// must exist. quiet raises the default level to warn so reports are not
// interleaved with progress logs.
func (a *app) setup(cmd *cobra.Command, quiet bool) error {
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(a.configPath)
	} else {
		cfg, err = config.LoadOptional(a.configPath)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Providers.GitHub.Token == "" {
		cfg.Providers.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.Providers.GitLab.Token == "" {
		cfg.Providers.GitLab.Token = os.Getenv("GITLAB_TOKEN")
	}

	logCfg := cfg.Logging
	if quiet {
		logCfg.Level = "warn"
	}
	logger, err := logging.New(logCfg, a.verbose)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// applyFlags lets explicitly set flags override configured rules.
func (a *app) applyFlags(cmd *cobra.Command, rules config.RulesConfig) (config.RulesConfig, error) {
	if cmd.Flags().Changed("fail-on-warnings") {
		rules.FailOnWarnings = a.failOnWarnings
	}
	if cmd.Flags().Changed("workers") {
		rules.Workers = a.workers
	}
	if err := rules.Validate(); err != nil {
		return rules, err
	}
	return rules, nil
}

func (a *app) reportFormat(cmd *cobra.Command) (report.Format, error) {
	if cmd.Flags().Changed("format") {
		return report.ParseFormat(a.format)
	}
	return report.ParseFormat(a.cfg.Report.Format)
}
