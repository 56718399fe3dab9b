// Package commands implements the CLI commands for the tend file watcher.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/tend/internal/app"
	"go.trai.ch/tend/internal/build"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/engine/rule"
)

// CLI represents the command line interface for tend.
type CLI struct {
	app     Application
	rootCmd *cobra.Command

	debug       bool
	logJSON     bool
	outputMode  string
	metricsAddr string
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, opts app.RunOptions) error
	LoadSpecs(opts app.RunOptions) ([]domain.RuleSpec, error)
	AddRule(spec domain.RuleSpec, opts ...rule.Option) (*rule.Rule, error)
	Snapshot() []app.RuleSnapshot
	ConfigureLogging(debug, jsonFormat bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "tend",
		Short:         "Watch files and run or restart commands when they change",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&c.debug, "debug", false, "Print diagnostic output")
	flags.BoolVar(&c.logJSON, "log-json", false, "Write logs as JSON")
	flags.StringVarP(&c.outputMode, "output-mode", "o", "auto", "Output mode: auto, tui, or linear")
	flags.StringVar(&c.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9091")

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		c.app.ConfigureLogging(c.debug, c.logJSON)
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newWatchCmd(domain.ModeExec))
	rootCmd.AddCommand(c.newWatchCmd(domain.ModeRestart))
	rootCmd.AddCommand(c.newRulesCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) runOptions() app.RunOptions {
	return app.RunOptions{
		OutputMode:  c.outputMode,
		MetricsAddr: c.metricsAddr,
	}
}
