package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/tend/internal/core/domain"
)

// newWatchCmd builds the ad-hoc single rule commands "exec" and "restart".
//
//nolint:funlen // flag table
func (c *CLI) newWatchCmd(mode domain.Mode) *cobra.Command {
	short := "Run a command once per change of the watched files"
	if mode == domain.ModeRestart {
		short = "Keep a command running and restart it when the watched files change"
	}

	defaults := domain.DefaultPolicy()
	cmd := &cobra.Command{
		Use:   mode.String() + " -p <pattern>... [flags] -- <command>",
		Short: short,
		Example: "  tend " + mode.String() + " -p '**/*.go' -p '!vendor' -- go test @reldir\n" +
			"  tend " + mode.String() + " -p 'src/**' --combine -- echo @relfiles",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := c.watchSpec(cmd, mode, args)
			if err != nil {
				return err
			}

			opts := c.runOptions()
			opts.Specs = []domain.RuleSpec{spec}
			return c.app.Run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayP("pattern", "p", nil, "Glob pattern to watch, prefix with ! to exclude (repeatable)")
	f.String("name", "", "Rule name shown in the output")
	f.String("dir", "", "Directory patterns are resolved against and the command runs in")
	f.Duration("debounce", defaults.Debounce, "Quiet period before a change is reported")
	f.Duration("throttle", defaults.Throttle, "Minimum interval between two runs")
	f.Duration("reglob", defaults.Reglob, "Interval at which patterns are re-evaluated")
	f.Bool("combine", defaults.CombineEvents, "Report all changed paths in a single run")
	f.Bool("wait-done", defaults.WaitDone, "Hold new runs until the previous one finished")
	f.Int("parallel-limit", defaults.ParallelLimit, "Maximum number of concurrent runs, 0 for no limit")
	f.StringSlice("events", defaults.Events.List(), "Actions to react to: create, change, delete")
	f.Bool("checksum", defaults.ChecksumVerify, "Only report a change when the file content changed")
	f.Bool("mtime-check", defaults.MtimeCheck, "Only report a change when the modification time increased")
	f.Bool("restart-on-error", defaults.RestartOnError, "Restart the command when it exits with an error")
	f.Bool("restart-on-success", defaults.RestartOnSuccess, "Restart the command when it exits successfully")
	f.String("shell", defaults.Shell.String(), "Shell: true for /bin/sh, false for none, or an interpreter such as 'bash -c'")
	f.Bool("terminal", defaults.Terminal, "Attach the command to a pseudo-terminal")
	f.Bool("console", defaults.WriteToConsole, "Show the command output")
	f.String("var-prefix", defaults.ExecVariablePrefix, "Placeholder prefix in the command, e.g. @file")
	f.String("kill-signal", defaults.Kill.Signal, "Signal sent to stop the command")
	f.String("kill-final-signal", defaults.Kill.FinalSignal, "Signal sent on the last stop attempt, e.g. SIGKILL")
	f.Duration("kill-timeout", defaults.Kill.Timeout, "Time to wait for the command to exit after a signal")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

func (c *CLI) watchSpec(cmd *cobra.Command, mode domain.Mode, args []string) (domain.RuleSpec, error) {
	f := cmd.Flags()
	patterns, _ := f.GetStringArray("pattern")

	spec := domain.NewRuleSpec(mode, patterns, domain.TemplateCommand(strings.Join(args, " ")))
	spec.Name, _ = f.GetString("name")
	spec.Dir, _ = f.GetString("dir")

	p := &spec.Policy
	p.Debounce, _ = f.GetDuration("debounce")
	p.Throttle, _ = f.GetDuration("throttle")
	p.Reglob, _ = f.GetDuration("reglob")
	p.CombineEvents, _ = f.GetBool("combine")
	p.WaitDone, _ = f.GetBool("wait-done")
	p.ParallelLimit, _ = f.GetInt("parallel-limit")
	p.ChecksumVerify, _ = f.GetBool("checksum")
	p.MtimeCheck, _ = f.GetBool("mtime-check")
	p.RestartOnError, _ = f.GetBool("restart-on-error")
	p.RestartOnSuccess, _ = f.GetBool("restart-on-success")
	p.Terminal, _ = f.GetBool("terminal")
	p.WriteToConsole, _ = f.GetBool("console")
	p.ExecVariablePrefix, _ = f.GetString("var-prefix")
	p.Debug = c.debug

	shell, _ := f.GetString("shell")
	p.Shell = domain.ParseShell(shell)

	events, _ := f.GetStringSlice("events")
	set, err := domain.ParseActionSet(events)
	if err != nil {
		return domain.RuleSpec{}, err
	}
	p.Events = set

	p.Kill.Signal, _ = f.GetString("kill-signal")
	p.Kill.FinalSignal, _ = f.GetString("kill-final-signal")
	p.Kill.Timeout, _ = f.GetDuration("kill-timeout")

	return spec, nil
}
