package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [rules...]",
		Short: "Run the rules of tend.yaml until interrupted",
		Long: "Run loads tend.yaml from the current directory or the closest parent and starts\n" +
			"every rule, or only the named ones. All processes are stopped on SIGINT or SIGTERM.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

			opts := c.runOptions()
			opts.ConfigFile = file
			opts.Names = args
			return c.app.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringP("file", "f", "", "Path to the rules file (default: discover tend.yaml)")
	return cmd
}
