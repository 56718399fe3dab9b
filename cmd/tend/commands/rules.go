package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules [rules...]",
		Short: "Print the rules of tend.yaml as JSON without starting them",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

			opts := c.runOptions()
			opts.ConfigFile = file
			opts.Names = args
			specs, err := c.app.LoadSpecs(opts)
			if err != nil {
				return err
			}
			for _, spec := range specs {
				if _, err := c.app.AddRule(spec); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(c.app.Snapshot()); err != nil {
				return zerr.Wrap(err, "failed to encode rules")
			}
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "Path to the rules file (default: discover tend.yaml)")
	return cmd
}
