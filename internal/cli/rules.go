package cli

import (
	"github.com/buemura/contractlens/internal/output"
	"github.com/buemura/contractlens/internal/rules"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the built-in detectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		all := rules.Builtin().All()
		metas := make([]rules.Meta, 0, len(all))
		for _, r := range all {
			metas = append(metas, r.Meta)
		}
		return output.FormatRules(cmd.OutOrStdout(), outputFlag, metas)
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
