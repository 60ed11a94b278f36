package cli

import (
	"github.com/buemura/contractlens/internal/editor"
	"github.com/buemura/contractlens/internal/engine"
	"github.com/buemura/contractlens/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tuiCmd = &cobra.Command{
	Use:   "tui <file>",
	Short: "Browse and fix a file's issues interactively",
	Long: `Open a terminal UI listing the issues in a Solidity file. Select an issue
to see its details, press f to apply its fix to the file, r to rescan.`,
	Args: cobra.ExactArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	fb, err := editor.OpenFile(args[0])
	if err != nil {
		return err
	}

	cfg := appConfig.Engine
	cfg.EnableRealtime = true
	// Log output would draw over the alternate screen.
	eng, err := newEngine(cfg, engine.WithEditor(fb), engine.WithLogger(zap.NewNop().Sugar()))
	if err != nil {
		return err
	}
	defer eng.Close()

	return tui.Run(eng, fb)
}
