package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/buemura/contractlens/internal/engine"
	"github.com/buemura/contractlens/internal/output"
	"github.com/buemura/contractlens/pkg/types"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <file>...",
	Short: "Analyze Solidity files once",
	Long: `Analyze one or more Solidity files and print a report for each.
Exits with status 2 when an issue at or above --fail-on is reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	formatter, err := output.GetFormatter(outputFlag)
	if err != nil {
		return err
	}
	failOn, err := types.ParseSeverity(failOnFlag)
	if err != nil {
		return err
	}

	cfg := appConfig.Engine
	cfg.EnableRealtime = false
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reports := make([]output.FileReport, 0, len(args))
	failed := false
	for _, path := range args {
		fr := output.FileReport{Path: path}
		src, err := readSource(path)
		if err != nil {
			fr.Error = err.Error()
			reports = append(reports, fr)
			continue
		}
		report, err := eng.Analyze(ctx, src)
		switch {
		case errors.Is(err, engine.ErrSourceTooLarge):
			fr.Error = err.Error()
		case err != nil:
			return err
		default:
			fr.Report = report
			if report.IssuesAtLeast(failOn) > 0 {
				failed = true
			}
		}
		reports = append(reports, fr)
	}

	if err := formatter.Format(cmd.OutOrStdout(), reports); err != nil {
		return err
	}
	if failed {
		return ErrIssuesFound
	}
	return nil
}
