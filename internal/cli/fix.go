package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/buemura/contractlens/internal/editor"
	"github.com/buemura/contractlens/internal/engine"
	"github.com/buemura/contractlens/internal/fix"
	"github.com/buemura/contractlens/pkg/types"
	"github.com/spf13/cobra"
)

var dryRunFlag bool

var fixCmd = &cobra.Command{
	Use:   "fix <file>",
	Short: "Apply every available automatic fix to a file",
	Long: `Repeatedly analyze the file and apply the first available automatic fix
until none remain. With --dry-run the file is left untouched and the fixes
that would be applied are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "print fixes without writing the file")
	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	src, err := readSource(path)
	if err != nil {
		return err
	}

	cfg := appConfig.Engine
	cfg.EnableRealtime = false
	cfg.EnableAutoFix = true
	buf := editor.NewBuffer(src)
	eng, err := newEngine(cfg, engine.WithEditor(buf))
	if err != nil {
		return err
	}
	defer eng.Close()

	out := cmd.OutOrStdout()
	ctx := context.Background()
	var applied []fix.Fix
	// Each fix shifts text, so re-analyze after every application.
	for attempts := 0; attempts < 1000; attempts++ {
		report, err := eng.PerformAnalysis(ctx)
		if err != nil {
			return err
		}
		fx, issue, ok := nextFix(report, buf.Text())
		if !ok {
			break
		}
		done, err := eng.AutoFixIssue(issue)
		if err != nil {
			return err
		}
		if !done {
			break
		}
		applied = append(applied, fx)
	}

	for _, fx := range applied {
		fmt.Fprintf(out, "%d:%d %s: %q -> %q\n", fx.Range.StartLine, fx.Range.StartColumn, fx.RuleID, fx.Original, fx.Replacement)
	}
	if len(applied) == 0 {
		fmt.Fprintln(out, "No automatic fixes available.")
		return nil
	}
	if dryRunFlag {
		fmt.Fprintf(out, "%d fixes would be applied to %s\n", len(applied), path)
		return nil
	}
	if err := os.WriteFile(path, []byte(buf.Text()), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(out, "Applied %d fixes to %s\n", len(applied), path)
	return nil
}

func nextFix(report *types.Report, text string) (fix.Fix, types.Issue, bool) {
	for _, is := range report.Issues {
		if !is.AutoFixAvailable {
			continue
		}
		fx, err := fix.Generate(is, text)
		if err == nil {
			return fx, is, true
		}
	}
	return fix.Fix{}, types.Issue{}, false
}
