package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/buemura/contractlens/internal/config"
	"github.com/buemura/contractlens/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

var (
	configFlag        string
	outputFlag        string
	verboseFlag       bool
	thresholdFlag     string
	debounceFlag      time.Duration
	maxCodeLengthFlag int
	aiFlag            bool
	failOnFlag        string
)

// appConfig holds the loaded configuration, available after PersistentPreRunE.
var appConfig *config.Config

// logger is built from appConfig.LogLevel in PersistentPreRunE.
var logger = zap.NewNop().Sugar()

// ErrIssuesFound is returned by commands that found issues at or above the
// --fail-on severity.
var ErrIssuesFound = errors.New("issues at or above the fail-on severity were found")

var rootCmd = &cobra.Command{
	Use:   "contractlens",
	Short: "ContractLens: security analysis for Solidity contracts",
	Long: `ContractLens inspects Solidity source for vulnerabilities, gas
optimization opportunities and best-practice violations. It scans files
once, watches them as they change, applies deterministic fixes, and serves
per-session analysis over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var (
			cfg *config.Config
			err error
		)
		if configFlag != "" {
			cfg, err = config.LoadFromFile(configFlag)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if err := config.ApplyFlags(cfg, cmd); err != nil {
			return err
		}

		l, err := logging.FromLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}

		// Sync config values back to flag variables so commands see config-file
		// and env-var defaults transparently.
		outputFlag = cfg.OutputFormat
		failOnFlag = cfg.FailOn

		appConfig = cfg
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrIssuesFound):
		return 2
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default ~/.contractlens.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "table", "output format: table, json, yaml, markdown, html, sarif")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&thresholdFlag, "threshold", "low", "minimum severity to report: low, medium, high, critical")
	rootCmd.PersistentFlags().DurationVar(&debounceFlag, "debounce", 500*time.Millisecond, "delay before re-analysis after a change")
	rootCmd.PersistentFlags().IntVar(&maxCodeLengthFlag, "max-code-length", 100_000, "refuse sources longer than this many bytes")
	rootCmd.PersistentFlags().BoolVar(&aiFlag, "ai", false, "enable the AI-assisted analysis pass")
	rootCmd.PersistentFlags().StringVar(&failOnFlag, "fail-on", "high", "exit with status 2 when issues at or above this severity are found")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}
