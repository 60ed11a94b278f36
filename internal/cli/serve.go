package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/buemura/contractlens/internal/engine"
	"github.com/buemura/contractlens/internal/rules"
	"github.com/buemura/contractlens/internal/web"
	"github.com/buemura/contractlens/internal/web/sessions"
	"github.com/spf13/cobra"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ContractLens API server",
	Long: `Serve per-session analysis over HTTP. Each session holds one source
buffer; edits are re-analyzed after the debounce delay and fixes are applied
to the session buffer.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", ":3000", "listen address (host:port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	var opts []engine.Option
	a, err := analyzerFor(appConfig)
	if err != nil {
		return err
	}
	if a != nil {
		opts = append(opts, engine.WithAnalyzer(a))
	} else if appConfig.Engine.EnableAIAnalysis {
		logger.Warnw("ai analysis enabled without an endpoint; reports will be pattern-only")
	}

	reg := rules.Builtin()
	opts = append(opts, engine.WithRegistry(reg))
	mgr := sessions.NewManager(appConfig.Engine, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := web.NewServer(addrFlag, mgr, reg, logger)
	fmt.Fprintf(cmd.OutOrStdout(), "ContractLens API listening on %s\n", addrFlag)
	return s.Start(ctx)
}
