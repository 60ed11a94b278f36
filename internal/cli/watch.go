package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/buemura/contractlens/internal/editor"
	"github.com/buemura/contractlens/internal/engine"
	"github.com/buemura/contractlens/internal/output"
	"github.com/buemura/contractlens/pkg/types"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-analyze a file every time it changes",
	Long: `Watch a Solidity file and print a fresh report after each change. Bursts
of writes are coalesced by the --debounce delay.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchFile(ctx, cmd.OutOrStdout(), args[0], nil)
}

// watchFile blocks until ctx is done. ready, if non-nil, is closed once the
// watcher is installed and the first analysis has been scheduled.
func watchFile(ctx context.Context, out io.Writer, path string, ready chan<- struct{}) error {
	formatter, err := output.GetFormatter(outputFlag)
	if err != nil {
		return err
	}
	fb, err := editor.OpenFile(path)
	if err != nil {
		return err
	}

	cfg := appConfig.Engine
	cfg.EnableRealtime = true
	eng, err := newEngine(cfg, engine.WithEditor(fb))
	if err != nil {
		return err
	}
	defer eng.Close()

	var mu sync.Mutex
	if _, err := eng.Subscribe(func(r *types.Report) {
		if r == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if err := formatter.Format(out, []output.FileReport{{Path: path, Report: r}}); err != nil {
			logger.Warnw("rendering report", "error", err)
		}
	}); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init failed: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file instead of writing it in place, so watch
	// the directory and filter by name.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	target := filepath.Clean(path)

	if err := eng.Trigger(fb.Text()); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			changed, err := fb.Reload()
			if err != nil {
				logger.Warnw("reloading file", "path", path, "error", err)
				continue
			}
			if !changed {
				continue
			}
			logger.Debugw("file changed", "path", path)
			if err := eng.Trigger(fb.Text()); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("watch error", "error", err)
		}
	}
}
