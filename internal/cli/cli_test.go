package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/buemura/contractlens/internal/config"
	"github.com/buemura/contractlens/internal/output"
	"github.com/buemura/contractlens/internal/rules"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vulnerable = `pragma solidity ^0.8.20;

contract Owned {
    address owner;

    function withdraw() public {
        require(tx.origin == owner);
    }
}
`

const clean = `pragma solidity 0.8.20;

contract Counter {
    uint256 public count;

    function increment() external {
        count += 1;
    }
}
`

// resetFlags restores every flag to its default so values set by one test
// do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func executeCmd(args ...string) (string, error) {
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeContract(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCmd("version")
	require.NoError(t, err)
	assert.Contains(t, out, "contractlens version")
}

func TestScanMissingFileArgument(t *testing.T) {
	_, err := executeCmd("scan")
	assert.Error(t, err)
}

func TestScanTableOutput(t *testing.T) {
	path := writeContract(t, "Owned.sol", vulnerable)

	out, err := executeCmd("scan", path, "-o", "table", "--fail-on", "critical")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.Contains(t, out, "SOL-TX-ORIGIN")
	assert.Contains(t, out, "BP-FLOATING-PRAGMA")
}

func TestScanJSONOutput(t *testing.T) {
	path := writeContract(t, "Counter.sol", clean)

	out, err := executeCmd("scan", path, "-o", "json")
	require.NoError(t, err)

	var reports []output.FileReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].Report)
	assert.Empty(t, reports[0].Report.Issues)
	assert.Equal(t, 100, reports[0].Report.OverallScore)
}

func TestScanThresholdFiltersIssues(t *testing.T) {
	path := writeContract(t, "Owned.sol", vulnerable)

	out, err := executeCmd("scan", path, "-o", "json", "--threshold", "high", "--fail-on", "critical")
	require.NoError(t, err)

	var reports []output.FileReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports[0].Report.Issues, 1)
	assert.Equal(t, "SOL-TX-ORIGIN", reports[0].Report.Issues[0].RuleID)
}

func TestScanFailOnReturnsIssuesFound(t *testing.T) {
	path := writeContract(t, "Owned.sol", vulnerable)

	_, err := executeCmd("scan", path, "-o", "json", "--fail-on", "high")
	require.ErrorIs(t, err, ErrIssuesFound)
	assert.Equal(t, 2, ExitCode(err))
}

func TestScanSourceTooLarge(t *testing.T) {
	path := writeContract(t, "Owned.sol", vulnerable)

	out, err := executeCmd("scan", path, "-o", "json", "--max-code-length", "10")
	require.NoError(t, err)

	var reports []output.FileReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.Nil(t, reports[0].Report)
	assert.Contains(t, reports[0].Error, "limit is 10")
}

func TestScanUnreadableFileIsReported(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.sol")
	path := writeContract(t, "Counter.sol", clean)

	out, err := executeCmd("scan", missing, path, "-o", "json")
	require.NoError(t, err)

	var reports []output.FileReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	assert.Contains(t, reports[0].Error, "reading")
	assert.NotNil(t, reports[1].Report)
}

func TestScanUnknownFormat(t *testing.T) {
	path := writeContract(t, "Counter.sol", clean)

	_, err := executeCmd("scan", path, "-o", "xml")
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("scan: %w", ErrIssuesFound)))
	assert.Equal(t, 1, ExitCode(os.ErrNotExist))
}

func TestFixCommandWritesFile(t *testing.T) {
	path := writeContract(t, "Owned.sol", vulnerable)

	out, err := executeCmd("fix", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 2 fixes to "+path)
	assert.Contains(t, out, `"tx.origin" -> "msg.sender"`)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := strings.Replace(vulnerable, "^0.8.20", "0.8.20", 1)
	want = strings.Replace(want, "tx.origin", "msg.sender", 1)
	assert.Equal(t, want, string(data))
}

func TestFixCommandDryRun(t *testing.T) {
	path := writeContract(t, "Owned.sol", vulnerable)

	out, err := executeCmd("fix", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "2 fixes would be applied")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, vulnerable, string(data))
}

func TestFixCommandNothingToFix(t *testing.T) {
	path := writeContract(t, "Counter.sol", clean)

	out, err := executeCmd("fix", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No automatic fixes available.")
}

func TestRulesCommandJSON(t *testing.T) {
	out, err := executeCmd("rules", "-o", "json")
	require.NoError(t, err)

	var metas []rules.Meta
	require.NoError(t, json.Unmarshal([]byte(out), &metas))
	assert.Len(t, metas, rules.Builtin().Len())
}

func TestRulesCommandTable(t *testing.T) {
	out, err := executeCmd("rules", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "SOL-REENTRANCY")
	assert.Contains(t, out, fmt.Sprintf("%d rules", rules.Builtin().Len()))
}

func TestRootHelpListsCommands(t *testing.T) {
	out, err := executeCmd("--help")
	require.NoError(t, err)
	for _, name := range []string{"scan", "fix", "watch", "rules", "serve", "tui"} {
		assert.Contains(t, out, name)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchFileReanalyzesOnWrite(t *testing.T) {
	cfg := config.Defaults()
	cfg.Engine.DebounceMs = 20
	cfg.Engine.DetectorBudget = 2 * time.Second
	prevConfig, prevOutput := appConfig, outputFlag
	appConfig, outputFlag = &cfg, "json"
	t.Cleanup(func() { appConfig, outputFlag = prevConfig, prevOutput })

	path := writeContract(t, "Owned.sol", vulnerable)
	out := &syncBuffer{}
	ready := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchFile(ctx, out, path, ready) }()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("watch exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch never became ready")
	}

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "SOL-TX-ORIGIN")
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(clean), 0o644))
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"total": 0`)
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
