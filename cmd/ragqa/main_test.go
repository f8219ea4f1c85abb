package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/log"
)

// runSetup runs setup for cmd with stderr redirected to a file and returns
// what was logged afterwards.
func runSetup(t *testing.T, cmd *cobra.Command) string {
	t.Helper()
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("corpus: {type: static}\nlog: {level: info}\n"), 0o644))

	prevPath, prevStderr := cfgPath, os.Stderr
	stderr, err := os.Create(filepath.Join(dir, "stderr"))
	require.NoError(t, err)
	cfgPath, os.Stderr = cfgFile, stderr
	defer func() {
		cfgPath, os.Stderr = prevPath, prevStderr
		flushLog = func() {}
		log.Discard()
	}()

	require.NoError(t, setup(cmd, nil))
	log.Info("setup done")
	flushLog()
	require.NoError(t, stderr.Close())

	data, err := os.ReadFile(stderr.Name())
	require.NoError(t, err)
	return string(data)
}

func TestSetup_TerminalUIKeepsStderrClean(t *testing.T) {
	assert.Empty(t, runSetup(t, rootCmd))
	assert.Empty(t, runSetup(t, tuiCmd))
}

func TestSetup_SubcommandsLogToStderr(t *testing.T) {
	assert.Contains(t, runSetup(t, askCmd), "setup done")
}
