package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/martini/internal/runlog"
	"github.com/banshee-data/martini/internal/testutil"
)

// seedLedger records one finished driver run in a ledger file under dir.
func seedLedger(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "runs.db")
	l, err := runlog.Open(path)
	require.NoError(t, err)
	defer l.Close()

	id, err := l.StartRun(runlog.RunParams{Kind: runlog.KindDriver, Pattern: "IMG.*JPG", ModeNO: "Std"})
	require.NoError(t, err)
	require.NoError(t, l.RecordStage(id, runlog.StageEvent{Seq: 0, Stage: "NO_AllOri2Im", Command: "mm3d TestLib NO_AllOri2Im", ElapsedSeconds: 2}))
	require.NoError(t, l.FinishRun(id, runlog.StatusSucceeded))
	return path
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "martini.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRun_ConfigFallbacks(t *testing.T) {
	testutil.QuietLogs(t)
	dir := t.TempDir()
	ledger := seedLedger(t, dir)
	reportDir := filepath.Join(dir, "plots")
	cfg := writeConfig(t, dir, `{"ledger_path": "`+ledger+`", "report_dir": "`+reportDir+`"}`)

	var out bytes.Buffer
	require.NoError(t, run([]string{"-config", cfg, "-kind", runlog.KindDriver}, &out))

	assert.FileExists(t, filepath.Join(reportDir, "stages.html"))
	assert.Contains(t, out.String(), "NO_AllOri2Im")
	assert.Contains(t, out.String(), "wrote "+filepath.Join(reportDir, "stages.html"))
}

func TestRun_FlagsOverrideConfig(t *testing.T) {
	testutil.QuietLogs(t)
	dir := t.TempDir()
	ledger := seedLedger(t, dir)
	cfg := writeConfig(t, dir, `{"ledger_path": "`+filepath.Join(dir, "other.db")+`", "report_dir": "`+filepath.Join(dir, "unused")+`"}`)
	outDir := filepath.Join(dir, "flagged")

	var out bytes.Buffer
	require.NoError(t, run([]string{"-config", cfg, "-ledger", ledger, "-out", outDir, "-kind", runlog.KindDriver}, &out))

	assert.FileExists(t, filepath.Join(outDir, "stages.html"))
	assert.NoDirExists(t, filepath.Join(dir, "unused"))
	assert.NoFileExists(t, filepath.Join(dir, "other.db"))
}

func TestRun_Errors(t *testing.T) {
	testutil.QuietLogs(t)
	dir := t.TempDir()
	ledger := seedLedger(t, dir)
	outDir := filepath.Join(dir, "out")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"invalid kind", []string{"-ledger", ledger, "-out", outDir, "-kind", "bogus"}, `invalid -kind "bogus"`},
		{"no ledger", []string{"-out", outDir}, "no ledger"},
		{"out outside cwd and temp", []string{"-ledger", ledger, "-out", "/proc/martini"}, "invalid -out"},
		{"bad config", []string{"-config", filepath.Join(dir, "martini.yaml")}, "load config"},
		{"no harness run", []string{"-ledger", ledger, "-out", outDir}, "report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args, &bytes.Buffer{})
			assert.ErrorContains(t, err, tt.want)
		})
	}
	assert.NoDirExists(t, outDir, "failed runs must not write plots")
}

func TestRun_VersionAndHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-version"}, &out))
	assert.NotEmpty(t, out.String())

	assert.ErrorIs(t, run([]string{"-h"}, &bytes.Buffer{}), flag.ErrHelp)
}
