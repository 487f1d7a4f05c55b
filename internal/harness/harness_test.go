package harness

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/martini/internal/args"
	"github.com/banshee-data/martini/internal/fsutil"
	"github.com/banshee-data/martini/internal/runlog"
	"github.com/banshee-data/martini/internal/security"
	"github.com/banshee-data/martini/internal/system"
	"github.com/banshee-data/martini/internal/testutil"
)

func TestParse(t *testing.T) {
	p, err := Parse([]string{"IMG.*JPG", "OriCalib=C", "K0=2"})
	require.NoError(t, err)

	assert.Equal(t, "IMG.*JPG", p.Pattern)
	assert.Equal(t, "C", p.OriCalib)
	assert.Equal(t, 2, p.K0)
	assert.Equal(t, "TestMartini", p.ExtHom)
	assert.Equal(t, "mm3d", p.Bin)
	assert.Zero(t, p.NbIter)
}

func TestParse_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "martini.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ext_hom": "Fuzz", "toolkit_bin": "mm3d-dev"}`), 0644))

	p, err := Parse([]string{"IMG.*JPG", "Config=" + path, "Seed=9"})
	require.NoError(t, err)
	assert.Equal(t, "Fuzz", p.ExtHom)
	assert.Equal(t, "mm3d-dev", p.Bin)
	assert.Equal(t, int64(9), p.Seed)
	assert.Equal(t, "NewOriTmpTMFuzzQuick/", PurgeDir(p))
}

func TestParse_Errors(t *testing.T) {
	for _, argv := range [][]string{
		nil,
		{"IMG.*JPG", "K0=-1"},
		{"IMG.*JPG", "K0=two"},
		{"IMG.*JPG", "NbIter=-3"},
		{"IMG.*JPG", "Exe=0"},
	} {
		_, err := Parse(argv)
		assert.ErrorIs(t, err, args.ErrUsage, "argv %v", argv)
	}
}

func TestCommands(t *testing.T) {
	p := &Params{Pattern: "IMG.*JPG", OriCalib: "C", ExtHom: "TestMartini", Bin: "mm3d"}
	it := Iteration{K: 3, Dist: 500, MVG: 1.5, ProbaSel: 0.125}

	assert.Equal(t,
		"mm3d Ratafia IMG.*JPG Out=TestMartini DistPMul=500 MVG=1.5 OriCalib=C ProbaSel=0.125",
		RatafiaCommand(p, it))
	assert.Equal(t,
		"mm3d Martini IMG.*JPG ExtName=TM SH=TestMartini OriCalib=C",
		MartiniCommand(p))
	assert.Equal(t, "NewOriTmpTMTestMartiniCQuick/", PurgeDir(p))

	p.OriCalib = ""
	assert.Equal(t, "NewOriTmpTMTestMartiniQuick/", PurgeDir(p))
	assert.True(t, strings.HasSuffix(MartiniCommand(p), " OriCalib="))
}

func TestRun_K0Gating(t *testing.T) {
	testutil.QuietLogs(t)

	mfs := fsutil.NewMemoryFileSystem()
	const scratch = "NewOriTmpTMTestMartiniCQuick"
	builder := system.NewMockCommandBuilder()
	builder.ExecutorFactory = func(line string) *system.MockCommandExecutor {
		if strings.Contains(line, " Martini ") {
			// the driver run leaves its scratch subtree behind
			require.NoError(t, mfs.WriteFile(scratch+"/IMG_1.JPG/AutoCal.dat", nil, 0644))
		}
		return &system.MockCommandExecutor{}
	}

	var out bytes.Buffer
	require.NoError(t, mfs.WriteFile(scratch+"/stale.dat", nil, 0644))
	opts := Options{
		Stdout:  &out,
		FS:      mfs,
		Builder: builder,
		Source:  &fixedSource{vals: []float64{0.5}},
	}

	code := Main(context.Background(), []string{"IMG.*JPG", "OriCalib=C", "K0=2", "NbIter=3"}, opts)
	require.Equal(t, 0, code)

	rat := "mm3d Ratafia IMG.*JPG Out=TestMartini DistPMul=500 MVG=1.5 OriCalib=C ProbaSel=0.75"
	want := "RAAT " + rat + "\n" +
		"0 Purge=[NewOriTmpTMTestMartiniCQuick/]\n" +
		"RAAT " + rat + "\n" +
		"1 Purge=[NewOriTmpTMTestMartiniCQuick/]\n" +
		"RAAT " + rat + "\n" +
		"2 Purge=[NewOriTmpTMTestMartiniCQuick/]\n"
	assert.Equal(t, want, out.String())

	assert.Equal(t, []string{rat, "mm3d Martini IMG.*JPG ExtName=TM SH=TestMartini OriCalib=C"}, builder.Commands)
	assert.False(t, mfs.Exists(scratch), "scratch subtree must be purged after an executed iteration")
}

func TestStep_BeforeK0LeavesScratch(t *testing.T) {
	testutil.QuietLogs(t)

	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("data/NewOriTmpTMTestMartiniQuick/x.dat", nil, 0644))
	builder := system.NewMockCommandBuilder()
	var out bytes.Buffer

	p := &Params{Pattern: "data/IMG.*JPG", K0: 5, ExtHom: "TestMartini", Bin: "mm3d"}
	r := NewRunner(p, Options{Stdout: &out, FS: mfs, Builder: builder, Source: &fixedSource{vals: []float64{0}}})

	require.NoError(t, r.Step(context.Background(), Iteration{K: 4}))
	assert.Empty(t, builder.Commands)
	assert.True(t, mfs.Exists("data/NewOriTmpTMTestMartiniQuick/x.dat"))
	assert.Contains(t, out.String(), "4 Purge=[NewOriTmpTMTestMartiniQuick/]")

	require.NoError(t, r.Step(context.Background(), Iteration{K: 5}))
	assert.Len(t, builder.Commands, 2)
	assert.False(t, mfs.Exists("data/NewOriTmpTMTestMartiniQuick"), "purge happens in the pattern's directory")
}

func TestStep_ChildFailuresStillPurge(t *testing.T) {
	testutil.QuietLogs(t)

	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("NewOriTmpTMTestMartiniQuick/x.dat", nil, 0644))
	builder := system.NewMockCommandBuilder()
	builder.ExecutorFactory = func(string) *system.MockCommandExecutor {
		return &system.MockCommandExecutor{Err: errors.New("exit status 1")}
	}

	p := &Params{Pattern: "IMG.*JPG", ExtHom: "TestMartini", Bin: "mm3d"}
	r := NewRunner(p, Options{Stdout: &bytes.Buffer{}, FS: mfs, Builder: builder})

	require.NoError(t, r.Step(context.Background(), Iteration{K: 0}))
	assert.Len(t, builder.Commands, 2, "Martini runs even when Ratafia fails")
	assert.False(t, mfs.Exists("NewOriTmpTMTestMartiniQuick"))
}

type failingRemoveFS struct {
	*fsutil.MemoryFileSystem
}

func (failingRemoveFS) RemoveAll(string) error {
	return errors.New("permission denied")
}

func TestRun_PurgeFailureStops(t *testing.T) {
	testutil.QuietLogs(t)

	builder := system.NewMockCommandBuilder()
	opts := Options{
		Stdout:  &bytes.Buffer{},
		FS:      failingRemoveFS{fsutil.NewMemoryFileSystem()},
		Builder: builder,
		Source:  &fixedSource{vals: []float64{0.3}},
	}

	code := Main(context.Background(), []string{"IMG.*JPG"}, opts)
	assert.Equal(t, 1, code)
	assert.Len(t, builder.Commands, 2)
}

func TestRun_CancelStops(t *testing.T) {
	testutil.QuietLogs(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builder := system.NewMockCommandBuilder()
	builder.ExecutorFactory = func(string) *system.MockCommandExecutor {
		if len(builder.Commands) == 4 {
			cancel()
		}
		return &system.MockCommandExecutor{}
	}

	var out bytes.Buffer
	p := &Params{Pattern: "IMG.*JPG", ExtHom: "TestMartini", Bin: "mm3d"}
	r := NewRunner(p, Options{Stdout: &out, FS: fsutil.NewMemoryFileSystem(), Builder: builder, Source: NewSource(1)})

	require.NoError(t, r.Run(ctx))
	assert.Len(t, builder.Commands, 4)
	assert.Contains(t, out.String(), "0 Purge=")
	assert.NotContains(t, out.String(), "1 Purge=", "an interrupted iteration is not completed")
}

func TestRun_RecordsLedger(t *testing.T) {
	testutil.QuietLogs(t)

	ledger, err := runlog.Open(":memory:")
	require.NoError(t, err)
	defer ledger.Close()

	opts := Options{
		Stdout:  &bytes.Buffer{},
		FS:      fsutil.NewMemoryFileSystem(),
		Builder: system.NewMockCommandBuilder(),
		Source:  NewSource(3),
		Ledger:  ledger,
	}
	code := Main(context.Background(), []string{"IMG.*JPG", "K0=1", "NbIter=4"}, opts)
	require.Equal(t, 0, code)

	run, err := ledger.LatestRun(runlog.KindHarness)
	require.NoError(t, err)
	assert.Equal(t, runlog.StatusSucceeded, run.Status)
	assert.Equal(t, "TestMartini", run.PrefHom)

	iters, err := ledger.Iterations(run.RunID)
	require.NoError(t, err)
	require.Len(t, iters, 4)
	assert.False(t, iters[0].Executed)
	for _, rec := range iters[1:] {
		assert.True(t, rec.Executed)
		assert.Equal(t, "NewOriTmpTMTestMartiniQuick/", rec.PurgeDir)
	}
}

func TestStep_RefusesPurgeOutsideWorkingDir(t *testing.T) {
	testutil.QuietLogs(t)

	builder := system.NewMockCommandBuilder()
	p := &Params{Pattern: "IMG.*JPG", OriCalib: "/../../../elsewhere", ExtHom: "TestMartini", Bin: "mm3d"}
	r := NewRunner(p, Options{Stdout: &bytes.Buffer{}, FS: fsutil.NewMemoryFileSystem(), Builder: builder})

	err := r.Step(context.Background(), Iteration{K: 0})
	assert.ErrorIs(t, err, security.ErrPathEscape)
}
