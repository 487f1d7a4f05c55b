package naming

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/martini/internal/fsutil"
	"github.com/banshee-data/martini/internal/testutil"
)

func TestSplitDirAndFile(t *testing.T) {
	tests := []struct {
		in, dir, file string
	}{
		{"IMG.*JPG", "./", "IMG.*JPG"},
		{"data/IMG.*JPG", "data/", "IMG.*JPG"},
		{"/abs/path/IMGP70.*JPG", "/abs/path/", "IMGP70.*JPG"},
		{"data/", "data/", ""},
	}
	for _, tt := range tests {
		dir, file := SplitDirAndFile(tt.in)
		if dir != tt.dir || file != tt.file {
			t.Errorf("SplitDirAndFile(%q) = (%q, %q), want (%q, %q)", tt.in, dir, file, tt.dir, tt.file)
		}
	}
}

func TestResolvePattern(t *testing.T) {
	mfs := testutil.NewImageFS(t, ".", "IMG_0002.JPG", "IMG_0001.JPG", "IMG_0001.JPG.xml", "other.JPG")
	if err := mfs.MkdirAll("IMG_DIR.JPG", 0755); err != nil {
		t.Fatal(err)
	}

	set, err := ResolvePattern(mfs, "IMG.*JPG")
	if err != nil {
		t.Fatalf("ResolvePattern failed: %v", err)
	}

	want := &ImageSet{
		Pattern:     "IMG.*JPG",
		Dir:         "./",
		FilePattern: "IMG.*JPG",
		Images:      []string{"IMG_0001.JPG", "IMG_0002.JPG"},
	}
	if diff := cmp.Diff(want, set); diff != "" {
		t.Errorf("ResolvePattern mismatch (-want +got):\n%s", diff)
	}
}

func TestResolvePattern_Subdirectory(t *testing.T) {
	mfs := testutil.NewImageFS(t, "chantier", "P1.tif", "P2.tif")

	set, err := ResolvePattern(mfs, "chantier/P[0-9].tif")
	if err != nil {
		t.Fatalf("ResolvePattern failed: %v", err)
	}
	if set.Dir != "chantier/" {
		t.Errorf("Dir = %q, want chantier/", set.Dir)
	}
	if len(set.Images) != 2 {
		t.Errorf("expected 2 images, got %v", set.Images)
	}
}

func TestResolvePattern_Errors(t *testing.T) {
	mfs := testutil.NewImageFS(t, ".", "IMG_0001.JPG")

	tests := []struct {
		pattern string
		want    error
	}{
		{"DSC.*JPG", ErrNoImages},
		{"IMG_(.*JPG", ErrBadPattern},
		{"./", ErrBadPattern},
	}
	for _, tt := range tests {
		_, err := ResolvePattern(mfs, tt.pattern)
		if !errors.Is(err, tt.want) {
			t.Errorf("ResolvePattern(%q) error = %v, want %v", tt.pattern, err, tt.want)
		}
	}

	if _, err := ResolvePattern(mfs, "missing/IMG.*JPG"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestNormaliseOrient(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	if err := mfs.MkdirAll("work/Ori-AllRel", 0755); err != nil {
		t.Fatal(err)
	}

	for _, in := range []string{"AllRel", "Ori-AllRel", "Ori-AllRel/", "AllRel/"} {
		got, err := NormaliseOrient(mfs, in, "work/")
		if err != nil {
			t.Errorf("NormaliseOrient(%q) failed: %v", in, err)
			continue
		}
		if got != "AllRel" {
			t.Errorf("NormaliseOrient(%q) = %q, want AllRel", in, got)
		}
	}

	if got, err := NormaliseOrient(mfs, "", "work/"); err != nil || got != "" {
		t.Errorf("NormaliseOrient(\"\") = %q, %v; want empty, nil", got, err)
	}

	for _, in := range []string{"Missing", "Ori-"} {
		if _, err := NormaliseOrient(mfs, in, "work/"); !errors.Is(err, ErrNoOrientation) {
			t.Errorf("NormaliseOrient(%q) error = %v, want ErrNoOrientation", in, err)
		}
	}
}

func TestScratchDir(t *testing.T) {
	tests := []struct {
		ext, pref, calib string
		quick            bool
		want             string
	}{
		{"", "", "", true, "NewOriTmpQuick/"},
		{"", "", "", false, "NewOriTmp/"},
		{"TM", "TestMartini", "C", true, "NewOriTmpTMTestMartiniCQuick/"},
		{"E", "H", "AllRel", false, "NewOriTmpEHAllRel/"},
	}
	for _, tt := range tests {
		if got := ScratchDir(tt.ext, tt.pref, tt.calib, tt.quick); got != tt.want {
			t.Errorf("ScratchDir(%q,%q,%q,%v) = %q, want %q", tt.ext, tt.pref, tt.calib, tt.quick, got, tt.want)
		}
	}
}

func TestManager_AutoCalibration(t *testing.T) {
	mfs := testutil.NewImageFS(t, "work", "IMG_1.JPG")

	m, err := NewManager(mfs, Params{ExtName: "E", PrefHom: "H", Quick: true, Dir: "work/", Format: "dat"})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if m.ScratchDir() != "NewOriTmpEHQuick/" {
		t.Errorf("ScratchDir() = %q", m.ScratchDir())
	}
	if !fsutil.IsDir(mfs, "work/NewOriTmpEHQuick") {
		t.Error("expected scratch directory to be created")
	}

	img, err := m.OneImage("IMG_1.JPG")
	if err != nil {
		t.Fatalf("OneImage failed: %v", err)
	}
	if !img.AutoCalib {
		t.Error("expected auto-calibration without OriCalib")
	}
	if img.CalibFile != "work/NewOriTmpEHQuick/IMG_1.JPG/AutoCal.dat" {
		t.Errorf("CalibFile = %q", img.CalibFile)
	}
	data, err := mfs.ReadFile(img.CalibFile)
	if err != nil {
		t.Fatalf("auto-calibration not written: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("auto-calibration placeholder should be empty, got %q", data)
	}

	// existing artifacts are left untouched
	if err := mfs.WriteFile(img.CalibFile, []byte("computed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.OneImage("IMG_1.JPG"); err != nil {
		t.Fatalf("second OneImage failed: %v", err)
	}
	again, _ := mfs.ReadFile(img.CalibFile)
	if string(again) != "computed" || string(data) == "computed" {
		t.Errorf("existing calibration was overwritten: %q", again)
	}
}

func TestManager_OrientationCalibration(t *testing.T) {
	logged := testutil.CaptureLogs(t)

	mfs := testutil.NewImageFS(t, ".", "IMG_1.JPG", "IMG_2.JPG")
	if err := mfs.WriteFile("Ori-AllRel/Orientation-IMG_1.JPG.xml", nil, 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(mfs, Params{OriCalib: "AllRel", Quick: false, Format: "dat"})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if m.ScratchDir() != "NewOriTmpAllRel/" {
		t.Errorf("ScratchDir() = %q", m.ScratchDir())
	}

	img, err := m.OneImage("IMG_1.JPG")
	if err != nil {
		t.Fatalf("OneImage failed: %v", err)
	}
	if img.AutoCalib {
		t.Error("expected orientation calibration")
	}
	if img.CalibFile != "Ori-AllRel/Orientation-IMG_1.JPG.xml" {
		t.Errorf("CalibFile = %q", img.CalibFile)
	}
	if len(*logged) != 0 {
		t.Errorf("unexpected log for present calibration: %v", *logged)
	}

	if _, err := m.OneImage("IMG_2.JPG"); err != nil {
		t.Fatalf("OneImage failed: %v", err)
	}
	if len(*logged) != 1 {
		t.Errorf("expected one log line for missing calibration, got %d", len(*logged))
	}
	if mfs.Exists("NewOriTmpAllRel/IMG_2.JPG/AutoCal.dat") {
		t.Error("auto-calibration must not be written when OriCalib is set")
	}
}

func TestNewManager_RequiresFormat(t *testing.T) {
	if _, err := NewManager(fsutil.NewMemoryFileSystem(), Params{}); err == nil {
		t.Error("expected error without format")
	}
}
