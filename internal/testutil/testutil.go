// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/banshee-data/martini/internal/fsutil"
	"github.com/banshee-data/martini/internal/monitoring"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// QuietLogs mutes monitoring.Logf for the duration of the test.
func QuietLogs(t testing.TB) {
	t.Helper()
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.Logf = original })
	monitoring.SetLogger(nil)
}

// CaptureLogs redirects monitoring.Logf into the returned slice, one
// formatted line per call, for the duration of the test.
func CaptureLogs(t testing.TB) *[]string {
	t.Helper()
	var lines []string
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.Logf = original })
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

// NewImageFS returns an in-memory filesystem holding placeholder images
// named names under dir.
func NewImageFS(t testing.TB, dir string, names ...string) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	for _, n := range names {
		AssertNoError(t, mfs.WriteFile(filepath.Join(dir, n), []byte("jpeg"), 0644))
	}
	return mfs
}
