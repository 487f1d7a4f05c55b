// Package naming resolves image patterns and owns the per-run naming rules
// shared by the driver, its child stages and the test harness.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/banshee-data/martini/internal/fsutil"
	"github.com/banshee-data/martini/internal/monitoring"
)

const (
	// OrientPrefix names orientation directories: Ori-<name>/.
	OrientPrefix = "Ori-"
	// ScratchPrefix names per-run scratch subtrees.
	ScratchPrefix = "NewOriTmp"
	// QuickSuffix is appended to the scratch subtree name in quick mode.
	QuickSuffix = "Quick"
)

var (
	// ErrNoImages is returned when a pattern matches no file.
	ErrNoImages = errors.New("pattern matches no image")
	// ErrNoOrientation is returned when a calibration orientation directory is missing.
	ErrNoOrientation = errors.New("orientation directory does not exist")
	// ErrBadPattern is returned when the file part of a pattern is not a valid expression.
	ErrBadPattern = errors.New("invalid image pattern")
)

// ImageSet is the ordered, non-empty set of images selected by a pattern.
type ImageSet struct {
	// Pattern is the user pattern, unchanged.
	Pattern string
	// Dir is the working directory, always ending with a separator.
	Dir string
	// FilePattern is the expression matched against file names in Dir.
	FilePattern string
	// Images holds matching file names (not paths), sorted.
	Images []string
}

// SplitDirAndFile splits a pattern into its directory part (ending with "/",
// "./" when absent) and its file part.
func SplitDirAndFile(pattern string) (dir, file string) {
	i := strings.LastIndex(pattern, "/")
	if i < 0 {
		return "./", pattern
	}
	return pattern[:i+1], pattern[i+1:]
}

// ResolvePattern lists the regular files of the pattern's directory whose
// names fully match the file part, interpreted as a regular expression.
func ResolvePattern(fsys fsutil.FileSystem, pattern string) (*ImageSet, error) {
	dir, file := SplitDirAndFile(pattern)
	if file == "" {
		return nil, fmt.Errorf("%w: %q has no file part", ErrBadPattern, pattern)
	}

	re, err := regexp.Compile("^(?:" + file + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadPattern, file, err)
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list working directory %s: %w", dir, err)
	}

	set := &ImageSet{Pattern: pattern, Dir: dir, FilePattern: file}
	for _, e := range entries {
		if e.IsDir() || !re.MatchString(e.Name()) {
			continue
		}
		set.Images = append(set.Images, e.Name())
	}

	if len(set.Images) == 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrNoImages, file, dir)
	}
	return set, nil
}

// NormaliseOrient strips a leading "Ori-" and trailing separators from name
// and checks that Ori-<name>/ exists under dir. An empty name is returned
// unchanged.
func NormaliseOrient(fsys fsutil.FileSystem, name, dir string) (string, error) {
	if name == "" {
		return "", nil
	}

	name = strings.TrimRight(name, "/")
	name = strings.TrimPrefix(name, OrientPrefix)
	if name == "" {
		return "", fmt.Errorf("%w: empty orientation name", ErrNoOrientation)
	}

	oriDir := filepath.Join(dir, OrientDir(name))
	if !fsutil.IsDir(fsys, oriDir) {
		return "", fmt.Errorf("%w: %s", ErrNoOrientation, oriDir)
	}
	return name, nil
}

// OrientDir returns the directory name of orientation name: Ori-<name>/.
func OrientDir(name string) string {
	return OrientPrefix + name + "/"
}

// ScratchDir returns the per-run scratch subtree name:
// NewOriTmp<extName><prefHom><oriCalib>[Quick]/.
func ScratchDir(extName, prefHom, oriCalib string, quick bool) string {
	var b strings.Builder
	b.WriteString(ScratchPrefix)
	b.WriteString(extName)
	b.WriteString(prefHom)
	b.WriteString(oriCalib)
	if quick {
		b.WriteString(QuickSuffix)
	}
	b.WriteString("/")
	return b.String()
}

// Params configures a Manager.
type Params struct {
	ExtName  string
	PrefHom  string
	Quick    bool
	Dir      string
	OriCalib string
	// Format is the persistence extension of generated artifacts ("dat").
	Format string
}

// Manager applies the naming rules of one run and prepares per-image state.
type Manager struct {
	params Params
	fs     fsutil.FileSystem
}

// NewManager creates the run's scratch subtree and returns its Manager.
func NewManager(fsys fsutil.FileSystem, p Params) (*Manager, error) {
	if p.Format == "" {
		return nil, fmt.Errorf("naming manager requires a persistence format")
	}
	if p.Dir == "" {
		p.Dir = "./"
	}

	m := &Manager{params: p, fs: fsys}
	if err := fsys.MkdirAll(m.ScratchPath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory %s: %w", m.ScratchPath(), err)
	}
	return m, nil
}

// Params returns the parameters the manager was built with.
func (m *Manager) Params() Params {
	return m.params
}

// ScratchDir returns the scratch subtree name relative to the working directory.
func (m *Manager) ScratchDir() string {
	return ScratchDir(m.params.ExtName, m.params.PrefHom, m.params.OriCalib, m.params.Quick)
}

// ScratchPath returns the scratch subtree path.
func (m *Manager) ScratchPath() string {
	return filepath.Join(m.params.Dir, m.ScratchDir())
}

// Image is the per-image state prepared before the stages run.
type Image struct {
	Name string
	// Dir is the image's directory inside the scratch subtree.
	Dir string
	// CalibFile is the calibration the stages will read for this image.
	CalibFile string
	// AutoCalib is true when no calibration orientation was given and the
	// stages calibrate the image themselves.
	AutoCalib bool
}

// OneImage prepares the state of a single image. Without a calibration
// orientation it creates an empty AutoCal.<format> placeholder for the
// stages to fill in; an existing file is left as is.
func (m *Manager) OneImage(name string) (*Image, error) {
	img := &Image{
		Name: name,
		Dir:  filepath.Join(m.ScratchPath(), name),
	}
	if err := m.fs.MkdirAll(img.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", img.Dir, err)
	}

	if m.params.OriCalib != "" {
		img.CalibFile = filepath.Join(m.params.Dir, OrientDir(m.params.OriCalib), "Orientation-"+name+".xml")
		if !m.fs.Exists(img.CalibFile) {
			monitoring.Logf("no calibration %s for %s, stages will fall back to the orientation's internal calibration", img.CalibFile, name)
		}
		return img, nil
	}

	img.AutoCalib = true
	img.CalibFile = filepath.Join(img.Dir, "AutoCal."+m.params.Format)
	if m.fs.Exists(img.CalibFile) {
		return img, nil
	}
	if err := m.fs.WriteFile(img.CalibFile, nil, 0644); err != nil {
		return nil, fmt.Errorf("failed to create auto-calibration for %s: %w", name, err)
	}
	return img, nil
}
