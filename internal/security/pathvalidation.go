// Package security guards the paths the tools delete or write to.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a path resolves outside its allowed directory.
var ErrPathEscape = errors.New("path escapes allowed directory")

// ValidatePathWithinDirectory checks that filePath stays inside safeDir.
// The check is lexical first, so it holds for paths that do not exist yet;
// existing symlinks on either side are then resolved and checked again.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	if !within(absPath, absSafeDir) {
		return fmt.Errorf("%w: %s is outside %s", ErrPathEscape, filePath, safeDir)
	}

	canonicalSafeDir := resolveExisting(absSafeDir)
	if !within(resolveExisting(absPath), canonicalSafeDir) {
		return fmt.Errorf("%w: %s resolves outside %s", ErrPathEscape, filePath, safeDir)
	}
	return nil
}

// within reports whether path is dir or below it. Both must be absolute and clean.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// resolveExisting resolves symlinks in the longest existing prefix of path
// and re-appends the missing components.
func resolveExisting(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	for check := path; ; {
		parent := filepath.Dir(check)
		if parent == check {
			return path
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, _ := filepath.Rel(parent, path)
			return filepath.Join(resolved, rel)
		}
		check = parent
	}
}

// ValidatePathWithinAllowedDirs checks that filePath is inside at least one of allowedDirs.
func ValidatePathWithinAllowedDirs(filePath string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return fmt.Errorf("no allowed directories specified")
	}
	for _, dir := range allowedDirs {
		if err := ValidatePathWithinDirectory(filePath, dir); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be within one of %v", ErrPathEscape, filePath, allowedDirs)
}

// ValidateOutputDir checks that a report output directory lies in the
// current working directory or the temp directory.
func ValidateOutputDir(dir string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	return ValidatePathWithinAllowedDirs(dir, []string{cwd, os.TempDir()})
}
