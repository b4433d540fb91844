package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines form file access to the configured forms directory.
type PathValidator struct {
	formsDirectory string
}

// NewPathValidator creates a path validator rooted at the given directory.
// The directory does not have to exist yet; it may be created on first
// ingestion.
func NewPathValidator(formsDirectory string) (*PathValidator, error) {
	if formsDirectory == "" {
		return nil, fmt.Errorf("forms directory cannot be empty")
	}
	return &PathValidator{formsDirectory: formsDirectory}, nil
}

// ValidatePath checks that a path resolves inside the forms directory.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if _, err := os.Stat(v.formsDirectory); os.IsNotExist(err) {
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	isWithin, err := v.isPathWithinDirectory(absPath)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !isWithin {
		return fmt.Errorf("path is outside forms directory: %s", path)
	}
	return nil
}

// NormalizePath resolves a possibly relative path against the forms
// directory and validates the result.
func (v *PathValidator) NormalizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.formsDirectory, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := v.ValidatePath(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// FormsDirectory returns the configured root.
func (v *PathValidator) FormsDirectory() string {
	return v.formsDirectory
}

func (v *PathValidator) isPathWithinDirectory(path string) (bool, error) {
	absDir, err := filepath.Abs(v.formsDirectory)
	if err != nil {
		return false, fmt.Errorf("failed to resolve forms directory: %w", err)
	}

	cleanPath := filepath.Clean(path)
	cleanDir := filepath.Clean(absDir)

	// Resolve symlinks on both sides so a link inside the directory cannot
	// escape it.
	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}
	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	within := func(p, dir string) bool {
		if p == dir {
			return true
		}
		if !strings.HasSuffix(dir, string(filepath.Separator)) {
			dir += string(filepath.Separator)
		}
		return strings.HasPrefix(p, dir)
	}

	pathOK := within(cleanPath, cleanDir) || within(cleanPath, realDir)
	realPathOK := within(realPath, cleanDir) || within(realPath, realDir)
	return pathOK && realPathOK, nil
}
