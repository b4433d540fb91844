package pdf

import (
	"fmt"
	"os"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
)

// Validator performs the pre-ingestion checks on uploaded form files.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a form file validator with the given size ceiling.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// ValidateFile checks that a path points at a readable, size-bounded PDF.
// Structural damage beyond the header is not an error here; damaged files
// still flow through classification and land as scanned.
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// IsValidPDF reports whether a file passes validation and opens as a PDF.
func (v *Validator) IsValidPDF(filePath string) bool {
	if err := v.ValidateFile(filePath); err != nil {
		return false
	}
	f, _, err := ledongthuc.Open(filePath)
	if err != nil {
		return false
	}
	defer f.Close()
	return true
}
