package scanner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sanitizer produces a cleaned copy of a supported file. Sanitization is an
// orthogonal post-step: it never alters scan findings, only the
// sanitized-output descriptor of the result.
type Sanitizer interface {
	// CanSanitize reports whether the detected type is supported.
	CanSanitize(detectedType string) bool

	// Sanitize writes the cleaned copy and returns its path.
	Sanitize(path, detectedType string) (string, error)
}

// CopySanitizer duplicates the file under a "-sanitized" name.
//
// TODO: replace the byte copy with real metadata stripping (EXIF removal for
// images, object-graph rewrite for PDFs) once the output contract for
// re-encoded files is settled.
type CopySanitizer struct{}

// CanSanitize supports images and PDFs.
func (CopySanitizer) CanSanitize(detectedType string) bool {
	return strings.HasPrefix(detectedType, "image/") || detectedType == "application/pdf"
}

// Sanitize copies the file next to the original with a "-sanitized" suffix.
func (CopySanitizer) Sanitize(path, detectedType string) (string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	target := filepath.Join(filepath.Dir(path), stem+"-sanitized"+ext)

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file for sanitization: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("creating sanitized copy: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("writing sanitized copy: %w", err)
	}
	return target, nil
}
