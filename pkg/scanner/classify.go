package scanner

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// OctetStream is the detected type for files nothing else recognizes.
// An unrecognized file is a valid, reportable state, not an error.
const OctetStream = "application/octet-stream"

// archiveTypes are the container types routed to the archive scanner.
var archiveTypes = map[string]bool{
	"application/zip": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.android.package-archive":                                 true,
	"application/msword":                                                      true,
	"application/vnd.ms-excel":                                                true,
	"application/x-ole-storage":                                               true,
}

// DetectType returns a MIME-like type label for the file. Resolution order:
// a caller-supplied hint is trusted verbatim, then the filename extension,
// then a magic-byte signature probe, and finally application/octet-stream.
func DetectType(path, mimeHint string) string {
	if mimeHint != "" {
		return mimeHint
	}

	if ext := filepath.Ext(path); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			if i := strings.IndexByte(byExt, ';'); i >= 0 {
				byExt = strings.TrimSpace(byExt[:i])
			}
			return byExt
		}
	}

	if mt, err := mimetype.DetectFile(path); err == nil {
		return mt.String()
	}

	return OctetStream
}

// ScannersFor translates a detected type into the structural scanner keys
// that should run for it. Most types map to zero or one scanner; entropy and
// pattern checks always run regardless.
func ScannersFor(detectedType string) []string {
	switch {
	case strings.HasPrefix(detectedType, "image/"):
		return []string{KeyImage}
	case strings.HasPrefix(detectedType, "video/"):
		return []string{KeyVideo}
	case detectedType == "application/pdf":
		return []string{KeyPDF}
	case archiveTypes[detectedType]:
		return []string{KeyArchive}
	}
	return nil
}

// ExtensionMismatch compares the canonical extension for the detected type
// against the file's actual extension. A mismatch is reported as a top-level
// note; it never contributes to the issue list or the risk score.
func ExtensionMismatch(path, detectedType string) string {
	mt := mimetype.Lookup(detectedType)
	if mt == nil {
		return ""
	}
	guessed := strings.ToLower(mt.Extension())
	actual := strings.ToLower(filepath.Ext(path))
	if guessed == "" || actual == "" || guessed == actual {
		return ""
	}
	return fmt.Sprintf("expected %s, got %s", guessed, actual)
}
