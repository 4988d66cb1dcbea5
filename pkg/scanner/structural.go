package scanner

import (
	"shadowsafe/pkg/models"
)

// Scanner keys used in ScanResult.Details.
const (
	KeyPDF        = "pdf"
	KeyImage      = "image"
	KeyVideo      = "video"
	KeyArchive    = "archive"
	KeyHeuristics = "heuristics"
	KeyPatterns   = "yara"
)

// StructuralScanner is a format-specific anomaly detector. Implementations
// are best-effort: a malformed container must degrade to partial details, not
// surface a fatal error. An error return only covers unreadable input.
type StructuralScanner interface {
	// Key returns the scanner identifier used in the per-scanner details map.
	Key() string

	// Scan inspects the file and returns structured details about it.
	Scan(path string) (models.ScannerDetails, error)
}

// registry maps scanner keys to their single implementation. The set of
// structural scanners is closed: adding a format means adding a new
// implementation and a ScannersFor mapping, not registering at runtime.
type registry struct {
	scanners map[string]StructuralScanner
}

func newRegistry(scanners ...StructuralScanner) *registry {
	r := &registry{scanners: make(map[string]StructuralScanner, len(scanners))}
	for _, s := range scanners {
		r.scanners[s.Key()] = s
	}
	return r
}

// forKey returns the scanner registered under key, or nil when the detected
// type has no structural scanner.
func (r *registry) forKey(key string) StructuralScanner {
	return r.scanners[key]
}
