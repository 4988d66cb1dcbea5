package scanner

import (
	"archive/zip"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/richardlehane/mscfb"

	"shadowsafe/pkg/models"
)

// maxListedEntries caps how many archive entry names are carried into the
// scanner details.
const maxListedEntries = 15

// executableExtensions are entry suffixes that make an archive red-flagged.
var executableExtensions = []string{".exe", ".dll", ".scr", ".bat", ".com", ".ps1", ".js"}

// ArchiveScanner inspects ZIP-family containers (zip, OOXML, APK) for
// executable entries, macro payloads and anomalous compression ratios, and
// legacy OLE containers (.doc/.xls) for VBA macro streams.
type ArchiveScanner struct {
	logger *slog.Logger
}

// NewArchiveScanner creates an archive structural scanner.
func NewArchiveScanner(logger *slog.Logger) *ArchiveScanner {
	return &ArchiveScanner{logger: logger}
}

// Key returns the scanner identifier.
func (s *ArchiveScanner) Key() string { return KeyArchive }

// Scan inspects the archive at path. Unsupported or unreadable containers
// degrade to a noted, empty result.
func (s *ArchiveScanner) Scan(path string) (models.ScannerDetails, error) {
	details := models.ScannerDetails{
		"file_list":         []string{},
		"has_executables":   false,
		"has_macros":        false,
		"compression_ratio": 0.0,
	}

	if zr, err := zip.OpenReader(path); err == nil {
		defer zr.Close()
		s.scanZip(zr, details)
		return details, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".doc", ".xls":
		s.scanOLE(path, details)
	default:
		details["notes"] = "unsupported archive format"
	}
	return details, nil
}

func (s *ArchiveScanner) scanZip(zr *zip.ReadCloser, details models.ScannerDetails) {
	var (
		names           []string
		hasExecutables  bool
		hasMacros       bool
		totalSize       uint64
		totalCompressed uint64
	)
	for _, entry := range zr.File {
		names = append(names, entry.Name)
		if isExecutableEntry(entry.Name) {
			hasExecutables = true
		}
		if strings.Contains(entry.Name, "vbaProject.bin") {
			hasMacros = true
		}
		totalSize += entry.UncompressedSize64
		totalCompressed += entry.CompressedSize64
	}

	// Floor both sides at 1 so empty or stored archives cannot divide by zero.
	if totalSize == 0 {
		totalSize = 1
	}
	if totalCompressed == 0 {
		totalCompressed = 1
	}

	if len(names) > maxListedEntries {
		names = names[:maxListedEntries]
	}
	details["file_list"] = names
	details["has_executables"] = hasExecutables
	details["has_macros"] = hasMacros
	details["compression_ratio"] = math.Round(float64(totalSize)/float64(totalCompressed)*100) / 100
}

// scanOLE looks for VBA macro streams in a legacy compound file. When the
// container cannot be parsed the result degrades to "unsupported" rather
// than failing the scan.
func (s *ArchiveScanner) scanOLE(path string, details models.ScannerDetails) {
	details["compression_ratio"] = 1.0

	f, err := os.Open(path)
	if err != nil {
		details["macro_support"] = "unsupported"
		details["notes"] = "legacy document could not be opened"
		return
	}
	defer f.Close()

	doc, err := mscfb.New(f)
	if err != nil {
		s.logger.Debug("ole parse failed", slog.String("path", path), slog.Any("error", err))
		details["macro_support"] = "unsupported"
		details["notes"] = "legacy document could not be parsed"
		return
	}

	var streams []string
	hasMacros := false
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		qualified := strings.Join(append(entry.Path, entry.Name), "/")
		if len(streams) < maxListedEntries {
			streams = append(streams, qualified)
		}
		if isMacroStream(entry.Name, entry.Path) {
			hasMacros = true
		}
	}
	details["file_list"] = streams
	details["has_macros"] = hasMacros
}

func isExecutableEntry(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range executableExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func isMacroStream(name string, path []string) bool {
	markers := append([]string{name}, path...)
	for _, m := range markers {
		switch m {
		case "Macros", "VBA", "_VBA_PROJECT":
			return true
		}
	}
	return false
}
