package scanner

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/rwcarlsen/goexif/exif"
)

// ExtractMetadata derives privacy-relevant metadata for the file. Only image
// and audio types carry extractable metadata today; every other type yields
// the base fields. Parser failures on malformed containers are swallowed and
// reported as "unknown" values: metadata extraction never aborts a scan.
func (s *Scanner) ExtractMetadata(path, detectedType string) map[string]string {
	metadata := make(map[string]string)

	switch {
	case strings.HasPrefix(detectedType, "image/"):
		for k, v := range imageExifSummary(path) {
			metadata[k] = v
		}
	case strings.HasPrefix(detectedType, "audio/"):
		for k, v := range s.audioMetadata(path) {
			metadata[k] = v
		}
	}

	metadata["collected_at_utc"] = time.Now().UTC().Format(time.RFC3339)
	if info, err := os.Stat(path); err == nil {
		metadata["file_size_bytes"] = fmt.Sprintf("%d", info.Size())
	}
	metadata["mime"] = detectedType
	return metadata
}

// SummarizeMetadata reduces verbose metadata to the fixed report fields, plus
// any audio fields that were found.
func SummarizeMetadata(metadata map[string]string) map[string]string {
	summary := map[string]string{
		"exif_present": valueOr(metadata, "exif_present", "unknown"),
		"gps_present":  valueOr(metadata, "gps_present", "unknown"),
		"camera_model": valueOr(metadata, "camera_model", "unknown"),
	}
	for _, key := range []string{"artist", "title", "duration_seconds", "bitrate"} {
		if v, ok := metadata[key]; ok {
			summary[key] = v
		}
	}
	return summary
}

// imageExifSummary reports EXIF presence, GPS presence and camera model.
// Any decode failure (missing or corrupt EXIF alike) leaves the defaults.
func imageExifSummary(path string) map[string]string {
	summary := map[string]string{
		"exif_present": "no",
		"gps_present":  "no",
		"camera_model": "unknown",
	}

	f, err := os.Open(path)
	if err != nil {
		return summary
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil || x == nil {
		return summary
	}
	summary["exif_present"] = "yes"

	if _, _, err := x.LatLong(); err == nil {
		summary["gps_present"] = "yes"
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil && model != "" {
			summary["camera_model"] = model
		}
	}
	return summary
}

// audioMetadata extracts artist/title tags, and duration/bitrate when the
// external prober is available.
func (s *Scanner) audioMetadata(path string) map[string]string {
	metadata := make(map[string]string)

	f, err := os.Open(path)
	if err != nil {
		return metadata
	}
	defer f.Close()

	if m, err := tag.ReadFrom(f); err == nil {
		if artist := m.Artist(); artist != "" {
			metadata["artist"] = artist
		}
		if title := m.Title(); title != "" {
			metadata["title"] = title
		}
	}

	if s.prober != nil {
		report, err := s.prober.Probe(path)
		if err != nil {
			s.logger.Debug("audio probe failed", slog.String("path", path), slog.Any("error", err))
			return metadata
		}
		if report.Duration != "" {
			metadata["duration_seconds"] = report.Duration
		}
		if report.Bitrate != "" {
			metadata["bitrate"] = report.Bitrate
		}
	}
	return metadata
}

func valueOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return fallback
}
