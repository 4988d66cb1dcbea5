package scanner

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"shadowsafe/pkg/models"
)

var (
	jpegEOI    = []byte{0xFF, 0xD9}
	pngIEND    = []byte{'I', 'E', 'N', 'D', 0xAE, 0x42, 0x60, 0x82}
	pngIENDLen = len(pngIEND)
)

// ImageScanner validates image container structure: signature vs extension,
// data appended past the terminal marker, and the EXIF privacy summary.
type ImageScanner struct {
	logger *slog.Logger
}

// NewImageScanner creates an image structural scanner.
func NewImageScanner(logger *slog.Logger) *ImageScanner {
	return &ImageScanner{logger: logger}
}

// Key returns the scanner identifier.
func (s *ImageScanner) Key() string { return KeyImage }

// Scan inspects the image at path. Undecodable images degrade to
// format "unknown" with the remaining byte-level checks still applied.
func (s *ImageScanner) Scan(path string) (models.ScannerDetails, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}

	var notes []string

	format, width, height := decodeImageHeader(path)
	if format == "" {
		s.logger.Debug("image signature not recognized", slog.String("path", path))
		format = "unknown"
	}

	ext := normalizeImageExt(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if format != "unknown" && ext != "" && format != ext {
		notes = append(notes, fmt.Sprintf("extension .%s differs from detected %s", ext, format))
	}

	appended, err := hasAppendedImageData(path, format)
	if err != nil {
		return nil, err
	}
	if appended {
		notes = append(notes, "file has unexpected data after the image trailer")
	}

	exifSummary := imageExifSummary(path)

	return models.ScannerDetails{
		"detected_format":   format,
		"width":             width,
		"height":            height,
		"has_exif":          exifSummary["exif_present"],
		"gps_present":       exifSummary["gps_present"],
		"camera_model":      exifSummary["camera_model"],
		"has_appended_data": appended,
		"notes":             notes,
	}, nil
}

// decodeImageHeader sniffs the image format and dimensions without decoding
// pixel data. Failure yields an empty format.
func decodeImageHeader(path string) (format string, width, height int) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, 0
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return "", 0, 0
	}
	return format, cfg.Width, cfg.Height
}

// hasAppendedImageData reports whether bytes follow the expected terminal
// marker: the EOI marker for JPEG, the IEND chunk plus CRC for PNG. Other
// formats have no reliable terminal marker and report false.
func hasAppendedImageData(path, format string) (bool, error) {
	if format != "jpeg" && format != "png" {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading image: %w", err)
	}

	switch format {
	case "jpeg":
		end := bytes.LastIndex(data, jpegEOI)
		return end != -1 && end < len(data)-len(jpegEOI), nil
	case "png":
		end := bytes.LastIndex(data, pngIEND)
		return end != -1 && end+pngIENDLen < len(data), nil
	}
	return false, nil
}

// normalizeImageExt maps extension spellings onto Go's decoder format names.
func normalizeImageExt(ext string) string {
	switch ext {
	case "jpg", "jpe":
		return "jpeg"
	case "tif":
		return "tiff"
	default:
		return ext
	}
}
