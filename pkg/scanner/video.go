package scanner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"shadowsafe/pkg/models"
)

// Prober inspects container/stream metadata with an external tool.
// Implementations are optional capabilities: when no prober is wired in, or
// the probe fails, scans proceed with empty probe details.
type Prober interface {
	Probe(path string) (ProbeReport, error)
}

// ProbeReport is the container/stream summary returned by a Prober.
type ProbeReport struct {
	Duration string       `json:"duration,omitempty"`
	Bitrate  string       `json:"bitrate,omitempty"`
	Streams  []StreamInfo `json:"streams,omitempty"`
}

// StreamInfo describes one media stream.
type StreamInfo struct {
	Codec  string `json:"codec,omitempty"`
	Type   string `json:"type,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// FFProbe shells out to ffprobe for stream metadata.
type FFProbe struct {
	bin string
}

// NewFFProbe returns an ffprobe-backed Prober, or nil when the binary is not
// on PATH. A nil Prober is a valid state for the scanner.
func NewFFProbe() *FFProbe {
	bin, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil
	}
	return &FFProbe{bin: bin}
}

// Probe runs ffprobe and parses its JSON output.
func (p *FFProbe) Probe(path string) (ProbeReport, error) {
	out, err := exec.Command(p.bin,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	).Output()
	if err != nil {
		return ProbeReport{}, fmt.Errorf("running ffprobe: %w", err)
	}

	var raw struct {
		Format struct {
			Duration string `json:"duration"`
			BitRate  string `json:"bit_rate"`
		} `json:"format"`
		Streams []struct {
			CodecName string `json:"codec_name"`
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return ProbeReport{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	report := ProbeReport{
		Duration: raw.Format.Duration,
		Bitrate:  raw.Format.BitRate,
	}
	for _, s := range raw.Streams {
		report.Streams = append(report.Streams, StreamInfo{
			Codec:  s.CodecName,
			Type:   s.CodecType,
			Width:  s.Width,
			Height: s.Height,
		})
	}
	return report, nil
}

// VideoScanner performs container sanity checks for MP4/MOV-family files: an
// ftyp atom near the start, expected trailing atoms at the end, and optional
// stream details from the prober.
type VideoScanner struct {
	prober Prober
	logger *slog.Logger
}

// NewVideoScanner creates a video structural scanner. prober may be nil.
func NewVideoScanner(prober Prober, logger *slog.Logger) *VideoScanner {
	return &VideoScanner{prober: prober, logger: logger}
}

// Key returns the scanner identifier.
func (s *VideoScanner) Key() string { return KeyVideo }

// Scan inspects the video container at path.
func (s *VideoScanner) Scan(path string) (models.ScannerDetails, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening video: %w", err)
	}
	defer f.Close()

	header := make([]byte, 4096)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading video header: %w", err)
	}
	header = header[:n]

	probeLen := 16
	if len(header) < probeLen {
		probeLen = len(header)
	}
	containerOK := bytes.Contains(header[:probeLen], []byte("ftyp"))

	var weirdAtoms []string
	if !containerOK {
		weirdAtoms = append(weirdAtoms, "missing ftyp atom")
	}

	appended, err := hasTrailingVideoPayload(f)
	if err != nil {
		return nil, err
	}

	details := models.ScannerDetails{
		"container_ok":      containerOK,
		"weird_atoms":       weirdAtoms,
		"has_appended_data": appended,
	}

	if s.prober != nil {
		report, err := s.prober.Probe(path)
		if err != nil {
			// Probe failure is never fatal; the container checks stand alone.
			s.logger.Debug("video probe failed", slog.String("path", path), slog.Any("error", err))
		} else {
			details["streams"] = report.Streams
			details["duration"] = report.Duration
		}
	}

	return details, nil
}

// hasTrailingVideoPayload checks the last 16 bytes for the expected trailing
// atoms. A well-formed MP4 ends inside a moov or mdat box, not random data.
func hasTrailingVideoPayload(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat for trailer check: %w", err)
	}
	if info.Size() < 16 {
		return false, nil
	}

	tail := make([]byte, 16)
	if _, err := f.ReadAt(tail, info.Size()-16); err != nil {
		return false, fmt.Errorf("reading video trailer: %w", err)
	}
	return !bytes.Contains(tail, []byte("moov")) && !bytes.Contains(tail, []byte("mdat")), nil
}
