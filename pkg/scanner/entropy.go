package scanner

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
)

// trailingWindow is the size of the end-of-file window inspected for
// padding/appended-junk runs.
const trailingWindow = 64 * 1024

// EntropyThresholds controls the entropy heuristics.
type EntropyThresholds struct {
	// BlockSize is the number of bytes per entropy block.
	BlockSize int
	// HighBlockBits marks a block as high-entropy when exceeded (bits/byte).
	HighBlockBits float64
	// HighRatio is the high-entropy block ratio above which an issue is raised.
	HighRatio float64
	// TrailingRatio is the trailing-data ratio above which an issue is raised.
	TrailingRatio float64
}

// EntropyReport summarizes the block-wise entropy analysis of one file.
type EntropyReport struct {
	MeanEntropy       float64
	HighEntropyBlocks int
	HighEntropyRatio  float64
	TrailingDataRatio float64
}

// AnalyzeEntropy computes Shannon entropy (bits/byte, 0-8) over fixed-size
// blocks plus a trailing-data heuristic. The result is a pure function of the
// file bytes.
func AnalyzeEntropy(path string, thresholds EntropyThresholds) (EntropyReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return EntropyReport{}, fmt.Errorf("opening file for entropy analysis: %w", err)
	}
	defer f.Close()

	var (
		blocks     int
		highBlocks int
		sum        float64
	)
	buf := make([]byte, thresholds.BlockSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			entropy := shannonEntropy(buf[:n])
			sum += entropy
			blocks++
			if entropy > thresholds.HighBlockBits {
				highBlocks++
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return EntropyReport{}, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	trailing, err := trailingDataRatio(f)
	if err != nil {
		return EntropyReport{}, err
	}

	report := EntropyReport{
		HighEntropyBlocks: highBlocks,
		TrailingDataRatio: trailing,
	}
	if blocks > 0 {
		report.MeanEntropy = round3(sum / float64(blocks))
		report.HighEntropyRatio = round3(float64(highBlocks) / float64(blocks))
	}
	return report, nil
}

// shannonEntropy returns the Shannon entropy of data in bits per byte.
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	entropy := 0.0
	length := float64(len(data))
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// trailingDataRatio inspects the last up-to-64KB of the file and measures the
// fraction taken up by trailing 0x00/0xFF runs. Files whose entire window is
// padding yield zero: pure padding is unremarkable, partial padding past real
// content is what the heuristic flags.
func trailingDataRatio(f *os.File) (float64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat for trailing-data check: %w", err)
	}
	size := info.Size()
	if size <= 0 {
		return 0, nil
	}
	window := int64(trailingWindow)
	if size < window {
		window = size
	}

	tail := make([]byte, window)
	if _, err := f.ReadAt(tail, size-window); err != nil {
		return 0, fmt.Errorf("reading file tail: %w", err)
	}

	stripped := bytes.TrimRight(tail, "\x00\xff")
	if len(stripped) == 0 {
		return 0, nil
	}
	trailing := len(tail) - len(stripped)
	return round3(float64(trailing) / float64(window)), nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
