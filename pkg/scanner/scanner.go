package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"shadowsafe/pkg/config"
	"shadowsafe/pkg/models"
)

// Options controls one scan invocation.
type Options struct {
	// MIMEHint, when set, is trusted verbatim as the detected type.
	MIMEHint string
	// Sanitize requests a sanitized copy for supported types.
	Sanitize bool
}

// Scanner runs the full inspection pipeline over untrusted files. A Scanner
// holds only immutable state (rule set, blocklist, thresholds) loaded at
// construction, so concurrent scans may share one instance freely.
type Scanner struct {
	blocklist map[string]struct{}
	rules     []Rule
	entropy   EntropyThresholds
	weights   models.ScoreWeights
	registry  *registry
	prober    Prober
	sanitizer Sanitizer
	logger    *slog.Logger
}

// New builds a Scanner from configuration. The ffprobe prober is wired in
// when the binary is available; its absence only disables probe details.
func New(cfg *config.Config, logger *slog.Logger) (*Scanner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := cfg.LoadBlocklist()
	if err != nil {
		return nil, err
	}
	blocklist := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		blocklist[e] = struct{}{}
	}

	var prober Prober
	if p := NewFFProbe(); p != nil {
		prober = p
	}

	s := &Scanner{
		blocklist: blocklist,
		rules:     CompileRules(cfg.Rules),
		entropy: EntropyThresholds{
			BlockSize:     cfg.Entropy.BlockSize,
			HighBlockBits: cfg.Entropy.HighBlockBits,
			HighRatio:     cfg.Entropy.HighRatio,
			TrailingRatio: cfg.Entropy.TrailingRatio,
		},
		weights: models.ScoreWeights{
			Red:     cfg.Scoring.RedWeight,
			Yellow:  cfg.Scoring.YellowWeight,
			Green:   cfg.Scoring.GreenWeight,
			Unknown: cfg.Scoring.UnknownWeight,
		},
		prober:    prober,
		sanitizer: CopySanitizer{},
		logger:    logger,
	}
	s.registry = newRegistry(
		NewPDFScanner(logger),
		NewImageScanner(logger),
		NewVideoScanner(prober, logger),
		NewArchiveScanner(logger),
	)
	return s, nil
}

// Scan inspects one file and returns its risk assessment. Only an unreadable
// input or an I/O failure during hashing is fatal; every other signal
// degrades to empty details and the scan still produces a complete result.
func (s *Scanner) Scan(ctx context.Context, path string, opts Options) (*models.ScanResult, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input file not readable: %w", err)
	}

	detected := DetectType(path, opts.MIMEHint)
	scannerKeys := ScannersFor(detected)

	// Hashing, metadata, entropy and rule matching are mutually independent
	// and read the file through separate handles, so they fan out. The
	// structural scanner joins here too; its output is only consulted after
	// the wait, which keeps the pattern-severity decision ordered behind it.
	var (
		hashes        map[string]string
		metadata      map[string]string
		entropyReport EntropyReport
		entropyOK     bool
		matches       []string

		mu                sync.Mutex
		structuralDetails = make(map[string]models.ScannerDetails)
	)

	var g errgroup.Group
	g.Go(func() error {
		h, err := ComputeHashes(path)
		if err != nil {
			return err
		}
		hashes = h
		return nil
	})
	g.Go(func() error {
		metadata = s.ExtractMetadata(path, detected)
		return nil
	})
	g.Go(func() error {
		report, err := AnalyzeEntropy(path, s.entropy)
		if err != nil {
			s.logger.Warn("entropy analysis degraded", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		entropyReport = report
		entropyOK = true
		return nil
	})
	g.Go(func() error {
		m, err := MatchRules(path, s.rules)
		if err != nil {
			s.logger.Warn("rule matching degraded", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		matches = m
		return nil
	})
	for _, key := range scannerKeys {
		structural := s.registry.forKey(key)
		if structural == nil {
			continue
		}
		g.Go(func() error {
			details, err := structural.Scan(path)
			if err != nil {
				s.logger.Warn("structural scan degraded",
					slog.String("scanner", structural.Key()), slog.String("path", path), slog.Any("error", err))
				return nil
			}
			mu.Lock()
			structuralDetails[structural.Key()] = details
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &models.ScanResult{
		ID:                uuid.NewString(),
		FileName:          filepath.Base(path),
		SizeBytes:         info.Size(),
		DetectedType:      detected,
		ExtensionMismatch: ExtensionMismatch(path, detected),
		Hashes:            hashes,
		BlocklistHits:     MatchBlocklist(hashes, s.blocklist),
		MetadataSummary:   SummarizeMetadata(metadata),
		Issues:            []models.Issue{},
		Details:           make(map[string]models.ScannerDetails),
		ScannedAt:         start.UTC(),
	}

	var pdfDetails models.ScannerDetails
	for _, key := range scannerKeys {
		details, ok := structuralDetails[key]
		if !ok {
			continue
		}
		result.Details[key] = details
		result.Issues = append(result.Issues, issuesFromDetails(key, details)...)
		if key == KeyPDF {
			pdfDetails = details
		}
	}

	if entropyOK {
		result.Details[KeyHeuristics] = models.ScannerDetails{
			"mean_entropy":        entropyReport.MeanEntropy,
			"high_entropy_blocks": entropyReport.HighEntropyBlocks,
			"high_entropy_ratio":  entropyReport.HighEntropyRatio,
			"trailing_data_ratio": entropyReport.TrailingDataRatio,
		}
		result.Issues = append(result.Issues, issuesFromEntropy(entropyReport, s.entropy)...)
	}

	if len(matches) > 0 {
		result.Details[KeyPatterns] = models.ScannerDetails{"matches": matches}
		result.Issues = append(result.Issues, patternIssue(matches, pdfDetails))
	}

	result.CanSanitize = s.sanitizer.CanSanitize(detected)
	if opts.Sanitize && result.CanSanitize {
		target, err := s.sanitizer.Sanitize(path, detected)
		if err != nil {
			s.logger.Warn("sanitization failed", slog.String("path", path), slog.Any("error", err))
		} else {
			result.SanitizedPath = target
		}
	}

	result.RiskScore = models.RiskScore(result.Issues, s.weights)
	result.Duration = time.Since(start)

	s.logger.Info("scan completed",
		slog.String("file", result.FileName),
		slog.String("type", detected),
		slog.Int("issues", len(result.Issues)),
		slog.Int("score", result.RiskScore))
	return result, nil
}
