package models

import (
	"time"
)

// Severity classifies how alarming a single finding is.
type Severity string

const (
	SeverityRed    Severity = "red"
	SeverityYellow Severity = "yellow"
	SeverityGreen  Severity = "green"
)

// Rank orders severities so callers can sort or compare them: red > yellow > green.
func (s Severity) Rank() int {
	switch s {
	case SeverityRed:
		return 3
	case SeverityYellow:
		return 2
	case SeverityGreen:
		return 1
	default:
		return 0
	}
}

// Issue is a single detected anomaly. Issues are immutable once created.
type Issue struct {
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Message     string   `json:"message"`
	Explanation string   `json:"explanation,omitempty"`
}

// ScannerDetails holds free-form structured data produced by one scanner,
// keyed by scanner-specific field names. Read-only after the scan completes.
type ScannerDetails map[string]any

// ScanResult contains the complete outcome of one file inspection.
// It is created fresh per scan and owned exclusively by the caller.
type ScanResult struct {
	ID                string                    `json:"id"`
	FileName          string                    `json:"fileName"`
	SizeBytes         int64                     `json:"sizeBytes"`
	DetectedType      string                    `json:"detectedType"`
	ExtensionMismatch string                    `json:"extensionMismatch,omitempty"`
	Hashes            map[string]string         `json:"hashes"`
	BlocklistHits     []string                  `json:"blocklistHits,omitempty"`
	Issues            []Issue                   `json:"issues"`
	MetadataSummary   map[string]string         `json:"metadataSummary"`
	CanSanitize       bool                      `json:"canSanitize"`
	SanitizedPath     string                    `json:"sanitizedPath,omitempty"`
	Details           map[string]ScannerDetails `json:"details"`
	RiskScore         int                       `json:"riskScore"`
	ScannedAt         time.Time                 `json:"scannedAt"`
	Duration          time.Duration             `json:"duration"`
}

// AddIssue appends an issue to the result.
func (r *ScanResult) AddIssue(severity Severity, category, message, explanation string) {
	r.Issues = append(r.Issues, Issue{
		Severity:    severity,
		Category:    category,
		Message:     message,
		Explanation: explanation,
	})
}

// HighestSeverity returns the most alarming severity across all issues,
// or SeverityGreen when the result has no issues.
func (r *ScanResult) HighestSeverity() Severity {
	highest := SeverityGreen
	for _, issue := range r.Issues {
		if issue.Severity.Rank() > highest.Rank() {
			highest = issue.Severity
		}
	}
	return highest
}

// ScoreWeights maps issue severities to risk-score contributions.
type ScoreWeights struct {
	Red     int
	Yellow  int
	Green   int
	Unknown int
}

// DefaultScoreWeights returns the stock severity weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Red: 50, Yellow: 20, Green: 0, Unknown: 10}
}

// RiskScore reduces an issue list to a 0-100 score. The score is a pure
// function of the issues: the weighted sum of severities, clamped at 100.
func RiskScore(issues []Issue, weights ScoreWeights) int {
	score := 0
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityRed:
			score += weights.Red
		case SeverityYellow:
			score += weights.Yellow
		case SeverityGreen:
			score += weights.Green
		default:
			score += weights.Unknown
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

// VerdictBuckets holds the score thresholds separating verdict levels.
type VerdictBuckets struct {
	HighRisk int
	Warnings int
}

// DefaultVerdictBuckets returns the stock verdict thresholds.
func DefaultVerdictBuckets() VerdictBuckets {
	return VerdictBuckets{HighRisk: 70, Warnings: 30}
}

// Verdict buckets a risk score into a short human-readable assessment.
func Verdict(score, issueCount int, buckets VerdictBuckets) string {
	switch {
	case score >= buckets.HighRisk:
		return "high risk"
	case score >= buckets.Warnings:
		return "some warnings"
	case issueCount > 0:
		return "low risk, minor warnings"
	default:
		return "nothing suspicious"
	}
}
