package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"shadowsafe/pkg/models"
)

var (
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Render writes a human-readable report for one scan result.
func Render(w io.Writer, result *models.ScanResult, verdict string, verbose bool) {
	fmt.Fprintln(w, "--- Scan Report ---")
	fmt.Fprintf(w, "File: %s\n", result.FileName)
	fmt.Fprintf(w, "Type: %s\n", result.DetectedType)
	fmt.Fprintf(w, "Size: %d bytes\n", result.SizeBytes)
	for _, alg := range sortedKeys(result.Hashes) {
		fmt.Fprintf(w, "%s: %s\n", strings.ToUpper(alg), result.Hashes[alg])
	}

	if result.ExtensionMismatch != "" {
		fmt.Fprintf(w, "%s extension mismatch: %s\n", warningColor("[!]"), result.ExtensionMismatch)
	}
	if len(result.BlocklistHits) > 0 {
		fmt.Fprintf(w, "%s known-bad digest match: %s\n", alertColor("[!!!]"), strings.Join(result.BlocklistHits, ", "))
	}

	fmt.Fprintln(w, "\nMetadata:")
	for _, key := range sortedKeys(result.MetadataSummary) {
		fmt.Fprintf(w, "  %s: %s\n", key, result.MetadataSummary[key])
	}

	if len(result.Issues) > 0 {
		fmt.Fprintln(w, "\nIssues:")
		for i, issue := range result.Issues {
			fmt.Fprintf(w, "%d. %s [%s] %s\n", i+1, severityTag(issue.Severity), issue.Category, issue.Message)
			if verbose && issue.Explanation != "" {
				fmt.Fprintf(w, "   %s\n", issue.Explanation)
			}
		}
	}

	if verbose && len(result.Details) > 0 {
		fmt.Fprintln(w, "\nScanner details:")
		for _, key := range sortedKeys(result.Details) {
			fmt.Fprintf(w, "  [%s]\n", key)
			details := result.Details[key]
			for _, field := range sortedKeys(details) {
				fmt.Fprintf(w, "    %s: %v\n", field, details[field])
			}
		}
	}

	if result.SanitizedPath != "" {
		fmt.Fprintf(w, "\n%s sanitized copy written to %s\n", successColor("[+]"), result.SanitizedPath)
	}

	fmt.Fprintf(w, "\nRisk score: %d/100 — %s\n", result.RiskScore, verdictBanner(result.RiskScore, verdict))
	fmt.Fprintln(w, "-------------------")
}

// RenderFailure writes the short single-line failure message for a scan that
// aborted with a fatal error.
func RenderFailure(w io.Writer, path string, err error) {
	fmt.Fprintf(w, "%s scan failed for %s: %v\n", errorColor("[-]"), path, err)
}

// WriteJSON serializes the result for a presentation layer.
func WriteJSON(w io.Writer, result *models.ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func severityTag(severity models.Severity) string {
	switch severity {
	case models.SeverityRed:
		return alertColor("[RED]")
	case models.SeverityYellow:
		return warningColor("[YELLOW]")
	case models.SeverityGreen:
		return successColor("[GREEN]")
	default:
		return infoColor("[?]")
	}
}

func verdictBanner(score int, verdict string) string {
	switch {
	case score >= 70:
		return alertColor(verdict)
	case score >= 30:
		return warningColor(verdict)
	default:
		return successColor(verdict)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
