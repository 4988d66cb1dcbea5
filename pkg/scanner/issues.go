package scanner

import (
	"fmt"
	"strings"

	"shadowsafe/pkg/models"
)

// issuesFromDetails converts one structural scanner's details into issues.
// The mapping is fixed per scanner key; unknown keys yield nothing.
func issuesFromDetails(key string, details models.ScannerDetails) []models.Issue {
	var issues []models.Issue
	add := func(severity models.Severity, message, explanation string) {
		issues = append(issues, models.Issue{
			Severity:    severity,
			Category:    key,
			Message:     message,
			Explanation: explanation,
		})
	}

	switch key {
	case KeyPDF:
		if detailBool(details, "has_javascript") {
			add(models.SeverityYellow, "Embedded JavaScript detected",
				"PDF contains names referencing JavaScript objects.")
		}
		if n := detailInt(details, "embedded_files"); n > 0 {
			add(models.SeverityYellow, fmt.Sprintf("%d embedded files", n),
				"Embedded files may hide payloads that execute on open.")
		}
		if detailInt(details, "auto_actions") > 0 {
			add(models.SeverityYellow, "Auto actions present",
				"OpenAction entries can run code when the document opens.")
		}
	case KeyImage:
		if detailString(details, "gps_present") == "yes" {
			add(models.SeverityYellow, "GPS metadata found",
				"Embedded GPS metadata can reveal location data.")
		}
		if detailBool(details, "has_appended_data") {
			add(models.SeverityYellow, "Image contains appended data",
				"Appended data may carry hidden payloads or steganography.")
		}
	case KeyVideo:
		if ok, present := details["container_ok"].(bool); present && !ok {
			add(models.SeverityYellow, "Video container header missing",
				"Container header anomalies may indicate tampered files.")
		}
		if detailBool(details, "has_appended_data") {
			add(models.SeverityYellow, "Video has unexpected trailer data",
				"Unexpected data at the end of the file can hide payloads.")
		}
	case KeyArchive:
		if detailBool(details, "has_executables") {
			add(models.SeverityRed, "Archive contains executable files",
				"Executables inside archives can deliver malware.")
		}
		if detailBool(details, "has_macros") {
			add(models.SeverityYellow, "Archive may contain macros",
				"Office macros often deliver malicious payloads.")
		}
	}
	return issues
}

// issuesFromEntropy converts the entropy report into issues using the
// configured thresholds.
func issuesFromEntropy(report EntropyReport, thresholds EntropyThresholds) []models.Issue {
	var issues []models.Issue
	if report.HighEntropyRatio > thresholds.HighRatio {
		issues = append(issues, models.Issue{
			Severity:    models.SeverityYellow,
			Category:    "entropy",
			Message:     "Large portions of the file look highly obfuscated",
			Explanation: "High entropy sections are typical for encrypted or compressed payloads.",
		})
	}
	if report.TrailingDataRatio > thresholds.TrailingRatio {
		issues = append(issues, models.Issue{
			Severity:    models.SeverityYellow,
			Category:    "structure",
			Message:     "Significant trailing data found past expected EOF",
			Explanation: "Files that carry data beyond their expected end can hide extra payloads.",
		})
	}
	return issues
}

// patternIssue builds the issue for matched detection rules. A match is red
// only when the PDF scanner corroborates it with active content (JavaScript,
// embedded files or auto actions); an inert match stays yellow to avoid
// over-flagging.
func patternIssue(matches []string, pdfDetails models.ScannerDetails) models.Issue {
	listed := matches
	if len(listed) > 5 {
		listed = listed[:5]
	}

	severity := models.SeverityYellow
	explanation := "Rule matched but no active PDF features were detected."
	if activePDFFeatures(pdfDetails) {
		severity = models.SeverityRed
		explanation = "Rule hit coincides with active PDF features (JS/embeds/actions)."
	}

	return models.Issue{
		Severity:    severity,
		Category:    KeyPatterns,
		Message:     fmt.Sprintf("Matched detection rules: %s", strings.Join(listed, ", ")),
		Explanation: explanation,
	}
}

func detailBool(details models.ScannerDetails, key string) bool {
	v, _ := details[key].(bool)
	return v
}

func detailInt(details models.ScannerDetails, key string) int {
	switch v := details[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func detailString(details models.ScannerDetails, key string) string {
	v, _ := details[key].(string)
	return v
}
