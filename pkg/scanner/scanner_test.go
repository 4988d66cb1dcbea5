package scanner

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"shadowsafe/pkg/config"
	"shadowsafe/pkg/models"
)

func newTestScanner(t *testing.T, mutate func(*config.Config)) *Scanner {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	s, err := New(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestScanDeterministic(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "doc.pdf", []byte("%PDF-1.4\n/OpenAction << /S /JavaScript >>\n%%EOF"))

	first, err := s.Scan(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Scan(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if first.DetectedType != second.DetectedType {
		t.Errorf("detected type differs: %q vs %q", first.DetectedType, second.DetectedType)
	}
	if !reflect.DeepEqual(first.Hashes, second.Hashes) {
		t.Errorf("hashes differ between runs: %v vs %v", first.Hashes, second.Hashes)
	}
	if !reflect.DeepEqual(first.Issues, second.Issues) {
		t.Errorf("issues differ between runs: %+v vs %+v", first.Issues, second.Issues)
	}
	if first.RiskScore != second.RiskScore {
		t.Errorf("score differs: %d vs %d", first.RiskScore, second.RiskScore)
	}
}

func TestScanMIMEHintWins(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "doc.pdf", []byte("%PDF-1.4\n%%EOF"))

	result, err := s.Scan(context.Background(), path, Options{MIMEHint: "text/plain"})
	if err != nil {
		t.Fatal(err)
	}
	if result.DetectedType != "text/plain" {
		t.Errorf("detected type = %q, want the hint verbatim", result.DetectedType)
	}
	if _, present := result.Details[KeyPDF]; present {
		t.Error("hinted text/plain should not trigger the PDF scanner")
	}
}

func TestScanBlocklistHit(t *testing.T) {
	// sha256("abc")
	const digest = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	s := newTestScanner(t, func(cfg *config.Config) {
		cfg.Blocklist.Entries = []string{strings.ToUpper(digest)}
	})
	path := writeTempFile(t, "abc.txt", []byte("abc"))

	result, err := s.Scan(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.BlocklistHits) != 1 || result.BlocklistHits[0] != digest {
		t.Errorf("blocklist hits = %v", result.BlocklistHits)
	}
	// A hit is reported as a field, not an issue.
	for _, issue := range result.Issues {
		if strings.Contains(strings.ToLower(issue.Message), "blocklist") {
			t.Errorf("blocklist hit should not add an issue: %+v", issue)
		}
	}
}

func TestScanPDFAutoActionOnly(t *testing.T) {
	s := newTestScanner(t, nil)
	// Not a well-formed xref table, so the structural parse falls back to the
	// raw byte pass.
	path := writeTempFile(t, "auto.pdf", []byte("%PDF-1.7\n1 0 obj << /OpenAction 2 0 R >> endobj\n%%EOF"))

	result, err := s.Scan(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Issues) != 1 {
		t.Fatalf("issues = %+v, want exactly one", result.Issues)
	}
	issue := result.Issues[0]
	if issue.Severity != models.SeverityYellow || issue.Message != "Auto actions present" {
		t.Errorf("issue = %+v", issue)
	}
	if result.RiskScore != 20 {
		t.Errorf("risk score = %d, want 20", result.RiskScore)
	}
	if models.Verdict(result.RiskScore, len(result.Issues), models.DefaultVerdictBuckets()) != "low risk, minor warnings" {
		t.Errorf("unexpected verdict for score %d", result.RiskScore)
	}
}

func TestScanPatternEscalatesWithActivePDF(t *testing.T) {
	s := newTestScanner(t, nil)
	// /JS makes the PDF scanner report active content, /Launch trips the
	// suspicious_pdf_js rule. Together the pattern issue escalates to red.
	body := "%PDF-1.7\n1 0 obj << /JS (app.alert(1)) /Launch (cmd) >> endobj\n%%EOF"
	path := writeTempFile(t, "live.pdf", []byte(body))

	result, err := s.Scan(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}

	var pattern *models.Issue
	for i := range result.Issues {
		if result.Issues[i].Category == KeyPatterns {
			pattern = &result.Issues[i]
		}
	}
	if pattern == nil {
		t.Fatalf("no pattern issue in %+v", result.Issues)
	}
	if pattern.Severity != models.SeverityRed {
		t.Errorf("pattern severity = %s, want red with active PDF content", pattern.Severity)
	}
}

func TestScanPatternStaysYellowWithoutPDF(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "note.txt", []byte("run powershell -enc AAAA"))

	result, err := s.Scan(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, issue := range result.Issues {
		if issue.Category == KeyPatterns {
			found = true
			if issue.Severity != models.SeverityYellow {
				t.Errorf("pattern severity = %s, want yellow for a plain text file", issue.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("powershell marker should match a rule, issues = %+v", result.Issues)
	}
	if _, present := result.Details[KeyPatterns]; !present {
		t.Error("pattern matches should appear under the yara details key")
	}
}

func TestScanArchiveWithExecutable(t *testing.T) {
	s := newTestScanner(t, nil)
	data := buildZip(t, map[string][]byte{"dropper.exe": []byte("MZ....")})
	path := writeTempFile(t, "bundle.zip", data)

	result, err := s.Scan(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	details, ok := result.Details[KeyArchive]
	if !ok {
		t.Fatal("zip should run the archive scanner")
	}
	if !detailBool(details, "has_executables") {
		t.Error("has_executables should be set")
	}
	if result.HighestSeverity() != models.SeverityRed {
		t.Errorf("highest severity = %s, want red", result.HighestSeverity())
	}
	if result.RiskScore < 50 {
		t.Errorf("risk score = %d, want at least the red weight", result.RiskScore)
	}
}

func TestScanCorruptPDFNotFatal(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "broken.pdf", []byte("%PDF-1.5\ngarbage with no trailer"))

	result, err := s.Scan(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("corrupt PDF must not be fatal: %v", err)
	}
	if _, ok := result.Details[KeyPDF]; !ok {
		t.Error("fallback pass should still publish pdf details")
	}
}

func TestScanMissingFileFatal(t *testing.T) {
	s := newTestScanner(t, nil)
	if _, err := s.Scan(context.Background(), t.TempDir()+"/absent.bin", Options{}); err == nil {
		t.Error("missing input should be a fatal error")
	}
}

func TestScanCancelledContext(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "any.txt", []byte("data"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Scan(ctx, path, Options{}); err == nil {
		t.Error("cancelled context should abort the scan")
	}
}

func TestScanResultShape(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "plain.txt", []byte("nothing suspicious here"))

	result, err := s.Scan(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.ID == "" {
		t.Error("result must carry an ID")
	}
	if result.FileName != "plain.txt" {
		t.Errorf("file name = %q", result.FileName)
	}
	if result.SizeBytes != int64(len("nothing suspicious here")) {
		t.Errorf("size = %d", result.SizeBytes)
	}
	if result.Hashes["sha256"] == "" || result.Hashes["md5"] == "" {
		t.Errorf("hashes = %v, want sha256 and md5", result.Hashes)
	}
	if _, ok := result.Details[KeyHeuristics]; !ok {
		t.Error("entropy details should always be present for readable files")
	}
	for _, key := range []string{"exif_present", "gps_present", "camera_model"} {
		if _, ok := result.MetadataSummary[key]; !ok {
			t.Errorf("metadata summary missing %q: %v", key, result.MetadataSummary)
		}
	}
	if result.Issues == nil {
		t.Error("issues must be an empty slice, not nil")
	}
	if result.RiskScore != 0 {
		t.Errorf("clean text file score = %d, want 0", result.RiskScore)
	}
	if result.ScannedAt.IsZero() || result.Duration <= 0 {
		t.Error("timing fields should be populated")
	}
}

func TestScanSanitizeCopy(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "photo.png", encodePNG(t))

	result, err := s.Scan(context.Background(), path, Options{Sanitize: true})
	if err != nil {
		t.Fatal(err)
	}
	if !result.CanSanitize {
		t.Fatal("png should be sanitizable")
	}
	if result.SanitizedPath == "" {
		t.Fatal("sanitize option should produce a copy path")
	}
	if !strings.Contains(result.SanitizedPath, "-sanitized") {
		t.Errorf("sanitized path = %q", result.SanitizedPath)
	}
}
