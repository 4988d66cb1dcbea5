package scanner

import (
	"strings"
	"testing"

	"shadowsafe/pkg/models"
)

// corruptPDF builds bytes that carry the PDF magic but defeat the structural
// parser, forcing the raw-byte fallback.
func corruptPDF(body string) []byte {
	return []byte("%PDF-1.7\n" + body + "\nno xref table here")
}

func TestPDFScanAutoActionOnly(t *testing.T) {
	s := NewPDFScanner(testLogger())
	path := writeTempFile(t, "doc.pdf", corruptPDF("<< /OpenAction 2 0 R >>"))

	details, err := s.Scan(path)
	if err != nil {
		t.Fatal(err)
	}
	if detailBool(details, "has_javascript") {
		t.Error("no JavaScript marker present, has_javascript should be false")
	}
	if n := detailInt(details, "embedded_files"); n != 0 {
		t.Errorf("embedded_files = %d, want 0", n)
	}
	if n := detailInt(details, "auto_actions"); n != 1 {
		t.Errorf("auto_actions = %d, want 1", n)
	}

	issues := issuesFromDetails(KeyPDF, details)
	if len(issues) != 1 {
		t.Fatalf("issues = %+v, want exactly one", issues)
	}
	if issues[0].Severity != models.SeverityYellow || issues[0].Message != "Auto actions present" {
		t.Errorf("unexpected issue: %+v", issues[0])
	}
}

func TestPDFScanJavaScriptAndLinks(t *testing.T) {
	s := NewPDFScanner(testLogger())
	body := "<< /JavaScript 3 0 R >> /EmbeddedFile (http://evil.example/payload)"
	path := writeTempFile(t, "doc.pdf", corruptPDF(body))

	details, err := s.Scan(path)
	if err != nil {
		t.Fatal(err)
	}
	if !detailBool(details, "has_javascript") {
		t.Error("has_javascript should be true")
	}
	if n := detailInt(details, "embedded_files"); n != 1 {
		t.Errorf("embedded_files = %d, want 1", n)
	}
	links, _ := details["suspicious_links"].([]string)
	if len(links) != 1 || !strings.HasPrefix(links[0], "http://evil.example/payload") {
		t.Errorf("suspicious_links = %v", links)
	}

	issues := issuesFromDetails(KeyPDF, details)
	if len(issues) != 2 {
		t.Errorf("issues = %+v, want JavaScript and embedded-file findings", issues)
	}
}

func TestPDFScanCorruptNeverFatal(t *testing.T) {
	s := NewPDFScanner(testLogger())
	path := writeTempFile(t, "broken.pdf", []byte("%PDF-\x00\x01garbage"))

	details, err := s.Scan(path)
	if err != nil {
		t.Fatalf("corrupt pdf must degrade, not fail: %v", err)
	}
	if details == nil {
		t.Fatal("expected fallback details")
	}
}

func TestPDFLinkCap(t *testing.T) {
	s := NewPDFScanner(testLogger())
	body := ""
	for i := 0; i < 20; i++ {
		body += "https://example.com/x \n"
	}
	path := writeTempFile(t, "links.pdf", corruptPDF(body))

	details, err := s.Scan(path)
	if err != nil {
		t.Fatal(err)
	}
	links, _ := details["suspicious_links"].([]string)
	if len(links) > maxReportedLinks {
		t.Errorf("links = %d, want at most %d", len(links), maxReportedLinks)
	}
}

func TestActivePDFFeatures(t *testing.T) {
	if activePDFFeatures(nil) {
		t.Error("nil details should report no active features")
	}
	if activePDFFeatures(models.ScannerDetails{"has_javascript": false, "embedded_files": 0, "auto_actions": 0}) {
		t.Error("all-clear details should report no active features")
	}
	if !activePDFFeatures(models.ScannerDetails{"has_javascript": true}) {
		t.Error("JavaScript presence should count as active")
	}
	if !activePDFFeatures(models.ScannerDetails{"embedded_files": 2}) {
		t.Error("embedded files should count as active")
	}
	if !activePDFFeatures(models.ScannerDetails{"auto_actions": 1}) {
		t.Error("auto actions should count as active")
	}
}
