package scanner

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"rsc.io/pdf"

	"shadowsafe/pkg/models"
)

// maxReportedLinks caps how many annotation link URIs are carried into the
// scanner details.
const maxReportedLinks = 10

var (
	pdfJSPattern     = regexp.MustCompile(`(?i)/(JS|JavaScript)\b`)
	pdfEmbedPattern  = regexp.MustCompile(`/EmbeddedFile\b`)
	pdfActionPattern = regexp.MustCompile(`(?i)/OpenAction\b`)
	pdfLinkPattern   = regexp.MustCompile(`(?i)https?://[^\s<>]+`)
)

// PDFScanner detects active PDF content: JavaScript name-tree entries,
// embedded files, auto-open actions and annotation link URIs. The preferred
// path walks the PDF object graph; when the parser rejects or panics on a
// malformed document, the scanner degrades to independent regex passes over
// the raw bytes.
type PDFScanner struct {
	logger *slog.Logger
}

// NewPDFScanner creates a PDF structural scanner.
func NewPDFScanner(logger *slog.Logger) *PDFScanner {
	return &PDFScanner{logger: logger}
}

// Key returns the scanner identifier.
func (s *PDFScanner) Key() string { return KeyPDF }

// Scan inspects the PDF at path.
func (s *PDFScanner) Scan(path string) (models.ScannerDetails, error) {
	details, err := s.scanStructure(path)
	if err == nil {
		return details, nil
	}
	s.logger.Debug("pdf object parse failed, using raw byte fallback",
		slog.String("path", path), slog.Any("error", err))
	return s.scanRaw(path)
}

// scanStructure walks the document catalog. rsc.io/pdf panics on some
// malformed inputs, so the whole walk runs under a recover that converts the
// panic into an error for the fallback path.
func (s *PDFScanner) scanStructure(path string) (details models.ScannerDetails, err error) {
	defer func() {
		if r := recover(); r != nil {
			details = nil
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	root := reader.Trailer().Key("Root")
	names := root.Key("Names")

	hasJS := !names.Key("JavaScript").IsNull()
	embedded := countNameTree(names.Key("EmbeddedFiles"))
	autoActions := 0
	if !root.Key("OpenAction").IsNull() {
		autoActions = 1
	}

	var links []string
	for i := 1; i <= reader.NumPage() && len(links) < maxReportedLinks; i++ {
		annots := reader.Page(i).V.Key("Annots")
		if annots.Kind() != pdf.Array {
			continue
		}
		for j := 0; j < annots.Len() && len(links) < maxReportedLinks; j++ {
			uri := annots.Index(j).Key("A").Key("URI")
			if uri.Kind() == pdf.String {
				links = append(links, uri.Text())
			}
		}
	}

	return models.ScannerDetails{
		"has_javascript":   hasJS,
		"embedded_files":   embedded,
		"auto_actions":     autoActions,
		"suspicious_links": links,
	}, nil
}

// countNameTree counts leaf entries of a PDF name tree, following Kids nodes.
func countNameTree(node pdf.Value) int {
	if node.IsNull() {
		return 0
	}
	if names := node.Key("Names"); names.Kind() == pdf.Array {
		return names.Len() / 2
	}
	total := 0
	if kids := node.Key("Kids"); kids.Kind() == pdf.Array {
		for i := 0; i < kids.Len(); i++ {
			total += countNameTree(kids.Index(i))
		}
	}
	return total
}

// scanRaw applies independent regex passes over the raw bytes. Each signal is
// computed on its own so one odd construct cannot mask the others.
func (s *PDFScanner) scanRaw(path string) (models.ScannerDetails, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	links := make([]string, 0, maxReportedLinks)
	for _, match := range pdfLinkPattern.FindAll(data, maxReportedLinks) {
		link := string(match)
		if len(link) > 200 {
			link = link[:200]
		}
		links = append(links, link)
	}

	return models.ScannerDetails{
		"has_javascript":   pdfJSPattern.Match(data),
		"embedded_files":   len(pdfEmbedPattern.FindAll(data, -1)),
		"auto_actions":     len(pdfActionPattern.FindAll(data, -1)),
		"suspicious_links": links,
	}, nil
}

// activePDFFeatures reports whether the PDF scanner saw any active content:
// JavaScript, embedded files or auto-open actions.
func activePDFFeatures(details models.ScannerDetails) bool {
	if details == nil {
		return false
	}
	return detailBool(details, "has_javascript") ||
		detailInt(details, "embedded_files") > 0 ||
		detailInt(details, "auto_actions") > 0
}
