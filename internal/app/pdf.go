package app

import (
	"bufio"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// writeReportPDF renders the Markdown report as a minimal PDF: headings get
// a larger bold face, list items keep their bullet, everything else flows
// as plain paragraphs. No full Markdown layout is attempted.
func writeReportPDF(markdown string, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(4)
			continue
		}
		if strings.HasPrefix(s, "#") {
			level := 0
			for level < len(s) && s[level] == '#' {
				level++
			}
			text := strings.TrimSpace(s[level:])
			if text == "" {
				continue
			}
			size := 15.0
			if level >= 2 {
				size = 12.5
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		// Bold markers carry no meaning at this fidelity.
		s = strings.ReplaceAll(s, "**", "")
		pdf.MultiCell(0, 5, s, "", "L", false)
	}

	return pdf.OutputFileAndClose(outPath)
}
