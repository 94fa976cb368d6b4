package probe

import (
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders the same evidence as the Markdown artifact into a PDF.
func (r Report) WritePDF(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("HI1 Native-First Framing Evidence", false)
	pdf.SetCreator("hi1probe", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "HI1 Native-First Framing Evidence")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	notes := append([]string{"Generated: " + r.Generated.UTC().Format(time.RFC3339)}, r.Notes...)
	for _, note := range notes {
		pdf.CellFormat(0, 5, tr(note), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	addPDFSection(pdf, "Bad-Magic Summary")
	if len(r.Evidence.BadMagic) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, "magic", "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, "count", "1", 1, "R", false, 0, "")
		pdf.SetFont("Courier", "", 10)
		for _, m := range r.Evidence.BadMagic {
			pdf.CellFormat(40, 6, m.Magic, "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 6, strconv.Itoa(m.Count), "1", 1, "R", false, 0, "")
		}
	} else {
		addPDFText(pdf, "No bad magic markers detected in inspected IMP2 logs.")
	}
	pdf.Ln(4)

	addPDFSection(pdf, "IMP2 HI1 Sample Lines")
	addPDFLines(pdf, tr, r.Evidence.HI1Samples, "No HI1 UDP lines captured in inspected log window.")

	addPDFSection(pdf, "PDP-10 Runtime Markers")
	addPDFLines(pdf, tr, r.Evidence.PDP10Markers, "No key IMP runtime markers found in inspected PDP-10 log window.")

	addPDFSection(pdf, "Interpretation")
	for _, p := range r.Interpretation() {
		addPDFText(pdf, tr(p))
		pdf.Ln(2)
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(path)
}

func addPDFSection(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
}

func addPDFText(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, text, "", "L", false)
}

func addPDFLines(pdf *gofpdf.Fpdf, tr func(string) string, lines []string, empty string) {
	if len(lines) == 0 {
		addPDFText(pdf, empty)
		pdf.Ln(4)
		return
	}
	pdf.SetFont("Courier", "", 8)
	for _, line := range lines {
		pdf.MultiCell(0, 4, tr(line), "", "L", false)
	}
	pdf.Ln(4)
}
