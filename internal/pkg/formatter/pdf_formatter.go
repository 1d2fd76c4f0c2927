package formatter

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"
	"github.com/sellershield/intake-backend/internal/entity"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"
	pdfFontName      = "Arial"
)

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

func (pf *PDFFormatter) Format(q *entity.Quote) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont(pdfFontName, "B", 20)
	pdf.Cell(0, 10, baseTitle)
	pdf.Ln(14)

	for _, r := range reportRows(q) {
		pdf.SetFont(pdfFontName, "B", 12)
		pdf.CellFormat(80, 8, r.label, "", 0, "L", false, 0, "")
		pdf.SetFont(pdfFontName, "", 12)
		pdf.MultiCell(0, 8, r.value, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (pf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (pf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
