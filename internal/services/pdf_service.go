package services

import (
	"bytes"
	"fmt"

	"doc-compliance-checker/internal/models"

	"github.com/jung-kurt/gofpdf/v2"
)

// PDFService renders compliance reports as PDF documents
type PDFService struct{}

// NewPDFService creates a new PDF service
func NewPDFService() *PDFService {
	return &PDFService{}
}

// GenerateReportPDF renders the compliance report of a completed task
func (s *PDFService) GenerateReportPDF(task *models.Task) ([]byte, error) {
	if task == nil || task.Report == nil || task.Report.Compliance == nil {
		return nil, fmt.Errorf("invalid report data")
	}
	report := task.Report.Compliance

	// Create PDF document (A4, portrait)
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("{nb}")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(108, 117, 125) // Gray
		pdf.SetX(15)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 102, 204) // Blue
	pdf.CellFormat(0, 15, "Document Compliance Report", "", 0, "C", false, 0, "")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(108, 117, 125)
	pdf.CellFormat(0, 8, tr(task.Filename), "", 0, "C", false, 0, "")
	pdf.Ln(6)
	pdf.CellFormat(0, 8, fmt.Sprintf("Checked: %s", task.UpdatedAt.UTC().Format("January 2, 2006 15:04 MST")), "", 0, "C", false, 0, "")
	pdf.Ln(10)

	s.addHeader(pdf, "Summary")
	s.addSummary(pdf, tr, report)

	s.addHeader(pdf, fmt.Sprintf("Violations (%d)", len(report.Violations)))
	if len(report.Violations) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(33, 37, 41)
		pdf.MultiCell(0, 6, "No violations were found.", "", "L", false)
	}
	for i, v := range report.Violations {
		s.addViolation(pdf, tr, i+1, v)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// addHeader adds a section header with an underline
func (s *PDFService) addHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41) // Dark gray
	pdf.CellFormat(0, 10, title, "", 0, "L", false, 0, "")

	pdf.Ln(10)
	pdf.SetLineWidth(0.5)
	pdf.SetDrawColor(0, 102, 204)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(5)
}

func (s *PDFService) addSummary(pdf *gofpdf.Fpdf, tr func(string) string, report *models.ComplianceReport) {
	pdf.SetFont("Arial", "B", 12)
	if report.IsCompliant() {
		pdf.SetTextColor(40, 167, 69) // Green
	} else {
		pdf.SetTextColor(220, 53, 69) // Red
	}
	pdf.CellFormat(0, 8, fmt.Sprintf("Status: %s", report.Summary.ComplianceStatus), "", 0, "L", false, 0, "")
	pdf.Ln(7)

	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 8, fmt.Sprintf("Overall score: %.0f%%", report.Summary.OverallScore*100), "", 0, "L", false, 0, "")
	pdf.Ln(9)

	if report.Summary.KeyFindings != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.SetFillColor(248, 249, 250) // Light gray
		pdf.MultiCell(0, 6, tr(report.Summary.KeyFindings), "", "L", true)
	}
}

func (s *PDFService) addViolation(pdf *gofpdf.Fpdf, tr func(string) string, n int, v models.Violation) {
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(0, 102, 204)
	pdf.CellFormat(0, 7, fmt.Sprintf("%d. %s", n, tr(v.Type)), "", 0, "L", false, 0, "")
	pdf.Ln(7)

	pdf.SetTextColor(33, 37, 41)
	rows := []struct{ label, value string }{
		{"Issue", v.Description},
		{"Context", v.Context},
		{"Suggestion", v.Suggestion},
	}
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(25, 6, row.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, tr(row.value), "", "L", false)
	}
	pdf.Ln(3)
}
