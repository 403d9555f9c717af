package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"log"
	"strings"

	"doc-compliance-checker/internal/config"
	"doc-compliance-checker/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailService sends task notifications via SendGrid
type EmailService struct {
	fromEmail  string
	client     *sendgrid.Client
	pdfService *PDFService
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.EmailConfig, pdfService *PDFService) *EmailService {
	return &EmailService{
		fromEmail:  cfg.FromEmail,
		client:     sendgrid.NewSendClient(cfg.APIKey),
		pdfService: pdfService,
	}
}

// NotifyTaskFinished emails the submitter, if they left an address.
// Completed tasks get the report PDF attached.
func (s *EmailService) NotifyTaskFinished(ctx context.Context, task *models.Task) error {
	if task.NotifyEmail == "" {
		return nil
	}

	message := s.buildMessage(task)

	if task.Status == models.TaskStatusCompleted {
		pdfData, err := s.pdfService.GenerateReportPDF(task)
		if err != nil {
			log.Printf("[EMAIL] WARNING: sending without PDF for task %s: %v", task.ID, err)
		} else {
			attachment := mail.NewAttachment()
			attachment.SetContent(base64.StdEncoding.EncodeToString(pdfData))
			attachment.SetType("application/pdf")
			attachment.SetFilename(reportPDFName(task.Filename))
			attachment.SetDisposition("attachment")
			message.AddAttachment(attachment)
		}
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	log.Printf("[EMAIL] Notification for task %s sent to %s", task.ID, task.NotifyEmail)
	return nil
}

func (s *EmailService) buildMessage(task *models.Task) *mail.SGMailV3 {
	from := mail.NewEmail("Document Compliance Checker", s.fromEmail)
	to := mail.NewEmail("", task.NotifyEmail)
	subject := fmt.Sprintf("Compliance check %s - %s", task.Status, task.Filename)
	return mail.NewSingleEmail(from, subject, to, buildNotificationText(task), buildNotificationHTML(task))
}

// reportPDFName derives the attachment name from the uploaded filename
func reportPDFName(filename string) string {
	base := filename
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return fmt.Sprintf("compliance-report-%s.pdf", base)
}

func buildNotificationText(task *models.Task) string {
	var text bytes.Buffer
	text.WriteString(fmt.Sprintf("Document Compliance Check\n%s\n\nHello,\n\n", task.Filename))

	switch {
	case task.Status == models.TaskStatusCompleted && task.Report != nil && task.Report.Compliance != nil:
		r := task.Report.Compliance
		text.WriteString(fmt.Sprintf("Your document was checked.\n\nStatus: %s\nOverall score: %.0f%%\nViolations: %d\n\n",
			r.Summary.ComplianceStatus, r.Summary.OverallScore*100, len(r.Violations)))
		if r.Summary.KeyFindings != "" {
			text.WriteString(fmt.Sprintf("Key findings:\n%s\n\n", r.Summary.KeyFindings))
		}
		text.WriteString("The full report is attached as a PDF document.\n")
	case task.Report != nil && task.Report.Error != nil:
		text.WriteString(fmt.Sprintf("We could not check your document.\n\n%s\n%s\n",
			task.Report.Error.Error, task.Report.Error.Details))
	default:
		text.WriteString(fmt.Sprintf("Your compliance check finished with status %s.\n", task.Status))
	}

	text.WriteString(fmt.Sprintf("\nTask ID: %s\n\n---\nThis is an automated email. Please do not reply.", task.ID))
	return text.String()
}

func buildNotificationHTML(task *models.Task) string {
	var b bytes.Buffer
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #0066cc; color: white; padding: 20px; border-radius: 8px 8px 0 0; }
        .content { background-color: #f8f9fa; padding: 20px; border-radius: 0 0 8px 8px; }
        .summary-box { background-color: white; padding: 15px; border-radius: 5px; margin: 15px 0; border-left: 4px solid #0066cc; }
        .footer { text-align: center; color: #666; font-size: 12px; margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="header">
        <h1 style="margin: 0;">Document Compliance Check</h1>
        <p style="margin: 5px 0 0 0; opacity: 0.9;">` + html.EscapeString(task.Filename) + `</p>
    </div>
    <div class="content">
        <p>Hello,</p>`)

	switch {
	case task.Status == models.TaskStatusCompleted && task.Report != nil && task.Report.Compliance != nil:
		r := task.Report.Compliance
		b.WriteString(fmt.Sprintf(`
        <div class="summary-box">
            <h3 style="margin-top: 0; color: #0066cc;">%s</h3>
            <p>Overall score: <strong>%.0f%%</strong> &middot; Violations: <strong>%d</strong></p>
            <p>%s</p>
        </div>
        <p>The full report is attached as a PDF document.</p>`,
			html.EscapeString(r.Summary.ComplianceStatus), r.Summary.OverallScore*100, len(r.Violations),
			html.EscapeString(r.Summary.KeyFindings)))
	case task.Report != nil && task.Report.Error != nil:
		b.WriteString(`
        <div class="summary-box">
            <h3 style="margin-top: 0; color: #dc3545;">` + html.EscapeString(task.Report.Error.Error) + `</h3>
            <p>` + html.EscapeString(task.Report.Error.Details) + `</p>
        </div>`)
	default:
		b.WriteString(`
        <p>Your compliance check finished with status ` + string(task.Status) + `.</p>`)
	}

	b.WriteString(`
    </div>
    <div class="footer">
        <p>This is an automated email. Please do not reply.</p>
        <p>Task ID: ` + task.ID + `</p>
    </div>
</body>
</html>`)
	return b.String()
}
