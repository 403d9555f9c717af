package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"doc-compliance-checker/internal/llm"
	"doc-compliance-checker/internal/models"
	"doc-compliance-checker/internal/prompts"
	"doc-compliance-checker/internal/validation"
)

// ReportCache stores finished reports by document text hash.
// Get returns nil, nil on a miss.
type ReportCache interface {
	GetReport(ctx context.Context, textHash string) (*models.ComplianceReport, error)
	StoreReport(ctx context.Context, textHash string, report *models.ComplianceReport) error
}

// AIService generates compliance reports and rewritten documents
type AIService struct {
	client  llm.Client
	outputs Storage
	cache   ReportCache
}

// NewAIService creates a new AI service. outputs receives rewritten documents.
func NewAIService(client llm.Client, outputs Storage) *AIService {
	return &AIService{
		client:  client,
		outputs: outputs,
	}
}

// SetReportCache enables report caching
func (s *AIService) SetReportCache(cache ReportCache) {
	s.cache = cache
}

// TextHash is the cache key for a document text
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// GenerateReport asks the model for a compliance report on text, giving it
// the grammar findings as extra context
func (s *AIService) GenerateReport(ctx context.Context, text string, findings []models.GrammarFinding) (*models.ComplianceReport, error) {
	var hash string
	if s.cache != nil {
		hash = TextHash(text)
		cached, err := s.cache.GetReport(ctx, hash)
		if err != nil {
			log.Printf("[AI] WARNING: report cache lookup failed: %v", err)
		} else if cached != nil {
			log.Printf("[AI] Using cached report for document %s", hash[:12])
			return cached, nil
		}
	}

	if findings == nil {
		findings = []models.GrammarFinding{}
	}
	findingsJSON, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal grammar findings: %w", err)
	}

	prompt, err := prompts.Render(prompts.ComplianceCheck, map[string]any{
		"document_text":  text,
		"grammar_errors": string(findingsJSON),
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[AI] Requesting compliance report (%d chars, %d grammar findings)", len(text), len(findings))
	raw, err := s.client.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelInvocationFailed, err)
	}

	report, err := validation.ValidateAndParseReport(stripCodeFences(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v (response preview: %s)", models.ErrMalformedModelOutput, err, preview(raw, 300))
	}
	reconcileStatus(report)

	if hash != "" {
		if err := s.cache.StoreReport(ctx, hash, report); err != nil {
			log.Printf("[AI] WARNING: failed to cache report: %v", err)
		}
	}

	return report, nil
}

// ModifiedDocument is one generated rewrite: the bytes returned to the
// caller and where a copy was stored
type ModifiedDocument struct {
	Location string
	Data     []byte
}

// RewriteDocument asks the model to fix every reported issue and writes the
// result as a new .docx. Each call returns its own bytes; the stored copy is
// overwritten by later rewrites of the same task.
func (s *AIService) RewriteDocument(ctx context.Context, taskID, originalText string, report *models.ComplianceReport) (*ModifiedDocument, error) {
	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal compliance report: %w", err)
	}

	prompt, err := prompts.Render(prompts.Modification, map[string]any{
		"document_text":     originalText,
		"compliance_report": string(reportJSON),
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[AI] Requesting rewrite for task %s", taskID)
	rewritten, err := s.client.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelInvocationFailed, err)
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return nil, fmt.Errorf("%w: model returned an empty rewrite", models.ErrModelInvocationFailed)
	}

	doc, err := BuildDocx(splitParagraphs(rewritten))
	if err != nil {
		return nil, err
	}

	location, err := s.outputs.Save(ctx, ModifiedKey(taskID), bytes.NewReader(doc), DOCXContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store modified document: %w", err)
	}

	log.Printf("[AI] Modified document for task %s saved to %s", taskID, location)
	return &ModifiedDocument{Location: location, Data: doc}, nil
}

// reconcileStatus keeps the summary consistent with the violation list
func reconcileStatus(report *models.ComplianceReport) {
	switch {
	case len(report.Violations) > 0 && report.IsCompliant():
		log.Printf("[AI] Report lists %d violations but claims Compliant, marking Non-Compliant", len(report.Violations))
		report.Summary.ComplianceStatus = models.StatusNonCompliant
	case len(report.Violations) == 0 && !report.IsCompliant():
		log.Printf("[AI] Report is Non-Compliant without itemized violations")
	}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

func splitParagraphs(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return lines
}

// preview shortens s to at most n bytes without splitting a rune
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
