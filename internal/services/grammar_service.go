package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"doc-compliance-checker/internal/config"
	"doc-compliance-checker/internal/models"
)

// GrammarChecker finds mechanical grammar and spelling issues in text
type GrammarChecker interface {
	Check(ctx context.Context, text string) []models.GrammarFinding
}

// GrammarService talks to a LanguageTool server.
// When the server is not configured or not reachable at startup it is
// disabled and every check returns no findings.
type GrammarService struct {
	baseURL  string
	language string
	client   *http.Client
	enabled  bool
}

// languageTool /v2/check response structures
type ltResponse struct {
	Matches []ltMatch `json:"matches"`
}

type ltMatch struct {
	Message      string          `json:"message"`
	Offset       int             `json:"offset"`
	Length       int             `json:"length"`
	Replacements []ltReplacement `json:"replacements"`
	Context      ltContext       `json:"context"`
	Rule         ltRule          `json:"rule"`
}

type ltReplacement struct {
	Value string `json:"value"`
}

type ltContext struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

type ltRule struct {
	ID string `json:"id"`
}

// NewGrammarService creates the LanguageTool adapter and checks the server once
func NewGrammarService(cfg config.GrammarConfig) *GrammarService {
	s := &GrammarService{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		language: cfg.Language,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
	if s.language == "" {
		s.language = "en-US"
	}

	if s.baseURL == "" {
		log.Printf("[GRAMMAR] LANGUAGETOOL_URL not configured, grammar checks will be skipped")
		return s
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.checkLanguages(ctx); err != nil {
		log.Printf("[GRAMMAR] WARNING: Could not initialize LanguageTool at %s, grammar checks will be skipped: %v", s.baseURL, err)
		return s
	}

	s.enabled = true
	log.Printf("[GRAMMAR] LanguageTool ready at %s (language=%s)", s.baseURL, s.language)
	return s
}

// Enabled reports whether checks reach a live LanguageTool server
func (s *GrammarService) Enabled() bool {
	return s.enabled
}

// checkLanguages verifies the server supports the configured language
func (s *GrammarService) checkLanguages(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v2/languages", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var langs []struct {
		LongCode string `json:"longCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&langs); err != nil {
		return fmt.Errorf("failed to parse languages: %w", err)
	}
	for _, l := range langs {
		if strings.EqualFold(l.LongCode, s.language) {
			return nil
		}
	}
	return fmt.Errorf("language %s not available", s.language)
}

// Check returns one finding per LanguageTool match, in the order the server reported them.
// Errors are logged and produce an empty result.
func (s *GrammarService) Check(ctx context.Context, text string) []models.GrammarFinding {
	if !s.enabled {
		return []models.GrammarFinding{}
	}

	findings, err := s.check(ctx, text)
	if err != nil {
		log.Printf("[GRAMMAR] WARNING: grammar check failed, continuing without findings: %v", err)
		return []models.GrammarFinding{}
	}
	return findings
}

func (s *GrammarService) check(ctx context.Context, text string) ([]models.GrammarFinding, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", s.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v2/check", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LanguageTool request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("LanguageTool error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed ltResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse LanguageTool response: %w", err)
	}

	findings := make([]models.GrammarFinding, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		replacements := make([]string, 0, len(m.Replacements))
		for _, r := range m.Replacements {
			replacements = append(replacements, r.Value)
		}
		findings = append(findings, models.GrammarFinding{
			RuleID:       m.Rule.ID,
			Message:      m.Message,
			Context:      m.Context.Text,
			Offset:       m.Offset,
			Length:       m.Length,
			Replacements: replacements,
		})
	}
	return findings, nil
}
