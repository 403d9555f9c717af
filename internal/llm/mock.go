package llm

import (
	"context"
	"strings"
	"sync"
)

// MockClient is used in tests and when LLM_PROVIDER=mock.
// JSONFunc and TextFunc override the canned behavior when set.
type MockClient struct {
	JSONFunc func(prompt string) (string, error)
	TextFunc func(prompt string) (string, error)

	mu          sync.Mutex
	jsonPrompts []string
	textPrompts []string
}

const (
	mockCompliantReport = `{"summary":{"compliance_status":"Compliant","overall_score":0.95,"key_findings":"The document follows the writing guidelines."},"violations":[]}`
	mockViolationReport = `{"summary":{"compliance_status":"Non-Compliant","overall_score":0.4,"key_findings":"The grammar checker reported issues."},"violations":[{"type":"Grammar","description":"The local grammar checker reported at least one issue.","context":"","suggestion":"Apply the suggested replacements."}]}`
	mockRewrite         = "This document was revised to follow the writing guidelines."
)

// GenerateJSON implements Client. Without JSONFunc it reports a grammar
// violation whenever the prompt carries grammar findings.
func (m *MockClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.jsonPrompts = append(m.jsonPrompts, prompt)
	m.mu.Unlock()

	if m.JSONFunc != nil {
		return m.JSONFunc(prompt)
	}
	if strings.Contains(prompt, `"ruleId"`) {
		return mockViolationReport, nil
	}
	return mockCompliantReport, nil
}

// GenerateText implements Client
func (m *MockClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.textPrompts = append(m.textPrompts, prompt)
	m.mu.Unlock()

	if m.TextFunc != nil {
		return m.TextFunc(prompt)
	}
	return mockRewrite, nil
}

// Close implements Client
func (m *MockClient) Close() error {
	return nil
}

// JSONPrompts returns every prompt sent to GenerateJSON
func (m *MockClient) JSONPrompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.jsonPrompts...)
}

// TextPrompts returns every prompt sent to GenerateText
func (m *MockClient) TextPrompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.textPrompts...)
}
