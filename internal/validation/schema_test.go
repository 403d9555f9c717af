package validation

import (
	"testing"

	"doc-compliance-checker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndParseReport_Valid(t *testing.T) {
	raw := `{
		"summary": {"compliance_status": "Non-Compliant", "overall_score": 0.55, "key_findings": "Subject-verb agreement."},
		"violations": [
			{"type": "Grammar", "description": "Agreement", "context": "This document have", "suggestion": "This document has"}
		]
	}`

	report, err := ValidateAndParseReport(raw)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonCompliant, report.Summary.ComplianceStatus)
	assert.InDelta(t, 0.55, report.Summary.OverallScore, 1e-9)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, models.ViolationGrammar, report.Violations[0].Type)
}

func TestValidateAndParseReport_Rejects(t *testing.T) {
	tests := map[string]string{
		"not json":       `here is your report`,
		"missing fields": `{"summary": {"compliance_status": "Compliant"}}`,
		"bad status":     `{"summary": {"compliance_status": "Mostly fine", "overall_score": 0.9, "key_findings": ""}, "violations": []}`,
		"score range":    `{"summary": {"compliance_status": "Compliant", "overall_score": 7, "key_findings": ""}, "violations": []}`,
		"bad type":       `{"summary": {"compliance_status": "Non-Compliant", "overall_score": 0.2, "key_findings": ""}, "violations": [{"type": "Spelling", "description": "", "context": "", "suggestion": ""}]}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateAndParseReport(raw)
			assert.Error(t, err)
		})
	}
}
