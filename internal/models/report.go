package models

// Compliance status values produced by the report generator
const (
	StatusCompliant    = "Compliant"
	StatusNonCompliant = "Non-Compliant"
)

// Violation types the model may report
const (
	ViolationGrammar           = "Grammar"
	ViolationClarity           = "Clarity"
	ViolationSentenceStructure = "Sentence Structure"
	ViolationTone              = "Tone"
)

// ComplianceReport is the structured verdict for one document
type ComplianceReport struct {
	Summary    ReportSummary `json:"summary" bson:"summary"`
	Violations []Violation   `json:"violations" bson:"violations"`
}

// ReportSummary is the top-level judgment
type ReportSummary struct {
	ComplianceStatus string  `json:"compliance_status" bson:"compliance_status"`
	OverallScore     float64 `json:"overall_score" bson:"overall_score"`
	KeyFindings      string  `json:"key_findings" bson:"key_findings"`
}

// Violation is a single itemized issue
type Violation struct {
	Type        string `json:"type" bson:"type"`
	Description string `json:"description" bson:"description"`
	Context     string `json:"context" bson:"context"`
	Suggestion  string `json:"suggestion" bson:"suggestion"`
}

// IsCompliant reports whether the summary status is Compliant
func (r *ComplianceReport) IsCompliant() bool {
	return r.Summary.ComplianceStatus == StatusCompliant
}

// GrammarFinding is one issue reported by the local grammar checker.
// It only feeds the compliance prompt and is never persisted.
type GrammarFinding struct {
	RuleID       string   `json:"ruleId"`
	Message      string   `json:"message"`
	Context      string   `json:"context"`
	Offset       int      `json:"offset"`
	Length       int      `json:"length"`
	Replacements []string `json:"replacements"`
}
