package prompts

import (
	"fmt"
	"strings"
	"text/template"
)

// Template names
const (
	ComplianceCheck = "compliance_check"
	Modification    = "modification"
)

var templates = template.Must(template.New(ComplianceCheck).Option("missingkey=error").Parse(complianceCheckTemplate))

func init() {
	template.Must(templates.New(Modification).Parse(modificationTemplate))
}

// Render fills the named template with vars
func Render(name string, vars map[string]any) (string, error) {
	t := templates.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
	var b strings.Builder
	if err := t.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return b.String(), nil
}

const complianceCheckTemplate = `You are an assistant that checks a document against standard English writing guidelines.
The guidelines cover:
1. **Grammar and Spelling:** correct grammar, punctuation and spelling.
2. **Clarity:** clear, concise text that is easy to understand, without jargon or needlessly complex sentences.
3. **Sentence Structure:** varied sentence structure, with active voice preferred over passive voice.
4. **Tone:** a professional and objective tone.

**Input Document Text:**
---
{{.document_text}}
---

**Initial Grammar/Spelling Errors (from LanguageTool):**
---
{{.grammar_errors}}
---

**Your Task:**
Review the document text together with the initial grammar errors and produce a compliance report in JSON with this structure:
{
  "summary": {
    "compliance_status": "Compliant" | "Non-Compliant",
    "overall_score": <a number between 0.0 and 1.0 for overall compliance>,
    "key_findings": "<a short summary of the main issues, or a statement of compliance>"
  },
  "violations": [
    {
      "type": "Grammar" | "Clarity" | "Sentence Structure" | "Tone",
      "description": "<what is wrong>",
      "context": "<the text snippet where it occurs>",
      "suggestion": "<a concrete fix>"
    }
  ]
}

- When there are no violations, "violations" must be an empty array and the status must be "Compliant".
- Fold the initial grammar errors into the final report.
- Also look for higher-level problems such as unclear wording, passive voice and tone that a grammar checker misses.

Return only the JSON report, without markdown formatting such as ` + "```json" + `.
`

const modificationTemplate = `You are an assistant that rewrites a document so it fully complies with standard English writing guidelines.

**Original Document Text:**
---
{{.document_text}}
---

**Compliance Report (Issues to fix):**
---
{{.compliance_report}}
---

**Your Task:**
Rewrite the whole document to fix every issue in the compliance report. The revised document must:
- Correct all grammar and spelling mistakes.
- Be clearer and more concise.
- Use active voice where appropriate.
- Keep a professional, consistent tone.
- Preserve the original meaning and intent.

Return only the full rewritten text of the document, with no explanations or introductions.
`
