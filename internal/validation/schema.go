package validation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"doc-compliance-checker/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/compliance_report.json
var complianceReportSchema []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// ReportSchema returns the compiled compliance report schema
func ReportSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(complianceReportSchema))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to create schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// ValidateReport validates a report JSON string against a schema
func ValidateReport(reportJSON string, schema *gojsonschema.Schema) error {
	documentLoader := gojsonschema.NewStringLoader(reportJSON)
	result, err := schema.Validate(documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate: %w", err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// ValidateAndParseReport validates and unmarshals a report JSON string
func ValidateAndParseReport(reportJSON string) (*models.ComplianceReport, error) {
	schema, err := ReportSchema()
	if err != nil {
		return nil, err
	}

	if err := ValidateReport(reportJSON, schema); err != nil {
		return nil, err
	}

	var report models.ComplianceReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if report.Violations == nil {
		report.Violations = []models.Violation{}
	}

	return &report, nil
}
