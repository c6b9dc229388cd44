package simplifier

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed intel_report.schema.json
var intelReportSchemaJSON string

// IntelReport is the structured rewrite produced by the model.
type IntelReport struct {
	Summary      string   `json:"summary"`
	AttackVector string   `json:"attack_vector"`
	Impact       string   `json:"impact"`
	Actions      []string `json:"actions"`
	ThreatLevel  string   `json:"threat_level"`
	IsRelevant   bool     `json:"is_relevant"`
	Category     string   `json:"category,omitempty"`
	SEOTitle     string   `json:"seo_title,omitempty"`
}

const (
	minActionSteps = 2
	maxActionSteps = 5
)

var validThreatLevels = map[string]struct{}{
	"low":      {},
	"medium":   {},
	"high":     {},
	"critical": {},
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ParseReport heals a raw model response into a validated report.
// Model output is untrusted: fences and stray prose are stripped before
// decoding, and the payload is checked against the embedded schema.
func ParseReport(raw string) (*IntelReport, error) {
	cleaned := healResponse(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("response is empty")
	}

	value, err := decodeStrictJSON([]byte(cleaned))
	if err != nil {
		recovered, ok := extractJSONObject(cleaned)
		if !ok {
			return nil, fmt.Errorf("decode response JSON: %w", err)
		}
		value, err = decodeStrictJSON([]byte(recovered))
		if err != nil {
			return nil, fmt.Errorf("decode recovered JSON: %w", err)
		}
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize response JSON: %w", err)
	}

	var report IntelReport
	if err := json.Unmarshal(normalized, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}

	normalizeReport(&report)

	// The schema counts raw items, so whitespace padding could sneak a
	// report below the minimum. Re-check after trimming. Irrelevant
	// reports are exempt, their actions are never stored.
	if report.IsRelevant && len(report.Actions) < minActionSteps {
		return nil, fmt.Errorf("actions must list at least %d usable steps, got %d", minActionSteps, len(report.Actions))
	}

	return &report, nil
}

// healResponse strips markdown fences, control characters and
// surrounding prose that models routinely wrap around JSON.
func healResponse(raw string) string {
	text := strings.TrimSpace(raw)

	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// extractJSONObject recovers the outermost {...} span from text that
// still carries prose around the payload.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func normalizeReport(report *IntelReport) {
	report.Summary = strings.TrimSpace(report.Summary)
	report.AttackVector = strings.TrimSpace(report.AttackVector)
	report.Impact = strings.TrimSpace(report.Impact)
	report.Category = strings.TrimSpace(strings.ToLower(report.Category))
	report.SEOTitle = strings.TrimSpace(report.SEOTitle)

	level := strings.TrimSpace(strings.ToLower(report.ThreatLevel))
	if _, ok := validThreatLevels[level]; !ok {
		level = "medium"
	}
	report.ThreatLevel = level

	actions := make([]string, 0, len(report.Actions))
	for _, action := range report.Actions {
		if trimmed := strings.TrimSpace(action); trimmed != "" {
			actions = append(actions, trimmed)
		}
	}
	if len(actions) > maxActionSteps {
		actions = actions[:maxActionSteps]
	}
	report.Actions = actions
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("intel_report.schema.json", strings.NewReader(intelReportSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("intel_report.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}
