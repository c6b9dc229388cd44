package simplifier

import (
	"strings"
	"testing"
)

const validReportJSON = `{
	"summary": "A hospital chain was hit by ransomware.",
	"attack_vector": "Phishing email with a malicious attachment.",
	"impact": "Patient scheduling was offline for two days.",
	"actions": ["Patch mail gateways", "Train staff on phishing", "Rotate credentials"],
	"threat_level": "high",
	"is_relevant": true
}`

func TestParseReport_Valid(t *testing.T) {
	t.Parallel()

	report, err := ParseReport(validReportJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ThreatLevel != "high" {
		t.Fatalf("unexpected threat level: %q", report.ThreatLevel)
	}
	if len(report.Actions) != 3 {
		t.Fatalf("unexpected action count: %d", len(report.Actions))
	}
	if !report.IsRelevant {
		t.Fatalf("expected is_relevant to be true")
	}
}

func TestParseReport_StripsMarkdownFences(t *testing.T) {
	t.Parallel()

	report, err := ParseReport("```json\n" + validReportJSON + "\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Summary == "" {
		t.Fatalf("expected summary to survive fence stripping")
	}
}

func TestParseReport_RecoversFromSurroundingProse(t *testing.T) {
	t.Parallel()

	raw := "Here is the analysis you asked for:\n" + validReportJSON + "\nLet me know if you need more."
	report, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.AttackVector == "" {
		t.Fatalf("expected attack vector to be recovered")
	}
}

func TestParseReport_CoercesUnknownThreatLevel(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(validReportJSON, `"high"`, `"apocalyptic"`, 1)
	report, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ThreatLevel != "medium" {
		t.Fatalf("expected coercion to medium, got %q", report.ThreatLevel)
	}
}

func TestParseReport_TruncatesActions(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(validReportJSON,
		`["Patch mail gateways", "Train staff on phishing", "Rotate credentials"]`,
		`["a1", "a2", "a3", "a4", "a5", "a6", "a7"]`, 1)
	report, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Actions) != maxActionSteps {
		t.Fatalf("expected %d actions, got %d", maxActionSteps, len(report.Actions))
	}
}

func TestParseReport_RejectsTooFewActions(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(validReportJSON,
		`["Patch mail gateways", "Train staff on phishing", "Rotate credentials"]`,
		`["only one"]`, 1)
	if _, err := ParseReport(raw); err == nil {
		t.Fatalf("expected schema rejection for a single action")
	}
}

func TestParseReport_RejectsWhitespacePaddedActions(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(validReportJSON,
		`["Patch mail gateways", "Train staff on phishing", "Rotate credentials"]`,
		`["Patch mail gateways", "   "]`, 1)
	if _, err := ParseReport(raw); err == nil {
		t.Fatalf("expected rejection when trimming drops actions below the minimum")
	}
}

func TestParseReport_RejectsMissingKeys(t *testing.T) {
	t.Parallel()

	raw := strings.Replace(validReportJSON, `"summary": "A hospital chain was hit by ransomware.",`, "", 1)
	if _, err := ParseReport(raw); err == nil {
		t.Fatalf("expected schema rejection for missing summary")
	}
}

func TestParseReport_RejectsNonJSON(t *testing.T) {
	t.Parallel()

	if _, err := ParseReport("I could not analyze this article, sorry."); err == nil {
		t.Fatalf("expected error for prose-only response")
	}
}

func TestHealResponse_RemovesControlCharacters(t *testing.T) {
	t.Parallel()

	got := healResponse("{\"a\":\x01\"b\"}")
	if got != `{"a":"b"}` {
		t.Fatalf("unexpected healed text: %q", got)
	}
}
