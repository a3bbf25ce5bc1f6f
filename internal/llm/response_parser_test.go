package llm

import (
	"strings"
	"testing"

	"github.com/snagasawa/tubuyaki/pkg/types"
)

func TestParseTransformResponse_Complete(t *testing.T) {
	response := `{
		"clean_text": "The scheduling sync keeps slipping",
		"intent": ["Problem", "Insight"],
		"entities": {
			"people": ["Tanaka"],
			"places": ["Shibuya"],
			"deadlines": ["Friday"],
			"amounts": ["3000 yen"],
			"tools": ["Slack"],
			"organizations": ["Acme"]
		},
		"summary_3lines": "line1\nline2\nline3",
		"ideas": ["pin a recurring slot", "auto-reschedule bot"],
		"next_action": "propose a fixed weekly slot",
		"confidence": 0.85,
		"context": "walk",
		"confirm_question": null
	}`

	result, err := ParseTransformResponse(response, "raw input")
	if err != nil {
		t.Fatalf("ParseTransformResponse failed: %v", err)
	}

	if result.CleanText != "The scheduling sync keeps slipping" {
		t.Errorf("unexpected cleanText: %q", result.CleanText)
	}
	if len(result.Intent) != 2 || result.Intent[0] != types.IntentProblem {
		t.Errorf("unexpected intent: %v", result.Intent)
	}
	if len(result.Entities.People) != 1 || result.Entities.People[0] != "Tanaka" {
		t.Errorf("unexpected people: %v", result.Entities.People)
	}
	if result.Entities.Organizations[0] != "Acme" {
		t.Errorf("unexpected organizations: %v", result.Entities.Organizations)
	}
	if result.Summary3Lines != "line1\nline2\nline3" {
		t.Errorf("unexpected summary: %q", result.Summary3Lines)
	}
	if len(result.Ideas) != 2 {
		t.Errorf("expected 2 ideas, got %d", len(result.Ideas))
	}
	if result.NextAction != "propose a fixed weekly slot" {
		t.Errorf("unexpected nextAction: %q", result.NextAction)
	}
	if result.Confidence != 0.85 {
		t.Errorf("unexpected confidence: %v", result.Confidence)
	}
	if result.Context != "walk" {
		t.Errorf("unexpected context: %q", result.Context)
	}
	if result.ConfirmQuestion != "" {
		t.Errorf("expected no confirm question, got %q", result.ConfirmQuestion)
	}
}

func TestParseTransformResponse_Defaults(t *testing.T) {
	result, err := ParseTransformResponse(`{}`, "keep me as-is")
	if err != nil {
		t.Fatalf("ParseTransformResponse failed: %v", err)
	}

	if result.CleanText != "keep me as-is" {
		t.Errorf("cleanText should fall back to raw text, got %q", result.CleanText)
	}
	if len(result.Intent) != 1 || result.Intent[0] != types.IntentNote {
		t.Errorf("intent should default to [Note], got %v", result.Intent)
	}
	if result.Confidence != 0.5 {
		t.Errorf("confidence should default to 0.5, got %v", result.Confidence)
	}
	if result.Context != "unknown" {
		t.Errorf("context should default to unknown, got %q", result.Context)
	}
	if result.Ideas == nil || len(result.Ideas) != 0 {
		t.Errorf("ideas should default to empty slice, got %v", result.Ideas)
	}
	for _, bucket := range [][]string{
		result.Entities.People, result.Entities.Places, result.Entities.Deadlines,
		result.Entities.Amounts, result.Entities.Tools, result.Entities.Organizations,
	} {
		if bucket == nil || len(bucket) != 0 {
			t.Errorf("entity buckets should default to empty slices, got %+v", result.Entities)
		}
	}
}

func TestParseTransformResponse_MarkdownFences(t *testing.T) {
	response := "Here is the result:\n```json\n{\"clean_text\": \"fenced\", \"intent\": [\"Note\"]}\n```\nDone."

	result, err := ParseTransformResponse(response, "raw")
	if err != nil {
		t.Fatalf("ParseTransformResponse failed on fenced JSON: %v", err)
	}
	if result.CleanText != "fenced" {
		t.Errorf("unexpected cleanText: %q", result.CleanText)
	}
}

func TestParseTransformResponse_Garbage(t *testing.T) {
	cases := []string{
		"",
		"I am sorry, I cannot help with that.",
		"{\"clean_text\": \"unterminated",
	}
	for _, response := range cases {
		if _, err := ParseTransformResponse(response, "raw"); err == nil {
			t.Errorf("expected error for response %q", response)
		}
	}
}

func TestParseTransformResponse_UnknownIntentPassedThrough(t *testing.T) {
	result, err := ParseTransformResponse(`{"intent": ["Question", "Problem"]}`, "raw")
	if err != nil {
		t.Fatalf("ParseTransformResponse failed: %v", err)
	}
	if len(result.Intent) != 2 || result.Intent[0] != "Question" {
		t.Errorf("unknown tags should pass through unchanged, got %v", result.Intent)
	}
}

func TestParseTransformResponse_IdeasCapped(t *testing.T) {
	result, err := ParseTransformResponse(`{"ideas": ["a", "b", "c", "d", "e"]}`, "raw")
	if err != nil {
		t.Fatalf("ParseTransformResponse failed: %v", err)
	}
	if len(result.Ideas) != maxIdeas {
		t.Errorf("expected ideas capped at %d, got %d", maxIdeas, len(result.Ideas))
	}
	if result.Ideas[2] != "c" {
		t.Errorf("cap should keep the first ideas, got %v", result.Ideas)
	}
}

func TestParseTransformResponse_ConfidenceClamped(t *testing.T) {
	cases := []struct {
		response string
		want     float64
	}{
		{`{"confidence": -0.3}`, 0},
		{`{"confidence": 1.7}`, 1},
		{`{"confidence": 0}`, 0},
		{`{"confidence": 1}`, 1},
	}
	for _, tc := range cases {
		result, err := ParseTransformResponse(tc.response, "raw")
		if err != nil {
			t.Fatalf("ParseTransformResponse(%q) failed: %v", tc.response, err)
		}
		if result.Confidence != tc.want {
			t.Errorf("ParseTransformResponse(%q) confidence = %v, want %v", tc.response, result.Confidence, tc.want)
		}
	}
}

func TestParseTransformResponse_ConfirmQuestion(t *testing.T) {
	result, err := ParseTransformResponse(`{"confidence": 0.3, "confirm_question": "Did you mean the Q3 report?"}`, "raw")
	if err != nil {
		t.Fatalf("ParseTransformResponse failed: %v", err)
	}
	if result.ConfirmQuestion != "Did you mean the Q3 report?" {
		t.Errorf("unexpected confirmQuestion: %q", result.ConfirmQuestion)
	}
}

func TestParseTransformResponse_PartialEntities(t *testing.T) {
	result, err := ParseTransformResponse(`{"entities": {"people": ["Sato"]}}`, "raw")
	if err != nil {
		t.Fatalf("ParseTransformResponse failed: %v", err)
	}
	if len(result.Entities.People) != 1 || result.Entities.People[0] != "Sato" {
		t.Errorf("unexpected people: %v", result.Entities.People)
	}
	if result.Entities.Places == nil {
		t.Error("omitted buckets should still be empty slices, got nil")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"leading prose", `Sure! {"a": 1}`, `{"a": 1}`},
		{"trailing prose", `{"a": 1} hope this helps`, `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"brace inside string", `{"a": "}"}`, `{"a": "}"}`},
		{"escaped quote", `{"a": "say \"hi\""}`, `{"a": "say \"hi\""}`},
	}
	for _, tc := range cases {
		if got := extractJSON(tc.input); got != tc.want {
			t.Errorf("%s: extractJSON(%q) = %q, want %q", tc.name, tc.input, got, tc.want)
		}
	}
}

func TestExtractJSON_Unbalanced(t *testing.T) {
	got := extractJSON(`prefix {"a": 1`)
	if !strings.HasPrefix(got, `{"a"`) {
		t.Errorf("unbalanced input should return from the first brace, got %q", got)
	}
}
