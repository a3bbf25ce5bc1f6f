package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/snagasawa/tubuyaki/pkg/types"
)

// TransformResult is the normalized output of one transform call. Every field
// is populated: the defaulting rules below guarantee no nils or out-of-range
// values regardless of what the model omitted.
type TransformResult struct {
	CleanText     string
	Intent        []string
	Entities      types.Entities
	Summary3Lines string
	Ideas         []string
	NextAction    string
	Confidence    float64
	Context       string

	// ConfirmQuestion is a clarifying question the model may supply when
	// confidence is below 0.5. Surfaced to the caller only; it is never
	// persisted on the record.
	ConfirmQuestion string
}

// transformResponse mirrors the JSON contract of the transform prompt.
// Pointer fields distinguish "omitted" from zero values.
type transformResponse struct {
	CleanText       string          `json:"clean_text"`
	Intent          []string        `json:"intent"`
	Entities        *entitiesWire   `json:"entities"`
	Summary3Lines   string          `json:"summary_3lines"`
	Ideas           []string        `json:"ideas"`
	NextAction      string          `json:"next_action"`
	Confidence      *float64        `json:"confidence"`
	Context         string          `json:"context"`
	ConfirmQuestion *string         `json:"confirm_question"`
}

type entitiesWire struct {
	People        []string `json:"people"`
	Places        []string `json:"places"`
	Deadlines     []string `json:"deadlines"`
	Amounts       []string `json:"amounts"`
	Tools         []string `json:"tools"`
	Organizations []string `json:"organizations"`
}

// maxIdeas caps the idea list regardless of what the model returns.
const maxIdeas = 3

// ParseTransformResponse parses and normalizes the model's response text.
//
// Parsed strictly: anything that isn't a JSON object matching the contract is
// an error, never a partially-filled result. Missing optional fields default
// per the transform contract (rawText for clean_text, ["Note"] for intent,
// empty buckets, 0.5 confidence, "unknown" context). Intent tags outside the
// fixed vocabulary are passed through as-is so newer prompt revisions keep
// working against older binaries.
func ParseTransformResponse(response, rawText string) (*TransformResult, error) {
	jsonStr := extractJSON(response)
	if strings.TrimSpace(jsonStr) == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var wire transformResponse
	if err := json.Unmarshal([]byte(jsonStr), &wire); err != nil {
		return nil, fmt.Errorf("failed to parse transform response: %w", err)
	}

	result := &TransformResult{
		CleanText:     wire.CleanText,
		Intent:        wire.Intent,
		Summary3Lines: wire.Summary3Lines,
		Ideas:         wire.Ideas,
		NextAction:    wire.NextAction,
		Context:       wire.Context,
		Confidence:    0.5,
	}

	if result.CleanText == "" {
		result.CleanText = rawText
	}
	if len(result.Intent) == 0 {
		result.Intent = []string{types.IntentNote}
	}
	if result.Ideas == nil {
		result.Ideas = []string{}
	}
	if len(result.Ideas) > maxIdeas {
		result.Ideas = result.Ideas[:maxIdeas]
	}
	if result.Context == "" {
		result.Context = "unknown"
	}

	if wire.Confidence != nil {
		result.Confidence = *wire.Confidence
		if result.Confidence < 0 {
			result.Confidence = 0
		}
		if result.Confidence > 1 {
			result.Confidence = 1
		}
	}

	if wire.ConfirmQuestion != nil {
		result.ConfirmQuestion = *wire.ConfirmQuestion
	}

	result.Entities = *types.EmptyEntities()
	if wire.Entities != nil {
		if wire.Entities.People != nil {
			result.Entities.People = wire.Entities.People
		}
		if wire.Entities.Places != nil {
			result.Entities.Places = wire.Entities.Places
		}
		if wire.Entities.Deadlines != nil {
			result.Entities.Deadlines = wire.Entities.Deadlines
		}
		if wire.Entities.Amounts != nil {
			result.Entities.Amounts = wire.Entities.Amounts
		}
		if wire.Entities.Tools != nil {
			result.Entities.Tools = wire.Entities.Tools
		}
		if wire.Entities.Organizations != nil {
			result.Entities.Organizations = wire.Entities.Organizations
		}
	}

	return result, nil
}

// extractJSON extracts the first complete JSON object from a string that may
// contain extra text. This handles models that add markdown fences or
// explanations around the JSON despite instructions.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // no JSON found; let the parser fail with the raw text
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	// Unbalanced braces; return from the first brace and let the parser fail.
	return text[start:]
}
