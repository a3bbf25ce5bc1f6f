// Package llm provides the LLM integration for the tubuyaki transform
// pipeline: provider clients (Gemini, Ollama, OpenAI), the transform prompt
// in its two summary-policy variants, and a strict response parser with
// defaulting rules that hold regardless of prompt wording.
package llm

import (
	"fmt"
	"strings"
)

// SummaryPolicy selects between the two historical prompt variants, which
// disagree on whether the summary must always be exactly three lines and
// whether ideas may be empty.
type SummaryPolicy string

const (
	// PolicyAdaptive allows the summary to collapse to one or two lines and
	// ideas to be empty when the content is thin. This is the default.
	PolicyAdaptive SummaryPolicy = "adaptive"

	// PolicyStrict requires exactly three summary lines and asks for the
	// full three ideas whenever possible.
	PolicyStrict SummaryPolicy = "strict"
)

// IsValidSummaryPolicy checks if the given policy is known.
func IsValidSummaryPolicy(p SummaryPolicy) bool {
	return p == PolicyAdaptive || p == PolicyStrict
}

// TransformPrompt builds the transform prompt for a single utterance.
// The policy only changes the summary/ideas instructions; the output contract
// and the parser's defaulting rules are identical for both variants.
func TransformPrompt(rawText string, policy SummaryPolicy) string {
	var summaryRule, ideasRule string
	switch policy {
	case PolicyStrict:
		summaryRule = `4. "summary_3lines": Summarize in EXACTLY three lines joined by \n:
   - line 1: what happened (fact)
   - line 2: what was felt (emotion/evaluation)
   - line 3: what is at stake (issue/question)`
		ideasRule = `5. "ideas": Generate three ideas whenever the content allows:
   - idea 1: realistic (a concrete action to try immediately)
   - idea 2: productization (potential as an app or mechanism)
   - idea 3: user-fit optimization (one screen, low friction, habit trigger)`
	default:
		summaryRule = `4. "summary_3lines": Summarize in up to three lines joined by \n
   (fact / feeling / open issue). One or two lines are fine for thin content.`
		ideasRule = `5. "ideas": Generate 0 to 3 ideas:
   - idea 1: realistic (a concrete action to try immediately)
   - idea 2: productization (potential as an app or mechanism)
   - idea 3: user-fit optimization (one screen, low friction, habit trigger)
   An empty list is acceptable when the content offers nothing to build on.`
	}

	return fmt.Sprintf(`TASK: Convert a raw spoken/typed note (captured while walking, driving, or in daily life) into structured data.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO explanations.

PROCESSING RULES:
1. "clean_text": Remove fillers (um, uh, well / えーと, あの, まあ), restarts, and
   repetitions. Keep the language of the input. NEVER change the meaning.
2. "intent": Assign one or more tags from: Problem, Desire, Insight, Decision, Note
   - complaints and grumbling always get Problem
   - assign every tag that applies
3. "entities": Extract proper nouns and figures into six buckets:
   - people: personal names
   - places: locations
   - deadlines: dates, times, due dates
   - amounts: money and quantities
   - tools: tools, apps, software
   - organizations: companies and groups
   Use empty arrays for buckets with nothing to extract.
%s
%s
6. "next_action": Exactly one next step: an action to take or the question to answer next.
7. "confidence": Your certainty from 0 to 1. If below 0.5, also set "confirm_question"
   to a single clarifying question.
8. "context": Infer the situation from the content: "walk", "drive", or "unknown".

REQUIRED JSON STRUCTURE:
{
  "clean_text": "...",
  "intent": ["Problem"],
  "entities": {
    "people": [],
    "places": [],
    "deadlines": [],
    "amounts": [],
    "tools": [],
    "organizations": []
  },
  "summary_3lines": "line1\nline2\nline3",
  "ideas": ["idea 1", "idea 2", "idea 3"],
  "next_action": "...",
  "confidence": 0.8,
  "context": "unknown",
  "confirm_question": null
}

INPUT:
%s

OUTPUT (valid JSON only):`, summaryRule, ideasRule, strings.TrimSpace(rawText))
}
