package checker

import (
	"bytes"
	"encoding/json"
	"strings"

	"gp-intake-checker/internal/domain/entity"
)

// DefaultMaxSteps caps a single agent run.
const DefaultMaxSteps = 40

// BuildTask returns the instruction text for one practice. The practice name
// and URL are embedded as JSON literals in the output schema so the agent has
// nothing to invent for the identity fields.
func BuildTask(practice, url string) string {
	var b strings.Builder

	b.WriteString("You are an automated browser agent. Determine whether the GP practice is currently accepting new patients.\n\n")
	b.WriteString("Practice: " + practice + "\n")
	b.WriteString("URL: " + url + "\n\n")

	b.WriteString(`Steps:
1. Open the given homepage URL.
2. If a cookie pop-up appears, reject/decline all cookies (do not accept).
3. Navigate through the site to find content about 'new patients', 'accepting', 'not accepting', 'registration', or similar.
4. Scroll as needed to locate the relevant statement.
5. Extract the exact text that indicates the status.
6. Decide one of three statuses: Accepting, Not Accepting, or Unclear.
7. If status is Accepting, find a contact email address for the practice; otherwise leave it null.

Output requirements:
- Return ONLY valid JSON (no markdown, no code fences, no extra text).
- The JSON MUST be a single-element array with exactly one object for this practice.
- evidence MUST be an exact snippet copied from the page that supports the status.
- If you cannot find an explicit statement, set status to Unclear and set evidence to the closest relevant text you found (or empty string if none).
- contact_email MUST be a single email address string when status is Accepting; otherwise null.

`)

	b.WriteString("Schema for the single object:\n{\n")
	b.WriteString(`  "practice": ` + jsonString(practice) + ",\n")
	b.WriteString(`  "url": ` + jsonString(url) + ",\n")
	b.WriteString(`  "status": ` + statusChoices() + ",\n")
	b.WriteString(`  "evidence": "...",` + "\n")
	b.WriteString(`  "contact_email": null,` + "\n")
	b.WriteString(`  "checked_at": null` + "\n")
	b.WriteString("}")

	return b.String()
}

// OutputSchema describes the payload the agent must finish with.
func OutputSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}

	return map[string]any{
		"type":     "array",
		"minItems": 0,
		"maxItems": 1,
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"practice": map[string]any{"type": "string"},
				"url":      map[string]any{"type": "string"},
				"status": map[string]any{
					"type": "string",
					"enum": []string{
						entity.StatusAccepting.String(),
						entity.StatusNotAccepting.String(),
						entity.StatusUnclear.String(),
					},
				},
				"evidence":      map[string]any{"type": "string"},
				"contact_email": nullableString,
				"checked_at":    nullableString,
			},
			"required": []string{"practice", "url", "status", "evidence"},
		},
	}
}

func statusChoices() string {
	return jsonString(entity.StatusAccepting.String()) + " | " +
		jsonString(entity.StatusNotAccepting.String()) + " | " +
		jsonString(entity.StatusUnclear.String())
}

func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// encoding a string never fails
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
