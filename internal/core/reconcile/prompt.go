package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agenthands/tally/internal/config"
	"github.com/agenthands/tally/internal/core/model"
)

// DefaultPrompt takes the current record as JSON and the numbered category list.
const DefaultPrompt = `You maintain a public accountability tracker. The current tracker data is:

<CURRENT DATA>
%s
</CURRENT DATA>

Using recent, credible public reporting, decide whether any of these categories need an update:
%s

Respond with ONLY a JSON object in exactly this shape:
{
  "updates": { "<topic name>": <new value> },
  "reasoning": "<one or two sentences naming your sources>",
  "confidence": <number from 0.0 to 1.0>
}

Rules:
- Include only topics that changed. Use the topic names already present in the data where they apply.
- For a topic whose value is an object you may return only the fields that changed.
- A list must be returned in full; it replaces the existing list.
- If nothing needs to change, return an empty "updates" object.`

func formatCategories(categories []config.Category) string {
	var b strings.Builder
	for i, c := range categories {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, c.Name, c.Rule)
	}
	return b.String()
}

// BuildPrompt renders template with the indented record and the category list.
func BuildPrompt(template string, current model.Record, categories []config.Category) (string, error) {
	if template == "" {
		template = DefaultPrompt
	}
	if current == nil {
		current = model.Record{}
	}

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize current record: %w", err)
	}

	return fmt.Sprintf(template, string(data), formatCategories(categories)), nil
}
