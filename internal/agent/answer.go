package agent

import (
	"encoding/json"
	"strings"
)

// ParseAnswer extracts the structured answer from the model's final
// message. Models wrap JSON in code fences or prose often enough that the
// parse is lenient: the first balanced JSON object found is used, and when
// nothing parses the raw content becomes the answer text.
func ParseAnswer(content string) *Answer {
	trimmed := strings.TrimSpace(content)

	candidate := trimmed
	if strings.HasPrefix(candidate, "```") {
		candidate = strings.TrimPrefix(candidate, "```json")
		candidate = strings.TrimPrefix(candidate, "```")
		candidate = strings.TrimSuffix(strings.TrimSpace(candidate), "```")
		candidate = strings.TrimSpace(candidate)
	}
	if start := strings.Index(candidate, "{"); start >= 0 {
		if end := strings.LastIndex(candidate, "}"); end > start {
			var answer Answer
			if err := json.Unmarshal([]byte(candidate[start:end+1]), &answer); err == nil && answer.Answer != "" {
				return &answer
			}
		}
	}

	return &Answer{Answer: trimmed}
}
