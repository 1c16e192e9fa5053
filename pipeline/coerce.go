package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	reasoningBlock = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)
	codeFence      = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// coerceOutput turns model output into a JSON document. Valid JSON is
// kept as is. Reasoning preambles and markdown fences are peeled off
// before giving up; anything still invalid becomes {"raw_text": text}.
func coerceOutput(text string) json.RawMessage {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}

	peeled := reasoningBlock.ReplaceAllString(trimmed, "")
	if m := codeFence.FindStringSubmatch(peeled); m != nil {
		peeled = m[1]
	}
	peeled = strings.TrimSpace(peeled)
	if peeled != "" && json.Valid([]byte(peeled)) {
		return json.RawMessage(peeled)
	}

	raw, _ := json.Marshal(map[string]string{"raw_text": text})
	return raw
}
