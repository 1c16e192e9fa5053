package llm

import "github.com/use-agent/harvest/cleaner"

// Chat formatting overhead, matching OpenAI's accounting for chat models.
const (
	tokensPerMessage = 3
	tokensReplyPrime = 3
)

// CountText estimates the token count of s.
func CountText(s string) int {
	return cleaner.EstimateTokens(s)
}

// CountMessages estimates the prompt tokens of a chat exchange.
func CountMessages(msgs []Message) int {
	if len(msgs) == 0 {
		return 0
	}
	n := tokensReplyPrime
	for _, m := range msgs {
		n += tokensPerMessage + CountText(m.Role) + CountText(m.Content)
	}
	return n
}
