// Package utils provides tiktoken-based token counting utilities.
package utils

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

//nolint:gochecknoglobals // codec construction loads BPE tables once per process
var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

func sharedCodec() tokenizer.Codec {
	codecOnce.Do(func() {
		// Every supported provider is approximated with the GPT-4 encoding.
		c, err := tokenizer.ForModel(tokenizer.GPT4)
		if err == nil {
			codec = c
		}
	})
	return codec
}

// CountTokens returns the number of tokens in text.
// Falls back to a 4-chars-per-token estimate if the codec is unavailable.
func CountTokens(text string) int {
	c := sharedCodec()
	if c == nil {
		return len(text) / 4
	}
	count, err := c.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// CountPromptTokens estimates the prompt size of a multi-message request.
// Each message adds a small framing overhead, as chat APIs do.
func CountPromptTokens(messages ...string) int {
	const perMessageOverhead = 4
	total := 0
	for _, m := range messages {
		total += CountTokens(m) + perMessageOverhead
	}
	return total
}

// TruncateToTokenLimit truncates text to roughly fit within limit tokens.
// It cuts by characters, not exact token boundaries.
func TruncateToTokenLimit(text string, limit int) string {
	current := CountTokens(text)
	if current <= limit {
		return text
	}

	ratio := float64(limit) / float64(current)
	charLimit := int(float64(len(text)) * ratio * 0.9)
	if charLimit >= len(text) {
		return text
	}
	return text[:charLimit] + "..."
}
