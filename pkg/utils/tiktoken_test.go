package utils

import (
	"strings"
	"testing"
)

func TestCountTokens(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		minTokens int
		maxTokens int
	}{
		{"empty", "", 0, 0},
		{"single word", "Hello", 1, 2},
		{"two words", "Hello world", 2, 3},
		{"sentence", "Describe the trade-offs of a B-tree index.", 8, 14},
		{"repeated", strings.Repeat("word ", 100), 90, 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := CountTokens(tt.text)
			if tokens < tt.minTokens || tokens > tt.maxTokens {
				t.Errorf("CountTokens(%q) = %d, want between %d and %d",
					tt.text, tokens, tt.minTokens, tt.maxTokens)
			}
		})
	}
}

func TestCountPromptTokens(t *testing.T) {
	single := CountPromptTokens("Hello world")
	double := CountPromptTokens("Hello world", "Hello world")
	if double != 2*single {
		t.Errorf("expected two identical messages to cost %d, got %d", 2*single, double)
	}
	if CountPromptTokens() != 0 {
		t.Error("expected zero tokens for no messages")
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	if got := TruncateToTokenLimit("short", 10); got != "short" {
		t.Errorf("text under the limit should be unchanged, got %q", got)
	}

	longText := strings.Repeat("This is a sentence. ", 50)
	truncated := TruncateToTokenLimit(longText, 10)
	if len(truncated) >= len(longText) {
		t.Error("TruncateToTokenLimit should have shortened the text")
	}
	if tokens := CountTokens(truncated); tokens > 15 {
		t.Errorf("truncated text has %d tokens, expected around 10", tokens)
	}
}
