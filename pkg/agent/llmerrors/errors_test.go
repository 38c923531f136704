package llmerrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{429, ErrorTypeRateLimit},
		{400, ErrorTypeBadPrompt},
		{500, ErrorTypeTransport},
		{503, ErrorTypeTransport},
		{302, ErrorTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.status))
		})
	}
}

func TestIsAndTypeOfThroughWrapping(t *testing.T) {
	base := NewErrorWithCause(ErrorTypeSchemaViolation, errors.New("missing field"), "bad judgment payload")
	wrapped := fmt.Errorf("judge answer: %w", base)

	assert.True(t, Is(wrapped, ErrorTypeSchemaViolation))
	assert.False(t, Is(wrapped, ErrorTypeTransport))
	assert.Equal(t, ErrorTypeSchemaViolation, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))

	var llmErr *Error
	require.True(t, errors.As(wrapped, &llmErr))
	assert.True(t, llmErr.IsSchemaViolation())
	assert.Contains(t, llmErr.Error(), "schema_violation")
}

func TestEmptyResponseCountsAsSchemaViolation(t *testing.T) {
	assert.True(t, NewError(ErrorTypeEmptyResponse, "no content").IsSchemaViolation())
	assert.False(t, NewError(ErrorTypeTransport, "eof").IsSchemaViolation())
}

func TestSanitizePrompt(t *testing.T) {
	short := "Question: what is a goroutine?"
	assert.Equal(t, short, SanitizePrompt(short, 1000))

	long := strings.Repeat("a", 300) + strings.Repeat("b", 300)
	out := SanitizePrompt(long, 200)
	assert.True(t, strings.HasPrefix(out, strings.Repeat("a", 100)))
	assert.True(t, strings.HasSuffix(out, strings.Repeat("b", 100)))
	assert.Contains(t, out, "[600 chars, hash:")
}
