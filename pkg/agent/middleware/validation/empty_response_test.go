package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/agent/llmerrors"
)

func TestEmptyResponseValidator(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantEmpty bool
	}{
		{"json payload", `{"overview":"Go developer"}`, false},
		{"empty", "", true},
		{"whitespace", "  \n\t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := llm.NewMockClient(llm.Reply(tt.content))
			client := llm.Chain(base, NewEmptyResponseValidator().Middleware())

			resp, err := client.Complete(context.Background(), llm.NewCompletionRequest(nil))
			if tt.wantEmpty {
				require.Error(t, err)
				assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeEmptyResponse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.content, resp.Content)
		})
	}
}

func TestEmptyResponseValidatorPassesErrorsThrough(t *testing.T) {
	authErr := llmerrors.NewError(llmerrors.ErrorTypeAuth, "invalid key")
	client := llm.Chain(llm.NewMockClient(llm.Fail(authErr)), NewEmptyResponseValidator().Middleware())

	_, err := client.Complete(context.Background(), llm.NewCompletionRequest(nil))
	assert.Same(t, authErr, err)
	assert.Equal(t, "mock-model", client.GetModelName())
}
