package openaiofficial

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentscout/pkg/agent/llm"
	"talentscout/pkg/agent/llmerrors"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{
    "index": 0,
    "message": {"role": "assistant", "content": "{\"next_question\":true,\"response\":\"Good.\"}"},
    "finish_reason": "stop"
  }],
  "usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
}`

func TestNewOfficialClientWithModel(t *testing.T) {
	client := NewOfficialClientWithModel("test-api-key", "gpt-4o")
	assert.Equal(t, "gpt-4o", client.GetModelName())
}

func TestCompleteSendsSchemaAndImages(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client := NewOfficialClientWithModel("sk-test", "gpt-4o-mini", option.WithBaseURL(server.URL+"/"))

	schema := llm.ObjectSchema("judgment", map[string]any{
		"next_question": llm.BooleanProperty,
		"response":      llm.StringProperty,
	})
	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage("You are a technical interviewer."),
		llm.NewImageMessage("Explain the drawing", llm.Image{MIMEType: "image/png", Data: []byte("img")}),
	})
	req.ResponseSchema = &schema

	resp, err := client.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"next_question":true,"response":"Good."}`, resp.Content)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, 42, resp.PromptTokens)
	assert.Equal(t, 7, resp.CompletionTokens)

	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	user, ok := messages[1].(map[string]any)
	require.True(t, ok)
	parts, ok := user["content"].([]any)
	require.True(t, ok, "expected multi-part user content, got %v", user["content"])
	assert.Len(t, parts, 2)
}

func TestCompleteClassifiesAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewOfficialClientWithModel("sk-bad", "gpt-4o-mini", option.WithBaseURL(server.URL+"/"))
	_, err := client.Complete(context.Background(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("Test")}))
	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeAuth))
}

func TestConvertMessagesPlainText(t *testing.T) {
	msgs := convertMessages([]llm.CompletionMessage{
		llm.NewSystemMessage("sys"),
		llm.NewUserMessage("user"),
		{Role: llm.RoleAssistant, Content: "assistant"},
	})
	require.Len(t, msgs, 3)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	assert.NotNil(t, msgs[2].OfAssistant)
}
