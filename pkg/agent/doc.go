// Package agent builds the model clients used by the interview workflow.
//
// The package is organised as:
//   - llm: the provider-neutral client interface, structured-output helpers and middleware chaining
//   - llmerrors: the error taxonomy shared by every provider
//   - middleware: metrics, logging, timeout and empty-response validation
//   - internal/llmimpl: the OpenAI, Anthropic, Gemini and Ollama clients
//
// LLMClientFactory picks the configured model for each role and wraps the raw client
// in the middleware chain.
package agent
