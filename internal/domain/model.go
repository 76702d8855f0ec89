// Package domain holds the engine's core data model: agents ("ants"), their
// room assignments, run audit records, rooms, and messages.
package domain

// ModelID selects the model backend an ant uses. Credentials and billing are
// handled engine-side; ants only carry the selector.
type ModelID string

const (
	ModelMock            ModelID = "mock"
	ModelOpenAIGPT4oMini ModelID = "openai-gpt-4o-mini"
	ModelOpenAIGPT41Nano ModelID = "openai-gpt-4.1-nano"
	ModelAnthropicHaiku  ModelID = "anthropic-haiku"
	ModelGeminiFlash     ModelID = "gemini-flash"
	ModelTogetherOpenAI  ModelID = "together-openai-compatible"
	ModelOllama          ModelID = "ollama"
)

// OrMock returns the id itself, or ModelMock when unset.
func (m ModelID) OrMock() ModelID {
	if m == "" {
		return ModelMock
	}
	return m
}
