package llm

import (
	"context"

	"github.com/dbrag/dbrag-server/internal/stream"
)

// Ollama ignores the API key on its OpenAI-compatible surface, but the
// SDKs require one.
const placeholderAPIKey = "ollama"

// Generator produces the SQL statement for a question in a single
// completion.
type Generator interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Synthesizer phrases the final answer from the executed query's results,
// streaming fragments as the model emits them.
type Synthesizer interface {
	StreamAnswer(ctx context.Context, model string, input SynthesisInput) (*stream.Stream, error)
}

type SynthesisInput struct {
	Question string
	SQL      string
	Result   string
}
