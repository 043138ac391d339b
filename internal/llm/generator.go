package llm

import (
	"context"
	"strings"

	"github.com/dbrag/dbrag-server/internal/apperrors"
	"github.com/dbrag/dbrag-server/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// SQLGenerator turns a rendered prompt into a SQL statement with one
// chat completion against the Ollama host. Requests are never retried.
type SQLGenerator struct {
	client *openai.Client
}

func NewSQLGenerator(cfg *config.OllamaConfig) *SQLGenerator {
	client := openai.NewClient(
		option.WithAPIKey(placeholderAPIKey),
		option.WithBaseURL(strings.TrimSuffix(cfg.Host, "/")+"/v1"),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout()),
		// Rides the request body; backends that do not know the field
		// ignore it.
		option.WithJSONSet("options", map[string]interface{}{"num_ctx": cfg.ContextWindow}),
	)

	return &SQLGenerator{client: client}
}

func (g *SQLGenerator) Complete(ctx context.Context, model, prompt string) (string, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
		Model:       openai.F(openai.ChatModel(model)),
		Temperature: openai.F(0.0),
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeModelUnavailable, "sql generation request failed", err)
	}

	if len(completion.Choices) == 0 || len(completion.Choices[0].Message.Content) == 0 {
		return "", apperrors.New(apperrors.CodeGeneration, "model returned an empty completion")
	}

	return completion.Choices[0].Message.Content, nil
}
