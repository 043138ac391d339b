package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dbrag/dbrag-server/internal/apperrors"
	"github.com/dbrag/dbrag-server/internal/config"
	"github.com/dbrag/dbrag-server/internal/stream"
	openai "github.com/sashabaranov/go-openai"
)

const synthesisPromptTemplate = `Given an input question, synthesize a response from the query results.
Query: %s
SQL: %s
SQL Response: %s
Response: `

// AnswerSynthesizer streams the final answer phrasing from the Ollama host.
type AnswerSynthesizer struct {
	client *openai.Client
}

func NewAnswerSynthesizer(cfg *config.OllamaConfig) *AnswerSynthesizer {
	clientCfg := openai.DefaultConfig(placeholderAPIKey)
	clientCfg.BaseURL = strings.TrimSuffix(cfg.Host, "/") + "/v1"
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout()}

	return &AnswerSynthesizer{client: openai.NewClientWithConfig(clientCfg)}
}

// StreamAnswer opens the streaming completion and pumps fragments into the
// returned stream until the model finishes. A consumer that closes the
// stream early stops the pump at its next fragment.
func (s *AnswerSynthesizer) StreamAnswer(ctx context.Context, model string, input SynthesisInput) (*stream.Stream, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: SynthesisPrompt(input)},
		},
		Stream: true,
	}

	completionStream, err := s.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeModelUnavailable, "answer synthesis request failed", err)
	}

	out := stream.New()

	go func() {
		defer completionStream.Close()

		for {
			response, err := completionStream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					out.Finish()
					return
				}

				out.Fail(apperrors.Wrap(apperrors.CodeModelUnavailable, "answer stream interrupted", err))
				return
			}

			if len(response.Choices) == 0 {
				continue
			}

			if content := response.Choices[0].Delta.Content; content != "" {
				if !out.Push(content) {
					return
				}
			}
		}
	}()

	return out, nil
}

// SynthesisPrompt renders the answer-phrasing prompt shown to the model.
func SynthesisPrompt(input SynthesisInput) string {
	return fmt.Sprintf(synthesisPromptTemplate, input.Question, input.SQL, input.Result)
}
