package types

import "github.com/dbrag/dbrag-server/internal/pipeline"

// Request from client - no ID field
type AnswerParamsRequest struct {
	Question   string                 `json:"question" msgpack:"question"`
	Model      string                 `json:"model,omitempty" msgpack:"model,omitempty"`
	Stream     *bool                  `json:"stream,omitempty" msgpack:"stream,omitempty"`
	WebhookUrl string                 `json:"webhook_url,omitempty" msgpack:"webhook_url,omitempty"`
	History    []pipeline.Message     `json:"history,omitempty" msgpack:"history,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

// Internal type with server-generated ID
type AnswerParams struct {
	ID         string                 `json:"id" msgpack:"id"`
	Question   string                 `json:"question" msgpack:"question"`
	Model      string                 `json:"model,omitempty" msgpack:"model,omitempty"`
	WebhookUrl string                 `json:"webhook_url,omitempty" msgpack:"webhook_url,omitempty"`
	History    []pipeline.Message     `json:"history,omitempty" msgpack:"history,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

// AnswerResponse is the aggregated (non-streaming) reply to one question.
type AnswerResponse struct {
	ID     string `json:"id"`
	SQL    string `json:"sql"`
	Answer string `json:"answer"`
}
