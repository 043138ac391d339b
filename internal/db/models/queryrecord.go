package models

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	QueryStatusSucceeded = "succeeded"
	QueryStatusFailed    = "failed"
)

// QueryRecord is one row of the query log: a single question's trip through
// the pipeline, whether it produced an answer or died on the way.
type QueryRecord struct {
	bun.BaseModel `bun:"table:query_log"`

	ID         uuid.UUID    `bun:",type:uuid,pk"`
	Question   string       `bun:",notnull"`
	SQL        string       `bun:"sql"`
	Answer     string       `bun:"answer"`
	Status     string       `bun:",notnull"`
	ErrorCode  string       `bun:"error_code"`
	Model      string       `bun:"model"`
	PromptHash string       `bun:"prompt_hash"`
	DurationMS int64        `bun:"duration_ms"`
	CreatedAt  bun.NullTime `bun:",notnull,default:current_timestamp"`
}

func NewQueryRecord(question, model string) *QueryRecord {
	return &QueryRecord{
		ID:       uuid.Must(uuid.NewRandom()),
		Question: question,
		Model:    model,
	}
}
