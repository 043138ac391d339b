package pipeline

import (
	"strings"

	"github.com/dbrag/dbrag-server/internal/apperrors"
)

// ExtractSQL pulls a single SQL statement out of the model's completion.
// Models wrap the statement in markdown fences, prefix it with the
// "SQLQuery:" label from the prompt format, or keep rambling past it into
// "SQLResult:" / "Answer:" lines; all of that is stripped here.
func ExtractSQL(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	if idx := strings.Index(text, "```"); idx != -1 {
		text = text[idx+3:]
		text = strings.TrimPrefix(text, "sql")
		text = strings.TrimPrefix(text, "SQL")
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
	}

	if idx := strings.Index(text, "SQLQuery:"); idx != -1 {
		text = text[idx+len("SQLQuery:"):]
	}

	for _, label := range []string{"SQLResult:", "Answer:", "Question:"} {
		if idx := strings.Index(text, label); idx != -1 {
			text = text[:idx]
		}
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ";")
	text = strings.TrimSpace(text)

	if text == "" {
		return "", apperrors.New(apperrors.CodeGeneration, "model response contained no SQL statement")
	}

	return text, nil
}

// GuardStatement rejects anything other than a read before it reaches the
// database. The check is the leading keyword only; no parsing happens here.
func GuardStatement(sqlText string, allowWrites bool) error {
	if allowWrites {
		return nil
	}

	fields := strings.Fields(sqlText)
	if len(fields) == 0 {
		return apperrors.New(apperrors.CodeGeneration, "model response contained no SQL statement")
	}

	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
		return nil
	default:
		return apperrors.Newf(apperrors.CodeQueryExecution, "refusing to execute non-read statement starting with %q", fields[0])
	}
}
