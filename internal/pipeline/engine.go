package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbrag/dbrag-server/internal/apperrors"
	"github.com/dbrag/dbrag-server/internal/db/drivers"
	"github.com/dbrag/dbrag-server/internal/llm"
	"github.com/dbrag/dbrag-server/internal/schema"
	"github.com/dbrag/dbrag-server/internal/stream"
	"github.com/dbrag/dbrag-server/internal/utils/hashutil"
)

const (
	// Result sets forwarded to the model for answer phrasing are capped so
	// a runaway query cannot blow the context window.
	maxResultRows  = 100
	maxResultChars = 16000
)

// Result is what one question produces: the statement the model generated
// and the streamed answer phrased from its execution.
type Result struct {
	SQL        string
	Answer     *stream.Stream
	PromptHash string
}

// Engine runs one question through the full chain: introspect, prompt,
// generate, execute, synthesize. It is built per request and discarded.
type Engine struct {
	driver       drivers.Driver
	introspector *schema.Introspector
	prompt       *Prompt
	generator    llm.Generator
	synthesizer  llm.Synthesizer
	tables       []string
	model        string
	allowWrites  bool
}

func NewEngine(driver drivers.Driver, generator llm.Generator, synthesizer llm.Synthesizer, prompt *Prompt, tables []string, model string, allowWrites bool) *Engine {
	return &Engine{
		driver:       driver,
		introspector: schema.NewIntrospector(driver),
		prompt:       prompt,
		generator:    generator,
		synthesizer:  synthesizer,
		tables:       tables,
		model:        model,
		allowWrites:  allowWrites,
	}
}

func (e *Engine) Answer(ctx context.Context, question string) (*Result, error) {
	schemaText, err := e.introspector.SchemaText(ctx, e.tables)
	if err != nil {
		return nil, err
	}

	rendered, err := e.prompt.Render(e.driver.Dialect(), schemaText, question)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfiguration, "failed to render prompt", err)
	}

	completion, err := e.generator.Complete(ctx, e.model, rendered)
	if err != nil {
		return nil, err
	}

	sqlText, err := ExtractSQL(completion)
	if err != nil {
		return nil, err
	}

	if err := GuardStatement(sqlText, e.allowWrites); err != nil {
		return nil, err
	}

	resultText, err := e.execute(ctx, sqlText)
	if err != nil {
		return nil, err
	}

	answer, err := e.synthesizer.StreamAnswer(ctx, e.model, llm.SynthesisInput{
		Question: question,
		SQL:      sqlText,
		Result:   resultText,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		SQL:        sqlText,
		Answer:     answer,
		PromptHash: hashutil.Blake3Hash([]byte(rendered)),
	}, nil
}

// execute runs the model's statement as-is and renders the rows into the
// compact text block shown to the synthesis model. The statement was never
// validated beyond the read guard, so this is where bad SQL surfaces.
func (e *Engine) execute(ctx context.Context, sqlText string) (string, error) {
	rows, err := e.driver.GetDB().QueryContext(ctx, sqlText)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeQueryExecution, "generated SQL failed to execute", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeQueryExecution, "failed to read result columns", err)
	}

	var b strings.Builder
	b.WriteString(strings.Join(columns, " | "))

	count := 0
	for rows.Next() && count < maxResultRows {
		values := make([]interface{}, len(columns))
		for i := range values {
			values[i] = new(interface{})
		}

		if err := rows.Scan(values...); err != nil {
			return "", apperrors.Wrap(apperrors.CodeQueryExecution, "failed to scan result row", err)
		}

		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatValue(*(v.(*interface{})))
		}

		b.WriteString("\n")
		b.WriteString(strings.Join(cells, " | "))
		count++

		if b.Len() > maxResultChars {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return "", apperrors.Wrap(apperrors.CodeQueryExecution, "failed to read result rows", err)
	}

	return b.String(), nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
