package answer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dbrag/dbrag-server/internal/app"
	"github.com/dbrag/dbrag-server/internal/config"
	"github.com/dbrag/dbrag-server/internal/db/drivers"
	"github.com/dbrag/dbrag-server/internal/llm"
	"github.com/dbrag/dbrag-server/internal/mq"
	"github.com/dbrag/dbrag-server/internal/pipeline"
	"github.com/dbrag/dbrag-server/internal/stream"
	"github.com/dbrag/dbrag-server/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedGenerator struct {
	completion string
}

func (g *fixedGenerator) Complete(_ context.Context, _ string, _ string) (string, error) {
	return g.completion, nil
}

type fixedSynthesizer struct {
	fragments []string
}

func (s *fixedSynthesizer) StreamAnswer(_ context.Context, _ string, _ llm.SynthesisInput) (*stream.Stream, error) {
	out := stream.New()

	go func() {
		for _, fragment := range s.fragments {
			if !out.Push(fragment) {
				return
			}
		}
		out.Finish()
	}()

	return out, nil
}

func testApp(t *testing.T, generator llm.Generator, synthesizer llm.Synthesizer) *app.App {
	t.Helper()

	cfg := &config.Config{
		Environment: "test",
		Workers:     1,
		DB: &config.DBConfig{
			Driver: config.DriverSQLite,
			Table:  "actor",
		},
		Ollama: &config.OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "llama2:latest",
		},
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	driver, err := drivers.NewSQLiteDriver(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })

	_, err = driver.GetDB().Exec(`CREATE TABLE actor (actor_id INTEGER PRIMARY KEY, first_name TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = driver.GetDB().Exec(`INSERT INTO actor (first_name) VALUES ('PENELOPE'), ('NICK')`)
	require.NoError(t, err)

	p, err := pipeline.New(cfg, zap.NewNop(),
		pipeline.WithDriver(driver),
		pipeline.WithGenerator(generator),
		pipeline.WithSynthesizer(synthesizer),
	)
	require.NoError(t, err)
	require.NoError(t, p.Startup(context.Background()))

	queue, err := mq.NewInMemoryMQ(64)
	require.NoError(t, err)

	a, err := app.NewApp(cfg,
		app.WithDriver(driver),
		app.WithMQ(queue),
		app.WithPipeline(p),
	)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return a
}

func collectEvents(t *testing.T, a *app.App, requestId string) []Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var events []Event
	for {
		event, err := ReceiveAnswerEvent(ctx, requestId, a.MQ())
		require.NoError(t, err)

		events = append(events, *event)
		if event.Type == EventDone || event.Type == EventError {
			return events
		}
	}
}

func TestProcessRequestPublishesSQLFragmentsAndDone(t *testing.T) {
	a := testApp(t,
		&fixedGenerator{completion: "SELECT first_name FROM actor LIMIT 5;"},
		&fixedSynthesizer{fragments: []string{"Some actors are ", "PENELOPE and NICK."}},
	)

	go RunProcessor(a)

	requestId, err := NewRequest(&types.AnswerParams{Question: "list some actors"}, a.MQ())
	require.NoError(t, err)
	require.NotEmpty(t, requestId)

	events := collectEvents(t, a, requestId)

	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, EventSQL, events[0].Type)
	assert.Equal(t, "SELECT first_name FROM actor LIMIT 5", events[0].Data)

	var answer string
	for _, event := range events[1 : len(events)-1] {
		assert.Equal(t, EventFragment, event.Type)
		answer += event.Data
	}
	assert.Equal(t, "Some actors are PENELOPE and NICK.", answer)

	assert.Equal(t, EventDone, events[len(events)-1].Type)
}

func TestProcessRequestPublishesErrorEvent(t *testing.T) {
	a := testApp(t,
		&fixedGenerator{completion: "SELECT nope FROM missing_table"},
		&fixedSynthesizer{},
	)

	go RunProcessor(a)

	requestId, err := NewRequest(&types.AnswerParams{Question: "list some actors"}, a.MQ())
	require.NoError(t, err)

	events := collectEvents(t, a, requestId)

	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Equal(t, "query_execution_error", last.Code)
	assert.NotEmpty(t, last.Data)
}

func TestNewRequestAssignsID(t *testing.T) {
	queue, err := mq.NewInMemoryMQ(8)
	require.NoError(t, err)
	defer queue.Close()

	params := &types.AnswerParams{Question: "list some actors"}
	requestId, err := NewRequest(params, queue)
	require.NoError(t, err)
	assert.Equal(t, params.ID, requestId)
	assert.NotEmpty(t, requestId)
}
