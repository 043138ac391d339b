package answer

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/dbrag/dbrag-server/internal/app"
	"github.com/dbrag/dbrag-server/internal/apperrors"
	"github.com/dbrag/dbrag-server/internal/config"
	"github.com/dbrag/dbrag-server/internal/db/models"
	"github.com/dbrag/dbrag-server/internal/mq"
	"github.com/dbrag/dbrag-server/internal/pipeline"
	"github.com/dbrag/dbrag-server/internal/types"
	"github.com/dbrag/dbrag-server/internal/utils/webhookutil"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	EventSQL      = "sql"
	EventFragment = "fragment"
	EventDone     = "done"
	EventError    = "error"
)

const maxWebhookAttempts = 3

// Event is one envelope on a per-request answer topic. Fragment events
// carry answer text; the stream always terminates with exactly one done or
// error event.
type Event struct {
	Type string `json:"type" msgpack:"type"`
	Data string `json:"data,omitempty" msgpack:"data,omitempty"`
	Code string `json:"code,omitempty" msgpack:"code,omitempty"`
}

// NewRequest assigns the request its id and hands it to the processor via
// the requests topic.
func NewRequest(params *types.AnswerParams, m mq.MQ) (string, error) {
	if params.ID == "" {
		params.ID = uuid.NewString()
	}

	data, err := msgpack.Marshal(params)
	if err != nil {
		return "", err
	}

	if err := m.Publish(context.Background(), config.DefaultRequestsTopic, data); err != nil {
		return "", err
	}

	return params.ID, nil
}

// AnswerTopic is the per-request topic fragment events are published on.
func AnswerTopic(requestId string) string {
	return config.DefaultAnswersPrefix + requestId
}

// RunProcessor consumes the requests topic until the app context ends.
// Requests run on a bounded worker pool; the default of one worker keeps
// the shared connection handle on strictly sequential reuse.
func RunProcessor(app *app.App) error {
	ctx := app.Context()

	workers := app.Config().Workers
	if workers < 1 {
		workers = 1
	}
	pool := workerpool.New(workers)
	defer pool.StopWait()

	for {
		message, err := app.MQ().Receive(ctx, config.DefaultRequestsTopic)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, mq.ErrQueueClosed) {
				return nil
			}

			return err
		}

		data, err := app.MQ().GetMessageData(message)
		if err != nil {
			return err
		}

		if err := app.MQ().Ack(config.DefaultRequestsTopic, message); err != nil {
			app.Logger.Warn("failed to ack request message", zap.Error(err))
		}

		var params types.AnswerParams
		if err := msgpack.Unmarshal(data, &params); err != nil {
			app.Logger.Error("failed to parse request data", zap.Error(err))
			continue
		}

		pool.Submit(func() {
			processRequest(app, &params)
		})
	}
}

// processRequest runs one question through the pipeline, publishes the
// event stream for it, and persists the query log row.
func processRequest(app *app.App, params *types.AnswerParams) {
	ctx := app.Context()
	topic := AnswerTopic(params.ID)

	model := params.Model
	if model == "" {
		model = app.Config().Ollama.Model
	}

	record := models.NewQueryRecord(params.Question, model)
	start := time.Now()

	var answerText strings.Builder

	result, err := app.Pipeline().Answer(ctx, pipeline.AnswerRequest{
		Question: params.Question,
		Model:    params.Model,
		History:  params.History,
		Metadata: params.Metadata,
	})

	if err == nil {
		record.SQL = result.SQL
		record.PromptHash = result.PromptHash

		publishEvent(ctx, app, topic, Event{Type: EventSQL, Data: result.SQL})

		for {
			fragment, recvErr := result.Answer.Recv()
			if recvErr != nil {
				if errors.Is(recvErr, io.EOF) {
					break
				}

				err = recvErr
				break
			}

			answerText.WriteString(fragment)
			publishEvent(ctx, app, topic, Event{Type: EventFragment, Data: fragment})
		}
	}

	record.DurationMS = time.Since(start).Milliseconds()
	record.Answer = answerText.String()

	if err != nil {
		record.Status = models.QueryStatusFailed
		record.ErrorCode = string(apperrors.CodeOf(err))

		app.Logger.Error("answer request failed",
			zap.String("request_id", params.ID),
			zap.String("code", record.ErrorCode),
			zap.Error(err),
		)

		publishEvent(ctx, app, topic, Event{Type: EventError, Data: err.Error(), Code: record.ErrorCode})
	} else {
		record.Status = models.QueryStatusSucceeded
		publishEvent(ctx, app, topic, Event{Type: EventDone})
	}

	if err := app.MQ().CloseTopic(topic); err != nil && !errors.Is(err, mq.ErrTopicNotExists) {
		app.Logger.Warn("failed to close answer topic", zap.String("topic", topic), zap.Error(err))
	}

	if app.QueryRecordRepository != nil {
		if _, err := app.QueryRecordRepository.Create(ctx, record); err != nil {
			app.Logger.Warn("failed to persist query record", zap.Error(err))
		}
	}

	if params.WebhookUrl != "" {
		notifyWebhook(app, params, record)
	}
}

func notifyWebhook(app *app.App, params *types.AnswerParams, record *models.QueryRecord) {
	payload := struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		SQL       string `json:"sql,omitempty"`
		Answer    string `json:"answer,omitempty"`
		ErrorCode string `json:"error_code,omitempty"`
	}{
		ID:        params.ID,
		Status:    record.Status,
		SQL:       record.SQL,
		Answer:    record.Answer,
		ErrorCode: record.ErrorCode,
	}

	if err := webhookutil.InvokeWithRetries(app.Context(), params.WebhookUrl, payload, maxWebhookAttempts); err != nil {
		app.Logger.Warn("failed to deliver webhook", zap.String("request_id", params.ID), zap.Error(err))
	}
}

func publishEvent(ctx context.Context, app *app.App, topic string, event Event) {
	data, err := msgpack.Marshal(&event)
	if err != nil {
		app.Logger.Error("failed to encode answer event", zap.Error(err))
		return
	}

	if err := app.MQ().Publish(ctx, topic, data); err != nil {
		app.Logger.Warn("failed to publish answer event", zap.String("topic", topic), zap.Error(err))
	}
}

// ReceiveAnswerEvent pulls the next event for a request. It returns
// mq.ErrTopicClosed once the terminal event has been consumed and the
// processor closed the topic.
func ReceiveAnswerEvent(ctx context.Context, requestId string, m mq.MQ) (*Event, error) {
	topic := AnswerTopic(requestId)

	message, err := m.Receive(ctx, topic)
	if err != nil {
		return nil, err
	}

	data, err := m.GetMessageData(message)
	if err != nil {
		return nil, err
	}

	if err := m.Ack(topic, message); err != nil {
		return nil, err
	}

	var event Event
	if err := msgpack.Unmarshal(data, &event); err != nil {
		return nil, err
	}

	return &event, nil
}
