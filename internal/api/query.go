package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dbrag/dbrag-server/internal/app"
	"github.com/dbrag/dbrag-server/internal/apperrors"
	"github.com/dbrag/dbrag-server/internal/mq"
	"github.com/dbrag/dbrag-server/internal/services/answer"
	"github.com/dbrag/dbrag-server/internal/types"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

// Query accepts a natural-language question and replies with the answer
// stream as server-sent events, or as one aggregated JSON body when the
// client asked for stream=false.
func Query(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	data := types.AnswerParamsRequest{}
	if err := c.BindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to parse request body"})
		return
	}

	if strings.TrimSpace(data.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "question is required"})
		return
	}

	params := &types.AnswerParams{
		Question:   data.Question,
		Model:      data.Model,
		WebhookUrl: data.WebhookUrl,
		History:    data.History,
		Metadata:   data.Metadata,
	}

	requestId, err := answer.NewRequest(params, app.MQ())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	if data.Stream == nil || *data.Stream {
		streamAnswer(c, app, requestId)
		return
	}

	aggregateAnswer(c, app, requestId)
}

func streamAnswer(c *gin.Context, app *app.App, requestId string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Request-Id", requestId)

	c.Stream(func(w io.Writer) bool {
		event, err := answer.ReceiveAnswerEvent(c.Request.Context(), requestId, app.MQ())
		if err != nil {
			if !errors.Is(err, mq.ErrTopicClosed) {
				app.Logger.Warn("answer stream interrupted", zap.String("request_id", requestId), zap.Error(err))
			}

			return false
		}

		c.SSEvent("message", event)
		return event.Type != answer.EventDone && event.Type != answer.EventError
	})
}

func aggregateAnswer(c *gin.Context, app *app.App, requestId string) {
	var (
		sqlText string
		b       strings.Builder
	)

	for {
		event, err := answer.ReceiveAnswerEvent(c.Request.Context(), requestId, app.MQ())
		if err != nil {
			if errors.Is(err, mq.ErrTopicClosed) {
				break
			}

			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		switch event.Type {
		case answer.EventSQL:
			sqlText = event.Data
		case answer.EventFragment:
			b.WriteString(event.Data)
		case answer.EventError:
			status := apperrors.StatusForCode(apperrors.Code(event.Code))
			c.JSON(status, gin.H{"message": event.Data, "code": event.Code, "id": requestId})
			return
		case answer.EventDone:
			c.JSON(http.StatusOK, types.AnswerResponse{
				ID:     requestId,
				SQL:    sqlText,
				Answer: b.String(),
			})
			return
		}
	}
}
