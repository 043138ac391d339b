package api

import (
	"net/http"
	"strconv"

	"github.com/dbrag/dbrag-server/internal/app"

	"github.com/gin-gonic/gin"
)

const defaultQueryLogLimit = 20

// ListQueries returns the most recent query log records.
func ListQueries(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	limit := defaultQueryLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := app.QueryRecordRepository.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"queries": records})
}
