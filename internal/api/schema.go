package api

import (
	"net/http"

	"github.com/dbrag/dbrag-server/internal/app"
	"github.com/dbrag/dbrag-server/internal/apperrors"
	"github.com/dbrag/dbrag-server/internal/schema"

	"github.com/gin-gonic/gin"
)

// GetSchema returns the column metadata of exactly the configured tables,
// the same view the model sees.
func GetSchema(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	introspector := schema.NewIntrospector(app.Driver())

	var tables []schema.Table
	for _, name := range app.Config().DB.Tables() {
		table, err := introspector.Describe(c.Request.Context(), name)
		if err != nil {
			c.JSON(apperrors.HTTPStatus(err), gin.H{"message": err.Error()})
			return
		}

		tables = append(tables, *table)
	}

	c.JSON(http.StatusOK, gin.H{
		"dialect": app.Driver().Dialect(),
		"tables":  tables,
	})
}
