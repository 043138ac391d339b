package server

import (
	"net/http"

	"github.com/dbrag/dbrag-server/internal/api"
	"github.com/dbrag/dbrag-server/internal/api/middleware"
	"github.com/dbrag/dbrag-server/internal/app"
	"github.com/gin-gonic/gin"
)

func (s *Server) SetupRoutes(app *app.App) {
	// Health check endpoint
	s.ginEngine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := s.ginEngine.Group("/api/v1")

	// Authentication middleware
	if app.Config().EnableAuth {
		apiV1.Use(handlerWrapper(app, middleware.AuthenticationMiddleware))
	}

	apiV1.POST("/query", handlerWrapper(app, api.Query))
	apiV1.GET("/schema", handlerWrapper(app, api.GetSchema))
	apiV1.GET("/queries", handlerWrapper(app, api.ListQueries))
}

func handlerWrapper(app *app.App, f func(c *gin.Context)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("app", app)
		f(ctx)
	}
}
