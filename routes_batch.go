package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tckdb/migrations"
	"tckdb/schemas"
	"tckdb/services"
)

// setupBatchRoutes: Levels, Spezies und Skalierungsfaktoren in einer Transaktion,
// verknüpft über connection_id.
func setupBatchRoutes(router *gin.RouterGroup, submissions *services.SubmissionService, log *zap.Logger) {
	router.POST("/batch-upload", func(c *gin.Context) {
		log := requestLogger(c, log)
		raw, err := readBody(c)
		if err != nil {
			respondError(c, log, err)
			return
		}
		batch, err := schemas.ValidateBatch(raw)
		if err != nil {
			respondError(c, log, err)
			return
		}
		res, err := submissions.SubmitBatch(c.Request.Context(), batch)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"primary": res.Primary, "entities": res.Entities})
	})
}

func setupHealthRoutes(router *gin.Engine, gate *migrations.Gatekeeper) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", func(c *gin.Context) {
		if err := gate.Ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "schema_version": gate.Expected()})
	})
}
