package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tckdb/providers"
	"tckdb/schemas"
	"tckdb/services"
)

func setupLiteratureRoutes(router *gin.RouterGroup, submissions *services.SubmissionService, queries *services.QueryService, resolver *providers.Resolver, log *zap.Logger) {
	rg := router.Group("/literature")

	// Literatur wird wie Levels geteilt: 201 bei neuem, 200 bei vorhandenem Eintrag
	rg.POST("", func(c *gin.Context) {
		log := requestLogger(c, log)
		raw, err := readBody(c)
		if err != nil {
			respondError(c, log, err)
			return
		}
		vl, err := schemas.ValidateLiterature(raw)
		if err != nil {
			respondError(c, log, err)
			return
		}
		res, err := submissions.SubmitLiterature(c.Request.Context(), vl)
		if err != nil {
			respondError(c, log, err)
			return
		}
		entity := res.Primary[0]
		status := http.StatusCreated
		if entity.Action == services.ActionReuse {
			status = http.StatusOK
		}
		lit, err := queries.GetLiterature(c.Request.Context(), entity.ID)
		if err != nil {
			log.Warn("failed to reload literature", zap.Uint("literature_id", entity.ID), zap.Error(err))
			c.JSON(status, gin.H{"id": entity.ID})
			return
		}
		c.JSON(status, lit)
	})

	// Entwurf aus den externen Diensten; gespeichert wird erst per POST
	rg.GET("/lookup", func(c *gin.Context) {
		log := requestLogger(c, log)
		doi := c.Query("doi")
		if doi == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter doi is required"})
			return
		}
		lookup, err := resolver.Resolve(c.Request.Context(), doi)
		var upstream *providers.UpstreamError
		switch {
		case err == nil:
			c.JSON(http.StatusOK, lookup)
		case errors.Is(err, providers.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "DOI not found"})
		case errors.As(err, &upstream):
			log.Warn("doi lookup failed upstream", zap.String("doi", doi), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "literature providers unavailable"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
	})

	rg.GET("/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		lit, err := queries.GetLiterature(c.Request.Context(), id)
		if err != nil {
			respondError(c, requestLogger(c, log), err)
			return
		}
		c.JSON(http.StatusOK, lit)
	})

	rg.GET("", func(c *gin.Context) {
		page, ok := pageQuery(c)
		if !ok {
			return
		}
		year, ok := intQuery(c, "year")
		if !ok {
			return
		}
		out, err := queries.ListLiterature(c.Request.Context(), services.LiteratureFilter{DOI: c.Query("doi"), Year: year, Page: page})
		if err != nil {
			respondError(c, requestLogger(c, log), err)
			return
		}
		c.JSON(http.StatusOK, out)
	})
}
