package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tckdb/schemas"
	"tckdb/services"
)

func setupSpeciesRoutes(router *gin.RouterGroup, submissions *services.SubmissionService, queries *services.QueryService, log *zap.Logger) {
	rg := router.Group("/species")

	rg.POST("", func(c *gin.Context) {
		log := requestLogger(c, log)
		raw, err := readBody(c)
		if err != nil {
			respondError(c, log, err)
			return
		}
		vs, err := schemas.ValidateSpecies(raw)
		if err != nil {
			respondError(c, log, err)
			return
		}
		res, err := submissions.SubmitSpecies(c.Request.Context(), vs)
		if err != nil {
			respondError(c, log, err)
			return
		}
		respondSpecies(c, log, queries, res.Primary[0].ID)
	})

	// Neue Version einer Spezies; :id muss die neueste Version sein
	rg.POST("/:id/revisions", func(c *gin.Context) {
		log := requestLogger(c, log)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		raw, err := readBody(c)
		if err != nil {
			respondError(c, log, err)
			return
		}
		vs, err := schemas.ValidateSpecies(raw)
		if err != nil {
			respondError(c, log, err)
			return
		}
		res, err := submissions.ReviseSpecies(c.Request.Context(), id, vs)
		if err != nil {
			respondError(c, log, err)
			return
		}
		respondSpecies(c, log, queries, res.Primary[0].ID)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		s, err := queries.GetSpecies(c.Request.Context(), id)
		if err != nil {
			respondError(c, requestLogger(c, log), err)
			return
		}
		c.JSON(http.StatusOK, s)
	})

	rg.GET("/:id/history", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		versions, err := queries.SpeciesHistory(c.Request.Context(), id)
		if err != nil {
			respondError(c, requestLogger(c, log), err)
			return
		}
		c.JSON(http.StatusOK, versions)
	})

	rg.GET("", func(c *gin.Context) {
		charge, ok := intQuery(c, "charge")
		if !ok {
			return
		}
		multiplicity, ok := intQuery(c, "multiplicity")
		if !ok {
			return
		}
		page, ok := pageQuery(c)
		if !ok {
			return
		}
		list, err := queries.ListSpecies(c.Request.Context(), services.SpeciesFilter{
			Identifier:   c.Query("identifier"),
			Charge:       charge,
			Multiplicity: multiplicity,
			Page:         page,
		})
		if err != nil {
			respondError(c, requestLogger(c, log), err)
			return
		}
		c.JSON(http.StatusOK, list)
	})
}

// respondSpecies antwortet mit 201 und der gespeicherten Spezies.
func respondSpecies(c *gin.Context, log *zap.Logger, queries *services.QueryService, id uint) {
	s, err := queries.GetSpecies(c.Request.Context(), id)
	if err != nil {
		// Commit war erfolgreich, nur das Nachladen nicht
		log.Warn("failed to reload committed species", zap.Uint("species_id", id), zap.Error(err))
		c.JSON(http.StatusCreated, gin.H{"id": id})
		return
	}
	c.JSON(http.StatusCreated, s)
}
