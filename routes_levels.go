package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tckdb/schemas"
	"tckdb/services"
)

func setupLevelRoutes(router *gin.RouterGroup, submissions *services.SubmissionService, queries *services.QueryService, log *zap.Logger) {
	rg := router.Group("/levels")

	// Level werden inhaltsadressiert abgelegt: 201 bei neuem, 200 bei vorhandenem Eintrag
	rg.POST("", func(c *gin.Context) {
		log := requestLogger(c, log)
		raw, err := readBody(c)
		if err != nil {
			respondError(c, log, err)
			return
		}
		vl, err := schemas.ValidateLevel(raw)
		if err != nil {
			respondError(c, log, err)
			return
		}
		res, err := submissions.SubmitLevel(c.Request.Context(), vl)
		if err != nil {
			respondError(c, log, err)
			return
		}
		entity := res.Primary[0]
		status := http.StatusCreated
		if entity.Action == services.ActionReuse {
			status = http.StatusOK
		}
		level, err := queries.GetLevel(c.Request.Context(), entity.ID)
		if err != nil {
			log.Warn("failed to reload level", zap.Uint("level_id", entity.ID), zap.Error(err))
			c.JSON(status, gin.H{"id": entity.ID})
			return
		}
		c.JSON(status, level)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		level, err := queries.GetLevel(c.Request.Context(), id)
		if err != nil {
			respondError(c, requestLogger(c, log), err)
			return
		}
		c.JSON(http.StatusOK, level)
	})

	rg.GET("", func(c *gin.Context) {
		page, ok := pageQuery(c)
		if !ok {
			return
		}
		levels, err := queries.ListLevels(c.Request.Context(), c.Query("method"), page)
		if err != nil {
			respondError(c, requestLogger(c, log), err)
			return
		}
		c.JSON(http.StatusOK, levels)
	})
}

func setupBathGasRoutes(router *gin.RouterGroup, queries *services.QueryService, log *zap.Logger) {
	router.GET("/bath-gases", func(c *gin.Context) {
		page, ok := pageQuery(c)
		if !ok {
			return
		}
		gases, err := queries.ListBathGases(c.Request.Context(), page)
		if err != nil {
			respondError(c, requestLogger(c, log), err)
			return
		}
		c.JSON(http.StatusOK, gases)
	})
}

func setupESSRoutes(router *gin.RouterGroup, submissions *services.SubmissionService, queries *services.QueryService, log *zap.Logger) {
	rg := router.Group("/ess")

	// wie Levels: 201 bei neuem, 200 bei vorhandenem Eintrag
	rg.POST("", func(c *gin.Context) {
		log := requestLogger(c, log)
		raw, err := readBody(c)
		if err != nil {
			respondError(c, log, err)
			return
		}
		ve, err := schemas.ValidateESS(raw)
		if err != nil {
			respondError(c, log, err)
			return
		}
		res, err := submissions.SubmitESS(c.Request.Context(), ve)
		if err != nil {
			respondError(c, log, err)
			return
		}
		entity := res.Primary[0]
		status := http.StatusCreated
		if entity.Action == services.ActionReuse {
			status = http.StatusOK
		}
		ess, err := queries.GetESS(c.Request.Context(), entity.ID)
		if err != nil {
			log.Warn("failed to reload ess", zap.Uint("ess_id", entity.ID), zap.Error(err))
			c.JSON(status, gin.H{"id": entity.ID})
			return
		}
		c.JSON(status, ess)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ess, err := queries.GetESS(c.Request.Context(), id)
		if err != nil {
			respondError(c, requestLogger(c, log), err)
			return
		}
		c.JSON(http.StatusOK, ess)
	})

	rg.GET("", func(c *gin.Context) {
		page, ok := pageQuery(c)
		if !ok {
			return
		}
		list, err := queries.ListESS(c.Request.Context(), page)
		if err != nil {
			respondError(c, requestLogger(c, log), err)
			return
		}
		c.JSON(http.StatusOK, list)
	})
}

func setupFreqScaleRoutes(router *gin.RouterGroup, submissions *services.SubmissionService, queries *services.QueryService, log *zap.Logger) {
	rg := router.Group("/freq-scales")

	rg.POST("", func(c *gin.Context) {
		log := requestLogger(c, log)
		raw, err := readBody(c)
		if err != nil {
			respondError(c, log, err)
			return
		}
		fs, err := schemas.ValidateFreqScale(raw)
		if err != nil {
			respondError(c, log, err)
			return
		}
		res, err := submissions.SubmitFreqScale(c.Request.Context(), fs)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": res.Primary[0].ID, "entities": res.Entities})
	})

	rg.GET("", func(c *gin.Context) {
		levelID, ok := intQuery(c, "level_id")
		if !ok {
			return
		}
		if levelID != nil && *levelID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameter level_id"})
			return
		}
		page, ok := pageQuery(c)
		if !ok {
			return
		}
		var id uint
		if levelID != nil {
			id = uint(*levelID)
		}
		scales, err := queries.ListFreqScales(c.Request.Context(), id, page)
		if err != nil {
			respondError(c, requestLogger(c, log), err)
			return
		}
		c.JSON(http.StatusOK, scales)
	})
}
