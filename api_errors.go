package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tckdb/migrations"
	"tckdb/schemas"
	"tckdb/services"
)

// respondError übersetzt Fehler der Pipeline in HTTP-Antworten.
// SQL-Details und interne IDs landen nur im Log.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var (
		parseErr *schemas.ParseError
		valErr   *schemas.ValidationError
		normErr  *services.NormalizationError
		persErr  *services.PersistenceError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed JSON", "detail": parseErr.Error()})
	case errors.As(err, &valErr):
		services.RecordViolations(len(valErr.Violations))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "violations": valErr.Violations})
	case errors.Is(err, migrations.ErrSchemaNotReady):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "schema not ready"})
	case errors.Is(err, services.ErrNotFound):
		msg := "not found"
		if errors.As(err, &normErr) {
			msg = normErr.Message
		}
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	case errors.As(err, &normErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unresolved reference", "path": normErr.Path, "detail": normErr.Message})
	case errors.As(err, &persErr):
		switch persErr.Kind {
		case services.KindConstraintViolation:
			log.Info("submission rejected by store constraint", zap.Error(err))
			c.JSON(http.StatusConflict, gin.H{"error": "submission conflicts with stored data"})
		case services.KindUnavailable:
			log.Warn("store unavailable", zap.Error(err))
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable, try again later"})
		default:
			log.Error("store error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
	default:
		log.Error("unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// readBody liest den Request-Body vollständig.
func readBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(c.Request.Body)
}

// idParam liest einen positiven ganzzahligen Pfadparameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// intQuery liest einen optionalen ganzzahligen Query-Parameter.
func intQuery(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameter " + name})
		return nil, false
	}
	return &v, true
}

func pageQuery(c *gin.Context) (services.Page, bool) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return services.Page{}, false
	}
	offset, ok := intQuery(c, "offset")
	if !ok {
		return services.Page{}, false
	}
	var p services.Page
	if limit != nil {
		p.Limit = *limit
	}
	if offset != nil {
		p.Offset = *offset
	}
	return p, true
}
