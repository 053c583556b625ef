package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tckdb/schemas"
)

// Gate meldet, ob das Store-Schema zur erwarteten Version passt.
type Gate interface {
	Ready() error
}

// SubmissionOptions steuern Timeouts und Wiederholungen des Commits.
type SubmissionOptions struct {
	StoreTimeout time.Duration
	MaxAttempts  int
	Backoff      time.Duration
}

// SubmissionService verbindet Normalizer und Coordinator zu einem Schreibvorgang.
type SubmissionService struct {
	view        StoreView
	normalizer  *Normalizer
	coordinator *Coordinator
	gate        Gate
	logger      *zap.Logger
	opts        SubmissionOptions
}

func NewSubmissionService(db *gorm.DB, gate Gate, logger *zap.Logger, opts SubmissionOptions) *SubmissionService {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 10 * time.Second
	}
	return &SubmissionService{
		view:        NewGormStoreView(db),
		normalizer:  NewNormalizer(logger),
		coordinator: NewCoordinator(db, logger, opts.StoreTimeout),
		gate:        gate,
		logger:      logger,
		opts:        opts,
	}
}

// SubmitLevel legt ein Level an oder liefert das vorhandene (Action reuse).
func (s *SubmissionService) SubmitLevel(ctx context.Context, in *schemas.ValidatedLevel) (*CommitResult, error) {
	return s.submit(ctx, "level", func(ctx context.Context) (*EntityGraph, error) {
		return s.normalizer.NormalizeLevel(ctx, in, s.view)
	})
}

// SubmitSpecies legt eine neue Spezies samt Frequenzen und Badgas-Verknüpfungen an.
func (s *SubmissionService) SubmitSpecies(ctx context.Context, in *schemas.ValidatedSpecies) (*CommitResult, error) {
	return s.submit(ctx, "species", func(ctx context.Context) (*EntityGraph, error) {
		return s.normalizer.NormalizeSpecies(ctx, in, s.view)
	})
}

// ReviseSpecies hängt eine neue Version an die Historie von targetID an.
func (s *SubmissionService) ReviseSpecies(ctx context.Context, targetID uint, in *schemas.ValidatedSpecies) (*CommitResult, error) {
	return s.submit(ctx, "revision", func(ctx context.Context) (*EntityGraph, error) {
		return s.normalizer.NormalizeRevision(ctx, targetID, in, s.view)
	})
}

// SubmitFreqScale legt einen Skalierungsfaktor an.
func (s *SubmissionService) SubmitFreqScale(ctx context.Context, in *schemas.ValidatedFreqScale) (*CommitResult, error) {
	return s.submit(ctx, "freq_scale", func(ctx context.Context) (*EntityGraph, error) {
		return s.normalizer.NormalizeFreqScale(ctx, in, s.view)
	})
}

// SubmitLiterature legt eine Literaturquelle samt Autoren an oder liefert die vorhandene.
func (s *SubmissionService) SubmitLiterature(ctx context.Context, in *schemas.ValidatedLiterature) (*CommitResult, error) {
	return s.submit(ctx, "literature", func(ctx context.Context) (*EntityGraph, error) {
		return s.normalizer.NormalizeLiterature(ctx, in, s.view)
	})
}

// SubmitESS legt eine Software-Angabe an oder liefert die vorhandene.
func (s *SubmissionService) SubmitESS(ctx context.Context, in *schemas.ValidatedESS) (*CommitResult, error) {
	return s.submit(ctx, "ess", func(ctx context.Context) (*EntityGraph, error) {
		return s.normalizer.NormalizeESS(ctx, in, s.view)
	})
}

// SubmitBatch schreibt alle Einträge eines Batch-Uploads in einer Transaktion.
func (s *SubmissionService) SubmitBatch(ctx context.Context, in *schemas.ValidatedBatch) (*CommitResult, error) {
	return s.submit(ctx, "batch", func(ctx context.Context) (*EntityGraph, error) {
		return s.normalizer.NormalizeBatch(ctx, in, s.view)
	})
}

func (s *SubmissionService) submit(ctx context.Context, kind string, normalize func(context.Context) (*EntityGraph, error)) (*CommitResult, error) {
	log := s.logger.With(zap.String("submission_id", uuid.NewString()), zap.String("kind", kind))

	if err := s.gate.Ready(); err != nil {
		submissionsCounter.WithLabelValues("not_ready").Inc()
		log.Warn("rejecting submission, schema not ready", zap.Error(err))
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		res, err := s.attempt(ctx, normalize)
		if err == nil {
			submissionsCounter.WithLabelValues("committed").Inc()
			log.Info("submission committed", zap.Int("entities", len(res.Entities)), zap.Int("attempt", attempt))
			return res, nil
		}
		if !IsKind(err, KindUnavailable) || attempt >= s.opts.MaxAttempts || ctx.Err() != nil {
			submissionsCounter.WithLabelValues(outcome(err)).Inc()
			log.Warn("submission failed", zap.Error(err), zap.Int("attempt", attempt))
			return nil, err
		}

		wait := s.opts.Backoff << (attempt - 1)
		commitRetriesCounter.Inc()
		log.Warn("store unavailable, retrying", zap.Error(err), zap.Int("attempt", attempt), zap.Duration("backoff", wait))
		select {
		case <-ctx.Done():
			submissionsCounter.WithLabelValues("unavailable").Inc()
			return nil, &PersistenceError{Kind: KindUnavailable, Op: "retry", Err: ctx.Err()}
		case <-time.After(wait):
		}
	}
}

// attempt normalisiert neu und committet; jeder Versuch sieht den aktuellen Store-Stand.
func (s *SubmissionService) attempt(ctx context.Context, normalize func(context.Context) (*EntityGraph, error)) (*CommitResult, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	g, err := normalize(readCtx)
	cancel()
	if err != nil {
		var ne *NormalizationError
		if errors.As(err, &ne) {
			return nil, err
		}
		return nil, classify("normalize", err)
	}
	return s.coordinator.Commit(ctx, g)
}

func outcome(err error) string {
	var ne *NormalizationError
	var pe *PersistenceError
	switch {
	case errors.As(err, &ne):
		return "unresolved_reference"
	case errors.As(err, &pe) && pe.Kind == KindConstraintViolation:
		return "constraint_violation"
	case errors.As(err, &pe) && pe.Kind == KindUnavailable:
		return "unavailable"
	}
	return "error"
}
