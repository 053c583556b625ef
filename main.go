package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tckdb/config"
	"tckdb/migrations"
	"tckdb/providers"
	"tckdb/providers/europepmc"
	"tckdb/providers/pubmed"
	"tckdb/providers/unpaywall"
	"tckdb/services"
	"tckdb/storage"
)

// maxBodyBytes begrenzt Request-Bodies (Batch-Uploads mit Koordinaten werden groß).
const maxBodyBytes = 16 << 20

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// requestIDMiddleware übernimmt X-Request-ID oder vergibt eine neue ID.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger liefert den Logger mit Request-ID.
func requestLogger(c *gin.Context, log *zap.Logger) *zap.Logger {
	return log.With(zap.String("request_id", c.GetString("request_id")))
}

type app struct {
	cfg         *config.Config
	gate        *migrations.Gatekeeper
	submissions *services.SubmissionService
	queries     *services.QueryService
	resolver    *providers.Resolver
	log         *zap.Logger
}

// newResolver baut den DOI-Resolver aus LOOKUP_PROVIDERS; Unpaywall nur mit UNPAYWALL_EMAIL.
func newResolver(cfg *config.Config, logging *zap.Logger) *providers.Resolver {
	r := &providers.Resolver{Logger: logging}
	for _, name := range cfg.LookupProviders {
		switch name {
		case "europepmc":
			r.Providers = append(r.Providers, europepmc.NewFetcher(cfg, logging))
		case "pubmed":
			r.Providers = append(r.Providers, pubmed.NewFetcher(cfg, logging))
		case "unpaywall":
			if cfg.UnpaywallEmail == "" {
				logging.Info("UNPAYWALL_EMAIL not set, unpaywall lookups disabled")
				continue
			}
			r.Providers = append(r.Providers, unpaywall.NewFetcher(cfg, logging))
		}
	}
	return r
}

func newApp(cfg *config.Config, db *gorm.DB, gate *migrations.Gatekeeper, logging *zap.Logger) *app {
	return &app{
		cfg:  cfg,
		gate: gate,
		submissions: services.NewSubmissionService(db, gate, logging, services.SubmissionOptions{
			StoreTimeout: cfg.StoreTimeout,
			MaxAttempts:  cfg.CommitMaxAttempts,
			Backoff:      cfg.CommitBackoff,
		}),
		queries:  services.NewQueryService(db, gate, cfg.StoreTimeout),
		resolver: newResolver(cfg, logging),
		log:      logging,
	}
}

func newRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	setupHealthRoutes(router, a.gate)

	api := router.Group(a.cfg.APIPrefix)
	api.Use(apiKeyAuthMiddleware(a.cfg))
	api.Use(a.gate.Middleware())
	api.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		c.Next()
	})

	setupSpeciesRoutes(api, a.submissions, a.queries, a.log)
	setupLevelRoutes(api, a.submissions, a.queries, a.log)
	setupBathGasRoutes(api, a.queries, a.log)
	setupESSRoutes(api, a.submissions, a.queries, a.log)
	setupFreqScaleRoutes(api, a.submissions, a.queries, a.log)
	setupBatchRoutes(api, a.submissions, a.log)
	setupLiteratureRoutes(api, a.submissions, a.queries, a.resolver, a.log)
	return router
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logging, err := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logging, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := storage.OpenDatabase(cfg, logging)
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gate := migrations.NewGatekeeper(db, logging)
	if cfg.MigrateOnStart {
		applied, err := gate.Upgrade(ctx)
		if err != nil {
			logging.Fatal("Schema upgrade failed", zap.Error(err))
		}
		logging.Info("Schema upgraded", zap.Int("applied", applied), zap.Int("version", gate.Expected()))
	} else if err := gate.Check(ctx); err != nil {
		// der Dienst startet trotzdem und meldet 503, bis die Migration gelaufen ist
		logging.Warn("Schema not ready at startup", zap.Error(err))
	}

	cronScheduler := cron.New()
	if _, err := gate.Schedule(cronScheduler, cfg.SchemaRecheckSchedule, cfg.StoreTimeout); err != nil {
		logging.Fatal("Invalid SCHEMA_RECHECK_SCHEDULE", zap.String("schedule", cfg.SchemaRecheckSchedule), zap.Error(err))
	}
	if err := scheduleBackups(ctx, cronScheduler, cfg, logging); err != nil {
		logging.Fatal("Backup scheduling failed", zap.Error(err))
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	router := newRouter(newApp(cfg, db, gate, logging))

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort), zap.String("api_prefix", cfg.APIPrefix))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
	logging.Info("Server stopped")
}

// scheduleBackups registriert den Backup-Job, wenn BACKUP_SCHEDULE und S3-Zugang gesetzt sind.
func scheduleBackups(ctx context.Context, c *cron.Cron, cfg *config.Config, logging *zap.Logger) error {
	if cfg.BackupSchedule == "" {
		return nil
	}
	if !cfg.BackupEnabled() || cfg.DBDriver != "postgres" {
		logging.Warn("BACKUP_SCHEDULE set but backups need postgres and BACKUP_S3_* settings; skipping")
		return nil
	}
	client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		return err
	}
	backup := &storage.Backup{Store: client, Bucket: cfg.BackupBucket, Keep: cfg.KeepBackups, Logger: logging}
	_, err = c.AddFunc(cfg.BackupSchedule, func() {
		logging.Info("Running scheduled backup...")
		if _, err := backup.Run(ctx, storage.PgDump(cfg), time.Now()); err != nil {
			logging.Error("Scheduled backup failed", zap.Error(err))
		}
	})
	return err
}
