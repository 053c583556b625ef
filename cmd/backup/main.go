package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tckdb/config"
	"tckdb/storage"
)

// Einmaliger Backup-Lauf: pg_dump -> gzip -> S3 -> Rotation.
// Gedacht für einen externen Scheduler (k8s CronJob, systemd-Timer).
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	if cfg.DBDriver != "postgres" {
		logging.Fatal("Backups werden nur für DB_DRIVER=postgres unterstützt", zap.String("driver", cfg.DBDriver))
	}
	if !cfg.BackupEnabled() {
		logging.Fatal("BACKUP_S3_BUCKET, BACKUP_S3_ENDPOINT, BACKUP_S3_ACCESS_KEY und BACKUP_S3_SECRET_KEY müssen gesetzt sein")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		logging.Fatal("Fehler beim Erstellen des S3-Clients", zap.Error(err))
	}

	logging.Info("Starte Backup-Prozess...", zap.String("bucket", cfg.BackupBucket), zap.String("database", cfg.ActiveEndpoint().Name))
	backup := &storage.Backup{Store: client, Bucket: cfg.BackupBucket, Keep: cfg.KeepBackups, Logger: logging}
	key, err := backup.Run(ctx, storage.PgDump(cfg), time.Now())
	if err != nil {
		logging.Fatal("Backup fehlgeschlagen", zap.String("key", key), zap.Error(err))
	}
	logging.Info("Backup-Prozess erfolgreich abgeschlossen", zap.String("key", key))
}
