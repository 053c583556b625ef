package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"tckdb/config"
)

// BackupPrefix kennzeichnet Dumps im Bucket; Rotation betrifft nur diese Objekte.
const BackupPrefix = "tckdb-backup-"

// ObjectStore ist der Ausschnitt der S3-API, den Backups brauchen.
type ObjectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client erstellt einen S3-Client für den Backup-Bucket (S3-kompatibel, Path-Style).
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.BackupRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.BackupAccessKey, cfg.BackupSecretKey, "")),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.BackupEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Backup lädt Dumps hoch und hält nur die neuesten Keep Stück vor.
type Backup struct {
	Store  ObjectStore
	Bucket string
	Keep   int
	Logger *zap.Logger
}

// Dumper erzeugt einen unkomprimierten Datenbank-Dump.
type Dumper func(ctx context.Context) (io.ReadCloser, func() error, error)

// Run erstellt den Dump, komprimiert ihn, lädt ihn hoch und rotiert danach.
func (b *Backup) Run(ctx context.Context, dump Dumper, now time.Time) (string, error) {
	data, err := gzipDump(ctx, dump)
	if err != nil {
		return "", fmt.Errorf("create dump: %w", err)
	}
	key := BackupPrefix + now.UTC().Format("2006-01-02T15-04-05Z") + ".sql.gz"
	if _, err := b.Store.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	b.Logger.Info("backup uploaded", zap.String("bucket", b.Bucket), zap.String("key", key), zap.Int("bytes", len(data)))

	if _, err := b.Rotate(ctx); err != nil {
		return key, fmt.Errorf("rotate backups: %w", err)
	}
	return key, nil
}

// Rotate löscht alle Backups außer den neuesten Keep und liefert die gelöschten Keys.
func (b *Backup) Rotate(ctx context.Context) ([]string, error) {
	out, err := b.Store.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.Bucket),
		Prefix: aws.String(BackupPrefix),
	})
	if err != nil {
		return nil, err
	}

	var deleted []string
	for _, key := range expired(out.Contents, b.Keep) {
		if _, err := b.Store.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			b.Logger.Warn("failed to delete old backup", zap.String("key", key), zap.Error(err))
			continue
		}
		b.Logger.Info("deleted old backup", zap.String("key", key))
		deleted = append(deleted, key)
	}
	return deleted, nil
}

// expired liefert die Keys aller Objekte außer den neuesten keep.
func expired(objects []types.Object, keep int) []string {
	if keep < 0 {
		keep = 0
	}
	if len(objects) <= keep {
		return nil
	}
	sorted := append([]types.Object(nil), objects...)
	sort.Slice(sorted, func(i, j int) bool {
		return aws.ToTime(sorted[i].LastModified).After(aws.ToTime(sorted[j].LastModified))
	})
	keys := make([]string, 0, len(sorted)-keep)
	for _, obj := range sorted[keep:] {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys
}

func gzipDump(ctx context.Context, dump Dumper) ([]byte, error) {
	r, wait, err := dump(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := io.Copy(zw, r); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if err := wait(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PgDump liefert einen Dumper, der pg_dump gegen den aktiven Endpunkt ausführt.
func PgDump(cfg *config.Config) Dumper {
	return func(ctx context.Context) (io.ReadCloser, func() error, error) {
		ep := cfg.ActiveEndpoint()
		cmd := exec.CommandContext(ctx, "pg_dump",
			"-h", ep.Host,
			"-p", strconv.Itoa(ep.Port),
			"-U", ep.User,
			"-d", ep.Name,
			"-w", // Passwort kommt über PGPASSWORD
		)
		cmd.Env = append(os.Environ(), "PGPASSWORD="+ep.Password, "PGSSLMODE="+strings.ToLower(cfg.DBSSLMode))
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, nil, err
		}
		if err := cmd.Start(); err != nil {
			return nil, nil, err
		}
		return stdout, cmd.Wait, nil
	}
}
