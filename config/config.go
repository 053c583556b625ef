package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// TESTING schaltet auf den Test-Datenbank-Endpunkt um (TEST_DB_*).
	Testing bool   `envconfig:"TESTING" default:"false"`
	AppEnv  string `envconfig:"APP_ENV" default:"production"`

	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"` // postgres, sqlite
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"tckdb"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"tckdb"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBLogSQL   bool   `envconfig:"DB_LOG_SQL" default:"false"`

	TestDBHost     string `envconfig:"TEST_DB_HOST" default:"localhost"`
	TestDBPort     int    `envconfig:"TEST_DB_PORT" default:"5433"`
	TestDBUser     string `envconfig:"TEST_DB_USER" default:"tckdb"`
	TestDBPassword string `envconfig:"TEST_DB_PASSWORD"`
	TestDBName     string `envconfig:"TEST_DB_NAME" default:"tckdb_test"`

	SQLitePath string `envconfig:"SQLITE_PATH" default:"tckdb.db"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"8000"`
	APIPrefix    string `envconfig:"API_PREFIX" default:"/api/v1"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Store-Zugriffe
	StoreTimeout      time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`
	CommitMaxAttempts int           `envconfig:"COMMIT_MAX_ATTEMPTS" default:"4"`
	CommitBackoff     time.Duration `envconfig:"COMMIT_BACKOFF" default:"100ms"`

	// Migrationen
	MigrateOnStart        bool   `envconfig:"MIGRATE_ON_START" default:"false"`
	SchemaRecheckSchedule string `envconfig:"SCHEMA_RECHECK_SCHEDULE" default:"@every 30s"`

	// DOI-Lookup für Literaturangaben
	LookupProviders  []string      `envconfig:"LOOKUP_PROVIDERS" default:"europepmc,pubmed,unpaywall"`
	LookupTimeout    time.Duration `envconfig:"LOOKUP_TIMEOUT" default:"20s"`
	EuropePMCBaseURL string        `envconfig:"EUROPEPMC_BASE_URL" default:"https://www.ebi.ac.uk/europepmc/webservices/rest/search"`
	PubMedBaseURL    string        `envconfig:"PUBMED_BASE_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	PubMedAPIKey     string        `envconfig:"PUBMED_API_KEY"`
	PubMedTool       string        `envconfig:"PUBMED_TOOL" default:"tckdb"`
	PubMedEmail      string        `envconfig:"PUBMED_EMAIL"`
	UnpaywallBaseURL string        `envconfig:"UNPAYWALL_BASE_URL" default:"https://api.unpaywall.org/v2"`
	UnpaywallEmail   string        `envconfig:"UNPAYWALL_EMAIL"`

	// Backups (cmd/backup und optionaler Cron im Server)
	BackupSchedule  string `envconfig:"BACKUP_SCHEDULE"`
	BackupBucket    string `envconfig:"BACKUP_S3_BUCKET"`
	BackupEndpoint  string `envconfig:"BACKUP_S3_ENDPOINT"`
	BackupAccessKey string `envconfig:"BACKUP_S3_ACCESS_KEY"`
	BackupSecretKey string `envconfig:"BACKUP_S3_SECRET_KEY"`
	BackupRegion    string `envconfig:"BACKUP_S3_REGION" default:"us-east-1"`
	KeepBackups     int    `envconfig:"KEEP_BACKUPS" default:"4"`
}

// Endpoint beschreibt die Verbindungsdaten einer PostgreSQL-Instanz.
type Endpoint struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// ActiveEndpoint liefert den Endpunkt, der im aktuellen Modus verwendet wird.
func (c *Config) ActiveEndpoint() Endpoint {
	if c.Testing {
		return Endpoint{Host: c.TestDBHost, Port: c.TestDBPort, User: c.TestDBUser, Password: c.TestDBPassword, Name: c.TestDBName}
	}
	return Endpoint{Host: c.DBHost, Port: c.DBPort, User: c.DBUser, Password: c.DBPassword, Name: c.DBName}
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	ep := c.ActiveEndpoint()
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		ep.Host, ep.User, ep.Password, ep.Name, ep.Port, c.DBSSLMode)
}

// BackupEnabled meldet, ob alle Angaben für S3-Backups vorhanden sind.
func (c *Config) BackupEnabled() bool {
	return c.BackupBucket != "" && c.BackupEndpoint != "" && c.BackupAccessKey != "" && c.BackupSecretKey != ""
}

// Validate prüft Kombinationen, die envconfig allein nicht abdecken kann.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (expected postgres or sqlite)", c.DBDriver)
	}
	if c.CommitMaxAttempts < 1 {
		return fmt.Errorf("COMMIT_MAX_ATTEMPTS must be at least 1, got %d", c.CommitMaxAttempts)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive, got %s", c.StoreTimeout)
	}
	for _, name := range c.LookupProviders {
		switch name {
		case "europepmc", "pubmed", "unpaywall":
		default:
			return fmt.Errorf("unknown lookup provider %q in LOOKUP_PROVIDERS", name)
		}
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("API_PREFIX must start with '/', got %q", c.APIPrefix)
	}
	return nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
// Bei TESTING=true wird zusätzlich .env.test gelesen.
func Load() (*Config, error) {
	if strings.EqualFold(os.Getenv("TESTING"), "true") {
		_ = godotenv.Load(".env.test")
	}
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
