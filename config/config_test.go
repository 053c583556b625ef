package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TESTING", "false")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.Equal(t, []string{"europepmc", "pubmed", "unpaywall"}, cfg.LookupProviders)
	assert.Equal(t, "host=db.internal user=tckdb password=secret dbname=tckdb port=5432 sslmode=disable", cfg.DSN())
}

func TestTestingSwitchesEndpoint(t *testing.T) {
	t.Setenv("TESTING", "true")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("TEST_DB_HOST", "db-test.internal")
	t.Setenv("TEST_DB_NAME", "kinetics_test")

	cfg, err := Load()
	require.NoError(t, err)

	ep := cfg.ActiveEndpoint()
	assert.Equal(t, "db-test.internal", ep.Host)
	assert.Equal(t, "kinetics_test", ep.Name)
	assert.Contains(t, cfg.DSN(), "dbname=kinetics_test")
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}

func TestBackupEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.BackupEnabled())

	cfg.BackupBucket, cfg.BackupEndpoint = "backups", "https://s3.example.org"
	cfg.BackupAccessKey, cfg.BackupSecretKey = "key", "secret"
	assert.True(t, cfg.BackupEnabled())
}

func TestValidateRejectsUnknownLookupProvider(t *testing.T) {
	t.Setenv("LOOKUP_PROVIDERS", "europepmc,crossref")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crossref")
}
