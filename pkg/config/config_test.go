package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/question-bank/pkg/storage"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("IMPORT_DUPLICATE_THRESHOLD", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, storage.StorageTypeLocal, cfg.Storage.Type)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 85, cfg.Import.DuplicateThreshold)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://admin.example.com, https://staging.example.com ,")
	t.Setenv("POSTGRES_MIGRATE", "false")
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("STORAGE_S3_BUCKET", "qbank-sources")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, []string{"https://admin.example.com", "https://staging.example.com"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Database.Migrate)
	assert.Equal(t, "qbank-sources", cfg.Storage.S3Bucket)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown storage", map[string]string{"STORAGE_TYPE": "ftp"}},
		{"s3 without bucket", map[string]string{"STORAGE_TYPE": "s3", "STORAGE_S3_BUCKET": ""}},
		{"threshold out of range", map[string]string{"STORAGE_TYPE": "", "IMPORT_DUPLICATE_THRESHOLD": "150"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "qb", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=qb sslmode=disable", c.DSN())
}
