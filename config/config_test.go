package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "IS_PROD", "DB_DRIVER",
		"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET"} {
		t.Setenv(key, "")
	}
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()
	assert.False(t, cfg.IsProd)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"http://localhost:8081", "http://localhost:19006"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DBDriver:           "sqlite",
			AccessTokenSecret:  "a",
			RefreshTokenSecret: "b",
			AccessTokenTTL:     time.Minute,
			RefreshTokenTTL:    time.Hour,
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.RefreshTokenSecret = "a"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.DBDriver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.AccessTokenTTL = 2 * time.Hour
	assert.Error(t, cfg.Validate())
}

func TestOpenDBAndMigrate(t *testing.T) {
	db, err := OpenDB(&Config{DBDriver: "sqlite", DBDSN: "file::memory:"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection would otherwise get its own in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable("orders"))
	assert.True(t, db.Migrator().HasTable("featured_restaurants"))
	assert.True(t, db.Migrator().HasTable("categories"))
}

func TestGormLoggerWritesThroughLogrus(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: newGormLogger(log)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Exec("SELECT 1").Error)
	assert.Contains(t, buf.String(), "SELECT 1")

	buf.Reset()
	log.SetLevel(logrus.InfoLevel)
	quiet, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: newGormLogger(log)})
	require.NoError(t, err)
	require.NoError(t, quiet.Exec("SELECT 1").Error)
	assert.Empty(t, buf.String())
}
