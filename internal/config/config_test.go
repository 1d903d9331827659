package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setProjectEnv(t *testing.T) {
	t.Setenv("PROJECT_API_KEY", "key-123")
	t.Setenv("PROJECT_AUTH_DOMAIN", "http://localhost:5001")
	t.Setenv("PROJECT_ID", "peckin-test")
	t.Setenv("PROJECT_STORAGE_BUCKET", "peckin-avatars")
	t.Setenv("PROJECT_MESSAGING_SENDER_ID", "1234")
	t.Setenv("PROJECT_APP_ID", "1:1234:web:abcd")
}

func TestLoadConfig(t *testing.T) {
	setProjectEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("STORE_COLLECTIONS", "users, scans")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "key-123", cfg.Project.APIKey)
	require.Equal(t, "", cfg.Project.MeasurementID)
	// database falls back to the project id
	require.Equal(t, "peckin-test", cfg.MongoDB.Database)
	require.Equal(t, "6379", cfg.Redis.Port)
	require.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	require.Equal(t, []string{"users", "scans"}, cfg.Store.Collections)
}

func TestLoadConfig_DefaultCollections(t *testing.T) {
	setProjectEnv(t)
	t.Setenv("STORE_COLLECTIONS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	// scans takes server-assigned ids; users is keyed by account id only
	require.Equal(t, []string{"users", "scans"}, cfg.Store.Collections)
}

func TestLoadConfig_MissingProjectValues(t *testing.T) {
	setProjectEnv(t)
	t.Setenv("PROJECT_APP_ID", "")
	t.Setenv("PROJECT_API_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "PROJECT_API_KEY")
	require.Contains(t, err.Error(), "PROJECT_APP_ID")
}
