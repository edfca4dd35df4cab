package configs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequiredStorageEnv(t *testing.T) {
	t.Helper()
	t.Setenv("S3_BUCKET_NAME", "test-bucket")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("S3_ACCESS_KEY_ID", "test-key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "test-secret")
	t.Setenv("S3_PUBLIC_BASE_URL", "https://cdn.test")
}

func TestLoadConfigDevelopmentDefaults(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GROUP_EXCLUSIVE_ON_ADD", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, 5001, cfg.Port)
	require.NotEmpty(t, cfg.JWTSecret)
	require.NotEmpty(t, cfg.DatabaseDSN)
	require.False(t, cfg.GroupExclusiveOnAdd)
}

func TestLoadConfigRequiresSecretsInProduction(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("PORT", "80")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("PORT", "not-a-number")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigParsesOriginsAndPolicy(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://b.test ,")
	t.Setenv("GROUP_EXCLUSIVE_ON_ADD", "true")
	t.Setenv("S3_PUBLIC_BASE_URL", "https://cdn.test/")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
	require.True(t, cfg.GroupExclusiveOnAdd)

	// Trailing slash is trimmed so URL assembly never doubles it.
	require.Equal(t, "https://cdn.test", cfg.S3PublicBaseURL)
}
