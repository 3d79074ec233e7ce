package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("SECRET_KEY", "access-secret")
	t.Setenv("PASSWORD_RESET_SECRET", "reset-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredSecrets(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.VerificationTokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.PasswordResetTTL)
	assert.Equal(t, 15*time.Minute, cfg.UserCacheTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("PASSWORD_RESET_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsSharedSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "same-secret")
	t.Setenv("PASSWORD_RESET_SECRET", "same-secret")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfigCORSOriginList(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("CORS_ORIGINS", " http://a.example.com ,http://b.example.com,, ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.example.com", "http://b.example.com"}, cfg.CORSOriginList())
}
