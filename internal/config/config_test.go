package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"DB_DSN":            "postgres://localhost/proposals",
		"JWT_ACCESS_SECRET": "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 2*time.Second, cfg.Proposal.Debounce)
	assert.Equal(t, 1500*time.Millisecond, cfg.Proposal.SavedReset)
	assert.Equal(t, "system", cfg.Proposal.Author)
	assert.Equal(t, 30*time.Minute, cfg.Proposal.SessionIdleTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "pandoc", cfg.Export.PandocPath)
	assert.False(t, cfg.Storage.Enabled())
	assert.False(t, cfg.SMTP.Enabled())
}

func TestOverrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"DB_DSN":               "dsn",
		"JWT_ACCESS_SECRET":    "secret",
		"APP_ENV":              "production",
		"AUTOSAVE_DEBOUNCE":    "500ms",
		"SHARE_LINK_TTL":       "168h",
		"CORS_ALLOWED_ORIGINS": " https://a.example , ,https://b.example",
		"STORAGE_ENDPOINT":     "minio:9000",
		"STORAGE_BUCKET":       "assets",
	}))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 500*time.Millisecond, cfg.Proposal.Debounce)
	assert.Equal(t, 168*time.Hour, cfg.Proposal.ShareLinkTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.Storage.Enabled())
}

func TestValidateRequiresSecrets(t *testing.T) {
	_, err := fromViper(newViper(map[string]any{"JWT_ACCESS_SECRET": "x"}))
	assert.ErrorContains(t, err, "DB_DSN")

	_, err = fromViper(newViper(map[string]any{"DB_DSN": "x"}))
	assert.ErrorContains(t, err, "JWT_ACCESS_SECRET")

	_, err = fromViper(newViper(map[string]any{"DB_DSN": "x", "JWT_ACCESS_SECRET": "y", "BCRYPT_COST": 2}))
	assert.ErrorContains(t, err, "BCRYPT_COST")
}
