package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg := fromViper(viper.New())

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 2*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Sync.MaxBackoff)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.DB.Enabled(), "sin DATABASE_URL ni DB_HOST se usa memoria")
}

func TestFromViper_LeeVariables(t *testing.T) {
	v := viper.New()
	v.Set("EXPO_PUBLIC_API_URL", "https://api.panaderia.test/")
	v.Set("SYNC_INTERVAL", "45")
	v.Set("API_TIMEOUT", "3s")
	v.Set("HTTP_PORT", "9100")
	v.Set("NOTIFICATIONS_GRANTED", "false")

	cfg := fromViper(v)

	assert.Equal(t, "https://api.panaderia.test", cfg.API.BaseURL, "se recorta la barra final")
	assert.Equal(t, 45*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 9100, cfg.HTTP.Port)
	assert.False(t, cfg.Device.GrantNotifications)
}

func TestFromViper_APIURLAlias(t *testing.T) {
	v := viper.New()
	v.Set("API_URL", "http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", fromViper(v).API.BaseURL)
}

func TestValidate_URLBaseObligatoria(t *testing.T) {
	cfg := fromViper(viper.New())
	cfg.JWT.Secret = "s"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXPO_PUBLIC_API_URL")
}

func TestValidate_ConfigCompleta(t *testing.T) {
	v := viper.New()
	v.Set("EXPO_PUBLIC_API_URL", "https://api.panaderia.test")
	v.Set("JWT_SECRET", "secreto")
	cfg := fromViper(v)

	assert.NoError(t, cfg.Validate())
}

func TestValidate_BackoffMenorQueIntervalo(t *testing.T) {
	v := viper.New()
	v.Set("EXPO_PUBLIC_API_URL", "https://api.panaderia.test")
	v.Set("JWT_SECRET", "secreto")
	v.Set("SYNC_INTERVAL", "10m")
	v.Set("SYNC_MAX_BACKOFF", "1m")

	err := fromViper(v).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYNC_MAX_BACKOFF")
}
