package config

import (
	"crypto"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg := FromViper(viper.New())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, defaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, "rfc5054.4096", cfg.SRP.Group)
	assert.Equal(t, crypto.SHA512, cfg.SRP.HashingAlgorithm)
	assert.Equal(t, LoginPolicyConfig{MaxAttempts: 4, Cooldown: 30 * time.Minute}, cfg.LoginPolicy)
	assert.Equal(t, "sqlite", cfg.Stores.Cooldown)
	assert.Equal(t, "memory", cfg.Stores.Session)
	assert.Equal(t, "memory", cfg.Stores.Orphan)
	assert.Equal(t, "log", cfg.Analytics.Sink)
	assert.Equal(t, "127.0.0.1:8765", cfg.OAuth.CallbackAddress)
	assert.Equal(t, 10*time.Minute, cfg.OAuth.StateExpiry)
	assert.Empty(t, cfg.OAuth.Providers)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("IDENTITY_SERVICE_URL", "https://id.example.com/")
	v.Set("USER_REGISTRY_URL", "https://users.example.com")
	v.Set("SRP_GROUP", "rfc5054.2048")
	v.Set("HASHING_ALGORITHM", "sha256")
	v.Set("LOGIN_MAX_ATTEMPTS", 6)
	v.Set("LOGIN_COOLDOWN", "5m")
	v.Set("COOLDOWN_STORE", "Redis")
	v.Set("REDIS_DB", 2)

	cfg := FromViper(v)

	assert.Equal(t, "https://id.example.com", cfg.IdentityServiceURL)
	assert.Equal(t, "https://users.example.com", cfg.UserRegistryURL)
	assert.Equal(t, "rfc5054.2048", cfg.SRP.Group)
	assert.Equal(t, crypto.SHA256, cfg.SRP.HashingAlgorithm)
	assert.Equal(t, 6, cfg.LoginPolicy.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.LoginPolicy.Cooldown)
	assert.Equal(t, "redis", cfg.Stores.Cooldown)
	assert.Equal(t, 2, cfg.RedisSettings.DB)
}

func TestFromViper_InvalidValuesFallBack(t *testing.T) {
	v := viper.New()
	v.Set("SRP_GROUP", "rfc9999.1")
	v.Set("HASHING_ALGORITHM", "MD5")
	v.Set("LOGIN_MAX_ATTEMPTS", -1)

	cfg := FromViper(v)

	assert.Equal(t, defaultSRPGroup, cfg.SRP.Group)
	assert.Equal(t, crypto.SHA512, cfg.SRP.HashingAlgorithm)
	assert.Equal(t, defaultMaxAttempts, cfg.LoginPolicy.MaxAttempts)
}

func TestFromViper_Providers(t *testing.T) {
	v := viper.New()
	v.Set("GOOGLE_CLIENT_ID", "google-client")
	v.Set("GOOGLE_CLIENT_SECRET", "google-secret")
	v.Set("APPLE_CLIENT_ID", "apple-client")
	v.Set("APPLE_ISSUER", "https://apple.test")
	v.Set("APPLE_AUTH_URL", "https://apple.test/auth")
	v.Set("APPLE_TOKEN_URL", "https://apple.test/token")

	cfg := FromViper(v)

	require.Len(t, cfg.OAuth.Providers, 2)
	google := cfg.OAuth.Providers["GOOGLE"]
	assert.Equal(t, "google-client", google.ClientID)
	assert.Equal(t, "google-secret", google.ClientSecret)
	assert.Equal(t, "https://accounts.google.com", google.Issuer)
	assert.Equal(t, []string{"openid", "profile", "email"}, google.Scopes)

	apple := cfg.OAuth.Providers["APPLE"]
	assert.Equal(t, "https://apple.test", apple.Issuer)
	assert.Equal(t, "https://apple.test/auth", apple.AuthURL)
	assert.Equal(t, "https://apple.test/token", apple.TokenURL)

	_, ok := cfg.OAuth.Providers["MICROSOFT"]
	assert.False(t, ok)
}
