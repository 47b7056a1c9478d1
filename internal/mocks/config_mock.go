package mocks

import (
	"crypto"
	"time"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/config"
)

func CreateTestConfig() *config.Config {
	return &config.Config{
		AppEnv:      "test",
		LogLevel:    "debug",
		HTTPTimeout: 5 * time.Second,
		SRP: config.SRPConfig{
			Group:            "rfc5054.2048",
			HashingAlgorithm: crypto.SHA256,
		},
		LoginPolicy: config.LoginPolicyConfig{
			MaxAttempts: 4,
			Cooldown:    30 * time.Minute,
		},
		Stores: config.StoreConfig{
			Cooldown: "memory",
			Session:  "memory",
			Orphan:   "memory",
		},
		Analytics: config.AnalyticsConfig{
			Sink:   "log",
			Stream: "test:analytics",
		},
		OAuth: config.OAuthConfig{
			CallbackAddress: "127.0.0.1:0",
			StateExpiry:     time.Minute,
		},
	}
}
