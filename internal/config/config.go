package config

import (
	"crypto"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tadglines/go-pkgs/crypto/srp"
)

const (
	defaultSRPGroup        = "rfc5054.4096"
	defaultMaxAttempts     = 4
	defaultCooldown        = 30 * time.Minute
	defaultHTTPTimeout     = 15 * time.Second
	defaultCallbackAddress = "127.0.0.1:8765"
	defaultStateExpiry     = 10 * time.Minute
)

type SRPConfig struct {
	// One of the rfc5054.* or stanford.* groups known to go-pkgs/crypto/srp.
	// Default to rfc5054.4096
	Group            string
	HashingAlgorithm crypto.Hash
}

type LoginPolicyConfig struct {
	MaxAttempts int           `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	Cooldown    time.Duration `mapstructure:"LOGIN_COOLDOWN"`
}

type RedisSettings struct {
	Address  string
	Password string
	DB       int
}

type StoreConfig struct {
	// memory, sqlite or redis
	Cooldown   string
	SQLitePath string
	// memory or redis
	Session string
	Orphan  string
}

type AnalyticsConfig struct {
	// log or redis
	Sink   string
	Stream string
}

// OAuthProviderConfig describes one OIDC provider. AuthURL and TokenURL are
// optional; when empty the endpoint is discovered from the issuer.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	Issuer       string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

type OAuthConfig struct {
	CallbackAddress string
	StateExpiry     time.Duration
	Providers       map[string]OAuthProviderConfig
}

type Config struct {
	AppEnv             string
	LogLevel           string
	IdentityServiceURL string
	UserRegistryURL    string
	HTTPTimeout        time.Duration
	SRP                SRPConfig
	LoginPolicy        LoginPolicyConfig
	Stores             StoreConfig
	RedisSettings      RedisSettings
	Analytics          AnalyticsConfig
	OAuth              OAuthConfig
}

// oauthProviderDefaults holds issuers for the providers the platform supports.
var oauthProviderDefaults = map[string]string{
	"GOOGLE":    "https://accounts.google.com",
	"APPLE":     "https://appleid.apple.com",
	"MICROSOFT": "https://login.microsoftonline.com/9188040d-6c67-4c5b-b112-36a304b66dad/v2.0",
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return FromViper(v), nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)

	srpGroup := v.GetString("SRP_GROUP")
	if _, err := srp.GetGroup(srpGroup); err != nil {
		log.Printf("Invalid SRP group '%s', defaulting to '%s'", srpGroup, defaultSRPGroup)
		srpGroup = defaultSRPGroup
	}

	var hashingAlgorithm crypto.Hash
	switch hashingAlgorithmStr := strings.ToUpper(v.GetString("HASHING_ALGORITHM")); hashingAlgorithmStr {
	case "SHA1":
		hashingAlgorithm = crypto.SHA1
	case "SHA256":
		hashingAlgorithm = crypto.SHA256
	case "SHA512":
		hashingAlgorithm = crypto.SHA512
	default:
		hashingAlgorithm = crypto.SHA512
		log.Printf("Invalid hashing algorithm '%s', defaulting to SHA512", hashingAlgorithmStr)
	}

	maxAttempts := v.GetInt("LOGIN_MAX_ATTEMPTS")
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	cooldown := v.GetDuration("LOGIN_COOLDOWN")
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}

	providers := make(map[string]OAuthProviderConfig)
	for name, issuer := range oauthProviderDefaults {
		clientID := v.GetString(name + "_CLIENT_ID")
		if clientID == "" {
			continue
		}
		if custom := v.GetString(name + "_ISSUER"); custom != "" {
			issuer = custom
		}
		providers[name] = OAuthProviderConfig{
			ClientID:     clientID,
			ClientSecret: v.GetString(name + "_CLIENT_SECRET"),
			Issuer:       issuer,
			AuthURL:      v.GetString(name + "_AUTH_URL"),
			TokenURL:     v.GetString(name + "_TOKEN_URL"),
			Scopes:       []string{"openid", "profile", "email"},
		}
	}

	return &Config{
		AppEnv:             v.GetString("APP_ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		IdentityServiceURL: strings.TrimRight(v.GetString("IDENTITY_SERVICE_URL"), "/"),
		UserRegistryURL:    strings.TrimRight(v.GetString("USER_REGISTRY_URL"), "/"),
		HTTPTimeout:        v.GetDuration("HTTP_TIMEOUT"),
		SRP: SRPConfig{
			Group:            srpGroup,
			HashingAlgorithm: hashingAlgorithm,
		},
		LoginPolicy: LoginPolicyConfig{
			MaxAttempts: maxAttempts,
			Cooldown:    cooldown,
		},
		Stores: StoreConfig{
			Cooldown:   strings.ToLower(v.GetString("COOLDOWN_STORE")),
			SQLitePath: v.GetString("COOLDOWN_SQLITE_PATH"),
			Session:    strings.ToLower(v.GetString("SESSION_STORE")),
			Orphan:     strings.ToLower(v.GetString("ORPHAN_STORE")),
		},
		RedisSettings: RedisSettings{
			Address:  v.GetString("REDIS_ADDRESS"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Analytics: AnalyticsConfig{
			Sink:   strings.ToLower(v.GetString("ANALYTICS_SINK")),
			Stream: v.GetString("ANALYTICS_STREAM"),
		},
		OAuth: OAuthConfig{
			CallbackAddress: v.GetString("OAUTH_CALLBACK_ADDRESS"),
			StateExpiry:     v.GetDuration("OAUTH_STATE_EXPIRY"),
			Providers:       providers,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_TIMEOUT", defaultHTTPTimeout)
	v.SetDefault("SRP_GROUP", defaultSRPGroup)
	v.SetDefault("HASHING_ALGORITHM", "SHA512")
	v.SetDefault("COOLDOWN_STORE", "sqlite")
	v.SetDefault("COOLDOWN_SQLITE_PATH", "./scs-auth.db")
	v.SetDefault("SESSION_STORE", "memory")
	v.SetDefault("ORPHAN_STORE", "memory")
	v.SetDefault("ANALYTICS_SINK", "log")
	v.SetDefault("ANALYTICS_STREAM", "auth:analytics")
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("OAUTH_CALLBACK_ADDRESS", defaultCallbackAddress)
	v.SetDefault("OAUTH_STATE_EXPIRY", defaultStateExpiry)
}
