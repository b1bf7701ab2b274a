package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Chain     ChainConfig
	Ledger    LedgerConfig
	Fetch     FetchConfig
	Reconcile ReconcileConfig
	Fields    FieldsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	Compress        bool          `envconfig:"HTTP_COMPRESS" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-IP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig holds allowed origin patterns.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// ChainConfig holds identity issuance settings.
type ChainConfig struct {
	RPCURL          string `envconfig:"CHAIN_RPC_URL"`
	ChainID         int64  `envconfig:"CHAIN_ID" default:"0"`
	ContractAddress string `envconfig:"IDENTITY_CONTRACT_ADDRESS"`
	PrivateKey      string `envconfig:"SIGNER_PRIVATE_KEY"`
}

// LedgerConfig holds remote registry settings.
type LedgerConfig struct {
	URL       string        `envconfig:"LEDGER_URL"`
	Token     string        `envconfig:"LEDGER_TOKEN"`
	Timeout   time.Duration `envconfig:"LEDGER_TIMEOUT" default:"30s"`
	RateLimit float64       `envconfig:"LEDGER_RATE_LIMIT" default:"0"`
	Marker    string        `envconfig:"REGISTRY_MARKER" default:"agent-registry"`
}

// FetchConfig holds upstream document fetch settings.
type FetchConfig struct {
	Timeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	MaxBytes    int64         `envconfig:"FETCH_MAX_BYTES" default:"1048576"`
	IPFSGateway string        `envconfig:"IPFS_GATEWAY" default:"https://ipfs.io/ipfs/"`
}

// ReconcileConfig holds the unsynced identity store settings.
type ReconcileConfig struct {
	DatabaseURL string `envconfig:"DATABASE_URL"`
}

// FieldsConfig holds the reverse mapping table settings.
type FieldsConfig struct {
	TablePath string `envconfig:"FIELD_TABLE_PATH"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			Compress:        true,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
		Ledger: LedgerConfig{
			Timeout: 30 * time.Second,
			Marker:  "agent-registry",
		},
		Fetch: FetchConfig{
			Timeout:     15 * time.Second,
			MaxBytes:    1 << 20,
			IPFSGateway: "https://ipfs.io/ipfs/",
		},
	}
}

// Configured reports whether every identity issuance setting is present.
func (c ChainConfig) Configured() bool {
	return c.Validate() == nil
}

// Validate returns a configuration error naming each missing setting.
func (c ChainConfig) Validate() error {
	var missing []string
	if c.RPCURL == "" {
		missing = append(missing, "CHAIN_RPC_URL")
	}
	if c.ChainID <= 0 {
		missing = append(missing, "CHAIN_ID")
	}
	if c.ContractAddress == "" {
		missing = append(missing, "IDENTITY_CONTRACT_ADDRESS")
	}
	if c.PrivateKey == "" {
		missing = append(missing, "SIGNER_PRIVATE_KEY")
	}
	if len(missing) > 0 {
		return apperr.Configuration("identity issuance is not configured: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// APIKeys collects accepted API keys from API_KEY, API_KEY_<n> and the
// comma-separated API_KEYS. Duplicates and blanks are dropped.
func APIKeys() []string {
	return apiKeysFrom(os.Environ())
}

func apiKeysFrom(environ []string) []string {
	seen := make(map[string]struct{})
	var keys []string
	add := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	var numbered []string
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		vars[name] = value
		if suffix, found := strings.CutPrefix(name, "API_KEY_"); found && isDigits(suffix) {
			numbered = append(numbered, name)
		}
	}
	sort.Slice(numbered, func(i, j int) bool {
		if len(numbered[i]) != len(numbered[j]) {
			return len(numbered[i]) < len(numbered[j])
		}
		return numbered[i] < numbered[j]
	})

	add(vars["API_KEY"])
	for _, name := range numbered {
		add(vars[name])
	}
	for _, k := range strings.Split(vars["API_KEYS"], ",") {
		add(k)
	}
	return keys
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
