package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Solana   SolanaConfig   `yaml:"solana"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Payouts  PayoutsConfig  `yaml:"payouts"`
	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
	Admin    AdminConfig    `yaml:"admin"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	RequestTimeout int    `yaml:"requestTimeout"` // seconds
}

// DatabaseConfig Database configuration
type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// NATSConfig NATS / JetStream configuration for the disbursement queue
type NATSConfig struct {
	URL               string `yaml:"url"`
	Timeout           int    `yaml:"timeout"`        // seconds
	ReconnectWait     int    `yaml:"reconnect_wait"` // seconds
	MaxReconnects     int    `yaml:"max_reconnects"`
	Stream            string `yaml:"stream"`
	PayoutSubject     string `yaml:"payoutSubject"`     // prefix, worker id is appended
	SettlementSubject string `yaml:"settlementSubject"` // settlement results from the disbursement worker
	SettlementDurable string `yaml:"settlementDurable"`
	DuplicateWindow   int    `yaml:"duplicateWindow"` // seconds
}

// SolanaConfig chain access used by the escrow verifier
type SolanaConfig struct {
	RPCURL        string `yaml:"rpcUrl"`
	EscrowAddress string `yaml:"escrowAddress"` // platform wallet that receives task escrow
	Commitment    string `yaml:"commitment"`
	Timeout       int    `yaml:"timeout"` // seconds
}

// TasksConfig task creation limits
type TasksConfig struct {
	DefaultMaxSubmissions int `yaml:"defaultMaxSubmissions"`
	MaxOptions            int `yaml:"maxOptions"`
}

// PayoutsConfig redispatch sweep configuration
type PayoutsConfig struct {
	RedispatchSchedule  string `yaml:"redispatchSchedule"` // cron spec
	RedispatchAfter     int    `yaml:"redispatchAfter"`    // seconds a payout may stay undispatched
	MaxDispatchAttempts int    `yaml:"maxDispatchAttempts"`
	BatchSize           int    `yaml:"batchSize"`
}

// AuthConfig bearer token verification for users and workers
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	Issuer    string `yaml:"issuer"`
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"` // seconds
}

// AdminConfig Admin API access control configuration
type AdminConfig struct {
	AllowedIPs   []string `yaml:"allowedIPs"` // IP addresses or CIDR ranges
	Username     string   `yaml:"username"`
	PasswordHash string   `yaml:"passwordHash"` // bcrypt
	TOTPSecret   string   `yaml:"totpSecret"`
	JWTSecret    string   `yaml:"jwtSecret"`
}

// LogConfig logrus configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// RequestTimeout bounded wait for one getTransaction lookup
func (s SolanaConfig) RequestTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// ConnectTimeout NATS connect timeout
func (n NATSConfig) ConnectTimeout() time.Duration {
	return time.Duration(n.Timeout) * time.Second
}

// RedispatchAge minimum age of an undispatched payout before the sweep picks it up
func (p PayoutsConfig) RedispatchAge() time.Duration {
	return time.Duration(p.RedispatchAfter) * time.Second
}

// Addr listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig Load configuration file
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			log.Printf("🔧 Using local configuration file: config.local.yaml")
		}
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Printf("✅ Loading configuration from %s", configPath)
	case errors.Is(err, os.ErrNotExist):
		// Environment-only deployments
		log.Printf("⚠️ Config file %s not found, using environment and defaults", configPath)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if len(cfg.Admin.AllowedIPs) > 0 {
		log.Printf("📋 [Config] Admin IP whitelist loaded: %d IPs/CIDRs configured", len(cfg.Admin.AllowedIPs))
	} else {
		log.Printf("📋 [Config] Admin IP whitelist: not configured (localhost-only mode)")
	}

	return &cfg, nil
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.Solana.EscrowAddress == "" {
		return errors.New("solana escrowAddress is required")
	}
	if c.Solana.RPCURL == "" {
		return errors.New("solana rpcUrl is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth jwtSecret is required")
	}
	return nil
}

// overrideFromEnv Override configuration from environment
func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	// server configuration
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// NATS
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}

	// Solana
	if rpcURL := os.Getenv("SOLANA_RPC_URL"); rpcURL != "" {
		config.Solana.RPCURL = rpcURL
	}
	if escrow := os.Getenv("SOLANA_ESCROW_ADDRESS"); escrow != "" {
		config.Solana.EscrowAddress = escrow
	}
	if solTimeout := os.Getenv("SOLANA_TIMEOUT"); solTimeout != "" {
		if t, err := strconv.Atoi(solTimeout); err == nil {
			config.Solana.Timeout = t
		}
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		config.CORS.AllowedOrigins = splitList(origins)
	}

	// Admin
	if username := os.Getenv("ADMIN_USERNAME"); username != "" {
		config.Admin.Username = username
	}
	if hash := os.Getenv("ADMIN_PASSWORD_HASH"); hash != "" {
		config.Admin.PasswordHash = hash
	}
	if totpSecret := os.Getenv("ADMIN_TOTP_SECRET"); totpSecret != "" {
		config.Admin.TOTPSecret = totpSecret
	}
	if adminSecret := os.Getenv("ADMIN_JWT_SECRET"); adminSecret != "" {
		config.Admin.JWTSecret = adminSecret
	}
	if ips := os.Getenv("ADMIN_ALLOWED_IPS"); ips != "" {
		config.Admin.AllowedIPs = splitList(ips)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 30
	}

	if config.Database.MaxOpenConns == 0 {
		config.Database.MaxOpenConns = 25
	}
	if config.Database.MaxIdleConns == 0 {
		config.Database.MaxIdleConns = 5
	}
	if config.Database.ConnMaxLifetime == 0 {
		config.Database.ConnMaxLifetime = 300
	}

	if config.NATS.Timeout == 0 {
		config.NATS.Timeout = 10
	}
	if config.NATS.ReconnectWait == 0 {
		config.NATS.ReconnectWait = 5
	}
	if config.NATS.MaxReconnects == 0 {
		config.NATS.MaxReconnects = -1
	}
	if config.NATS.Stream == "" {
		config.NATS.Stream = "CROWDMINT_PAYOUTS"
	}
	if config.NATS.PayoutSubject == "" {
		config.NATS.PayoutSubject = "crowdmint.payouts.requested"
	}
	if config.NATS.SettlementSubject == "" {
		config.NATS.SettlementSubject = "crowdmint.payouts.settled"
	}
	if config.NATS.SettlementDurable == "" {
		config.NATS.SettlementDurable = "crowdmint-payout-settlement"
	}
	if config.NATS.DuplicateWindow == 0 {
		config.NATS.DuplicateWindow = 120
	}

	if config.Solana.Commitment == "" {
		config.Solana.Commitment = "finalized"
	}
	if config.Solana.Timeout == 0 {
		config.Solana.Timeout = 15
	}

	if config.Tasks.DefaultMaxSubmissions == 0 {
		config.Tasks.DefaultMaxSubmissions = 100
	}
	if config.Tasks.MaxOptions == 0 {
		config.Tasks.MaxOptions = 10
	}

	if config.Payouts.RedispatchSchedule == "" {
		config.Payouts.RedispatchSchedule = "@every 1m"
	}
	if config.Payouts.RedispatchAfter == 0 {
		config.Payouts.RedispatchAfter = 120
	}
	if config.Payouts.MaxDispatchAttempts == 0 {
		config.Payouts.MaxDispatchAttempts = 10
	}
	if config.Payouts.BatchSize == 0 {
		config.Payouts.BatchSize = 100
	}

	if config.Auth.Issuer == "" {
		config.Auth.Issuer = "crowdmint-backend"
	}

	if config.Admin.Username == "" {
		config.Admin.Username = "admin"
	}

	if config.CORS.MaxAge == 0 {
		config.CORS.MaxAge = 3600
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
