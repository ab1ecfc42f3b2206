package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	JWT           JWTConfig          `yaml:"jwt"`
	Log           LogConfig          `yaml:"log"`
	Payments      PaymentsConfig     `yaml:"payments"`
	Platform      PlatformConfig     `yaml:"platform"`
	Notifications NotificationConfig `yaml:"notifications"`
	Kafka         KafkaConfig        `yaml:"kafka"`
	Redis         RedisConfig        `yaml:"redis"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
	// PublicBaseURL is used to build callback and sandbox checkout URLs.
	PublicBaseURL string `yaml:"public_base_url"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// JWTConfig holds the verification settings for tokens issued by the auth provider
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json", "text" or "pretty"
}

type PaymentsConfig struct {
	MinimumRecharge int64          `yaml:"minimum_recharge"`
	ReturnURL       string         `yaml:"return_url"`
	DefaultProvider string         `yaml:"default_provider"`
	TimeoutSeconds  int            `yaml:"timeout_seconds"`
	Midtrans        MidtransConfig `yaml:"midtrans"`
	Kkiapay         KkiapayConfig  `yaml:"kkiapay"`
	Sandbox         SandboxConfig  `yaml:"sandbox"`
}

type MidtransConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ServerKey string `yaml:"server_key"`
	APIURL    string `yaml:"api_url"`
	SnapURL   string `yaml:"snap_url"`
}

type KkiapayConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"public_key"`
	PrivateKey string `yaml:"private_key"`
	Secret     string `yaml:"secret"`
	APIURL     string `yaml:"api_url"`
	WidgetURL  string `yaml:"widget_url"`
	Sandbox    bool   `yaml:"sandbox"`
}

// SandboxConfig enables the in-process provider. Never enable it in production.
type SandboxConfig struct {
	Enabled      bool `yaml:"enabled"`
	AutoComplete bool `yaml:"auto_complete"`
}

type PlatformConfig struct {
	// UserID owns the wallet that collects commission and fees.
	UserID string `yaml:"user_id"`
	// OperatorIDs receive ledger alerts.
	OperatorIDs []string `yaml:"operator_ids"`
}

type NotificationConfig struct {
	SendGridAPIKey      string `yaml:"sendgrid_api_key"`
	FromEmail           string `yaml:"from_email"`
	FromName            string `yaml:"from_name"`
	FirebaseCredentials string `yaml:"firebase_credentials_file"`
}

type KafkaConfig struct {
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	ClientID string   `yaml:"client_id"`
}

type RedisConfig struct {
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	EnableTLS     bool   `yaml:"enable_tls"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

// SchedulerConfig contains cron schedule settings (with seconds)
type SchedulerConfig struct {
	VerifyPendingPayments string `yaml:"verify_pending_payments"`
	RetryFailedRefunds    string `yaml:"retry_failed_refunds"`
	ExpireUnpaidBookings  string `yaml:"expire_unpaid_bookings"`
	ReconcileWallets      string `yaml:"reconcile_wallets"`
	BatchSize             int    `yaml:"batch_size"`
	// InProcess runs the jobs inside the API server. Required with the
	// sandbox provider, whose charges live in process memory.
	InProcess bool `yaml:"in_process"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("PUBLIC_BASE_URL"); val != "" {
		c.Server.PublicBaseURL = val
	}

	// Payments
	if val := os.Getenv("MIDTRANS_SERVER_KEY"); val != "" {
		c.Payments.Midtrans.ServerKey = val
	}
	if val := os.Getenv("KKIAPAY_PRIVATE_KEY"); val != "" {
		c.Payments.Kkiapay.PrivateKey = val
	}
	if val := os.Getenv("KKIAPAY_SECRET"); val != "" {
		c.Payments.Kkiapay.Secret = val
	}

	// Notifications
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notifications.SendGridAPIKey = val
	}

	// Brokers
	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	if _, err := c.PlatformUserID(); err != nil {
		return err
	}
	if _, err := c.OperatorIDs(); err != nil {
		return err
	}

	p := &c.Payments
	if !p.Midtrans.Enabled && !p.Kkiapay.Enabled && !p.Sandbox.Enabled {
		return fmt.Errorf("at least one payment provider must be enabled")
	}
	if p.Midtrans.Enabled && p.Midtrans.ServerKey == "" {
		return fmt.Errorf("midtrans server key is required")
	}
	if p.Kkiapay.Enabled && (p.Kkiapay.PublicKey == "" || p.Kkiapay.PrivateKey == "" || p.Kkiapay.Secret == "") {
		return fmt.Errorf("kkiapay public key, private key and secret are required")
	}
	if p.TimeoutSeconds == 0 {
		p.TimeoutSeconds = 15
	}
	if p.DefaultProvider == "" {
		switch {
		case p.Kkiapay.Enabled:
			p.DefaultProvider = "kkiapay"
		case p.Midtrans.Enabled:
			p.DefaultProvider = "midtrans"
		default:
			p.DefaultProvider = "sandbox"
		}
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		c.Kafka.Topic = "booking-events"
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "threewloc-backend"
	}
	if c.Redis.ChannelPrefix == "" {
		c.Redis.ChannelPrefix = "3wloc:"
	}
	if c.Notifications.FromName == "" {
		c.Notifications.FromName = "3W-LOC"
	}

	// Scheduler defaults
	if c.Scheduler.VerifyPendingPayments == "" {
		c.Scheduler.VerifyPendingPayments = "*/15 * * * * *" // every 15 seconds
	}
	if c.Scheduler.RetryFailedRefunds == "" {
		c.Scheduler.RetryFailedRefunds = "0 */10 * * * *" // every 10 minutes
	}
	if c.Scheduler.ExpireUnpaidBookings == "" {
		c.Scheduler.ExpireUnpaidBookings = "0 */30 * * * *" // every 30 minutes
	}
	if c.Scheduler.ReconcileWallets == "" {
		c.Scheduler.ReconcileWallets = "0 0 3 * * *" // 3 AM UTC
	}
	if c.Scheduler.BatchSize == 0 {
		c.Scheduler.BatchSize = 50
	}

	return nil
}

// PlatformUserID parses platform.user_id.
func (c *Config) PlatformUserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Platform.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("platform user id must be a UUID: %w", err)
	}
	return id, nil
}

// OperatorIDs parses platform.operator_ids.
func (c *Config) OperatorIDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(c.Platform.OperatorIDs))
	for _, raw := range c.Platform.OperatorIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("operator id %q must be a UUID: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the ops gRPC listen address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
