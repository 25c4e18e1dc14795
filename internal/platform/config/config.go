// Package config loads server configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence (last wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	pstrings "vaultspark/pkg/platform/strings"
)

// EnvConfigPath names the YAML file to load, if any.
const EnvConfigPath = "VAULTSPARK_CONFIG"

const devSigningKey = "dev-secret-key-change-in-production"

type Config struct {
	Server    Server      `yaml:"server"`
	Log       Log         `yaml:"log"`
	Postgres  Postgres    `yaml:"postgres"`
	Redis     RedisConfig `yaml:"redis"`
	Kafka     Kafka       `yaml:"kafka"`
	Auth      Auth        `yaml:"auth"`
	Wallet    Wallet      `yaml:"wallet"`
	Analytics Analytics   `yaml:"analytics"`
	Ledger    Ledger      `yaml:"ledger"`
	Notify    Notify      `yaml:"notify"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `yaml:"addr" default:"127.0.0.1:8080" validate:"required"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" default:"5s" validate:"gt=0"`
	RequestTimeout    time.Duration `yaml:"request_timeout" default:"30s" validate:"gt=0"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" default:"10s" validate:"gt=0"`
	// AllowedOrigins lists websocket origins besides same-host ones.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Log struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json text"`
}

// Postgres is optional. Without a URL the server keeps profiles, ledger,
// roles and users in memory.
type Postgres struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns" default:"10" validate:"gte=1"`
	MaxIdleConns    int           `yaml:"max_idle_conns" default:"5" validate:"gte=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
	Migrate         bool          `yaml:"migrate" default:"true"`
}

// RedisConfig is optional. Without a URL the restorable session is kept in
// memory and does not survive a restart.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size" default:"10" validate:"gte=1"`
	MinIdleConns int           `yaml:"min_idle_conns" default:"2" validate:"gte=0"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"3s"`
	SessionKey   string        `yaml:"session_key" default:"vaultspark:session:current" validate:"required"`
}

// Kafka is optional. Without brokers audit events stay in memory.
type Kafka struct {
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic" default:"vaultspark.audit" validate:"required"`
	ClientID    string   `yaml:"client_id" default:"vaultspark" validate:"required"`
	Partitions  int32    `yaml:"partitions" default:"1" validate:"gte=1"`
	AuditBuffer int      `yaml:"audit_buffer" default:"256" validate:"gte=0"`
}

type Auth struct {
	JWTSigningKey            string        `yaml:"jwt_signing_key" default:"dev-secret-key-change-in-production" validate:"required,min=16"`
	Issuer                   string        `yaml:"issuer" default:"vaultspark" validate:"required"`
	AccessTokenTTL           time.Duration `yaml:"access_token_ttl" default:"1h" validate:"gt=0"`
	RefreshTokenTTL          time.Duration `yaml:"refresh_token_ttl" default:"720h" validate:"gtfield=AccessTokenTTL"`
	RefreshBefore            time.Duration `yaml:"refresh_before" default:"5m" validate:"gte=0"`
	RequireEmailConfirmation bool          `yaml:"require_email_confirmation"`
	BcryptCost               int           `yaml:"bcrypt_cost" default:"10" validate:"gte=4,lte=31"`
	ProviderTimeout          time.Duration `yaml:"provider_timeout" default:"10s" validate:"gt=0"`
	HydrateTimeout           time.Duration `yaml:"hydrate_timeout" default:"10s" validate:"gt=0"`
}

type Wallet struct {
	// RPCURL is an http(s), ws(s) or IPC endpoint answering eth_requestAccounts.
	// Empty means no wallet provider is available.
	RPCURL         string        `yaml:"rpc_url"`
	RequestTimeout time.Duration `yaml:"request_timeout" default:"60s" validate:"gt=0"`
}

type Analytics struct {
	AdminRole   string `yaml:"admin_role" default:"admin" validate:"required"`
	Timezone    string `yaml:"timezone" default:"Local" validate:"required"`
	RecentUsers int    `yaml:"recent_users" default:"10" validate:"gte=1,lte=100"`

	location *time.Location
}

// Location is the zone volumeByDay buckets by. Valid after Load.
func (a Analytics) Location() *time.Location {
	if a.location == nil {
		return time.Local
	}
	return a.location
}

// Ledger rows are written by an external indexer. SeedFile loads an exported
// ledger at start-up, which is how the in-memory store gets any rows.
type Ledger struct {
	SeedFile string `yaml:"seed_file"`
}

type Notify struct {
	Capacity int `yaml:"capacity" default:"100" validate:"gte=1"`
}

var validate = validator.New()

// FromEnv loads the configuration named by VAULTSPARK_CONFIG (if set) and
// applies environment overrides.
func FromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}

// Load builds a Config from defaults, the YAML file at path (skipped when path
// is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set config defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.Kafka.Brokers = pstrings.DedupeAndTrim(c.Kafka.Brokers)
	c.Server.AllowedOrigins = pstrings.DedupeAndTrimLower(c.Server.AllowedOrigins)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate checks struct constraints and resolves the analytics time zone.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	loc, err := time.LoadLocation(c.Analytics.Timezone)
	if err != nil {
		return fmt.Errorf("analytics.timezone: %w", err)
	}
	c.Analytics.location = loc
	return nil
}

// UsesDevSigningKey reports whether the built-in development key is in use.
func (c *Config) UsesDevSigningKey() bool {
	return c.Auth.JWTSigningKey == devSigningKey
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "VAULTSPARK_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Postgres.URL, "DATABASE_URL")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Kafka.Topic, "KAFKA_AUDIT_TOPIC")
	setString(&c.Auth.JWTSigningKey, "JWT_SIGNING_KEY")
	setString(&c.Wallet.RPCURL, "WALLET_RPC_URL")
	setString(&c.Analytics.AdminRole, "ADMIN_ROLE")
	setString(&c.Analytics.Timezone, "ANALYTICS_TIMEZONE")
	setString(&c.Ledger.SeedFile, "LEDGER_SEED_FILE")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("REQUIRE_EMAIL_CONFIRMATION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REQUIRE_EMAIL_CONFIRMATION: %w", err)
		}
		c.Auth.RequireEmailConfirmation = b
	}
	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
		}
		c.Auth.AccessTokenTTL = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
