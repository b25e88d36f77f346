package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "FARMHUB"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "FARMHUB_APP_ENV"
	EnvDBDSN  = "FARMHUB_DB_DSN"
	EnvDBHost = "FARMHUB_DB_HOST"
	EnvDBUser = "FARMHUB_DB_USER"
	EnvDBName = "FARMHUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	Settlement   SettlementConfig
	Gateway      GatewayConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Settlement.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FARMHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"FARMHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FARMHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FARMHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FARMHUB_DB_DSN"`
	Driver string `envconfig:"FARMHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FARMHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"FARMHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FARMHUB_DB_USER"`
	LegacyPassword string `envconfig:"FARMHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"FARMHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"FARMHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FARMHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FARMHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FARMHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FARMHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FARMHUB_REDIS_ADDR"`
	Password     string        `envconfig:"FARMHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type RateLimitConfig struct {
	Enabled bool          `envconfig:"FARMHUB_RATE_LIMIT_ENABLED" default:"true"`
	Limit   int64         `envconfig:"FARMHUB_RATE_LIMIT_REQUESTS" default:"120"`
	Window  time.Duration `envconfig:"FARMHUB_RATE_LIMIT_WINDOW" default:"1m"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FARMHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FARMHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FARMHUB_JWT_EXPIRATION_MINUTES" required:"true"`
}

// SettlementConfig carries the fee rates and the system-fee recipient account.
// The system account is resolved once here instead of being looked up per
// transaction.
type SettlementConfig struct {
	SystemFeeRate    string `envconfig:"FARMHUB_SETTLEMENT_SYSTEM_FEE_RATE" default:"0.10"`
	HubFeeRate       string `envconfig:"FARMHUB_SETTLEMENT_HUB_FEE_RATE" default:"0.05"`
	DirectHubFeeRate string `envconfig:"FARMHUB_SETTLEMENT_DIRECT_HUB_FEE_RATE" default:"0.10"`
	SystemAccountID  string `envconfig:"FARMHUB_SETTLEMENT_SYSTEM_ACCOUNT_ID" required:"true"`

	systemFeeRate    decimal.Decimal
	hubFeeRate       decimal.Decimal
	directHubFeeRate decimal.Decimal
	systemAccountID  uuid.UUID
}

// Validate parses the string-typed rates and the system account id into
// their decimal and uuid forms. Load calls it after envconfig processing.
func (s *SettlementConfig) Validate() error {
	var err error
	if s.systemFeeRate, err = parseRate("system fee rate", s.SystemFeeRate); err != nil {
		return err
	}
	if s.hubFeeRate, err = parseRate("hub fee rate", s.HubFeeRate); err != nil {
		return err
	}
	if s.directHubFeeRate, err = parseRate("direct hub fee rate", s.DirectHubFeeRate); err != nil {
		return err
	}
	if s.systemAccountID, err = uuid.Parse(s.SystemAccountID); err != nil {
		return fmt.Errorf("parsing system account id: %w", err)
	}
	return nil
}

func parseRate(name, raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", name, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be in [0, 1), got %s", name, rate)
	}
	return rate, nil
}

// SystemFeeRateDecimal returns the parsed marketplace system fee rate.
func (s SettlementConfig) SystemFeeRateDecimal() decimal.Decimal { return s.systemFeeRate }

// HubFeeRateDecimal returns the parsed marketplace hub commission rate.
func (s SettlementConfig) HubFeeRateDecimal() decimal.Decimal { return s.hubFeeRate }

// DirectHubFeeRateDecimal returns the hub commission for clerk instant sales.
func (s SettlementConfig) DirectHubFeeRateDecimal() decimal.Decimal { return s.directHubFeeRate }

// SystemAccountUUID returns the configured system-fee recipient account owner.
func (s SettlementConfig) SystemAccountUUID() uuid.UUID { return s.systemAccountID }

// GatewayConfig tunes the simulated external payment processor.
type GatewayConfig struct {
	Latency     time.Duration `envconfig:"FARMHUB_GATEWAY_LATENCY" default:"150ms"`
	Timeout     time.Duration `envconfig:"FARMHUB_GATEWAY_TIMEOUT" default:"5s"`
	FailureRate float64       `envconfig:"FARMHUB_GATEWAY_FAILURE_RATE" default:"0.05"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FARMHUB_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
