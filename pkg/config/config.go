package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/pricing"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Pricing       PricingConfig
	Cache         CacheConfig
	Metrics       MetricsConfig
	Documents     DocumentsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.Pricing.Policy(); err != nil {
		return nil, err
	}
	if _, err := enums.ParseCurrency(strings.ToUpper(cfg.Pricing.Currency)); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvCurrency, err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SALESDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"SALESDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SALESDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SALESDESK_LOG_WARN_STACK" default:"false"`
	// ShutdownTimeout bounds how long in-flight requests get on SIGTERM.
	ShutdownTimeout time.Duration `envconfig:"SALESDESK_SHUTDOWN_TIMEOUT" default:"15s"`
	CORSOrigins     []string      `envconfig:"SALESDESK_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SALESDESK_DB_DSN"`
	Driver string `envconfig:"SALESDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SALESDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"SALESDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SALESDESK_DB_USER"`
	LegacyPassword string `envconfig:"SALESDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"SALESDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"SALESDESK_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"SALESDESK_SQLITE_PATH" default:"salesdesk.db"`

	MaxOpenConns    int           `envconfig:"SALESDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SALESDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SALESDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SALESDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SALESDESK_REDIS_URL"`
	Address      string        `envconfig:"SALESDESK_REDIS_ADDR"`
	Password     string        `envconfig:"SALESDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SALESDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SALESDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SALESDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SALESDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SALESDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SALESDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SALESDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SALESDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SALESDESK_JWT_EXPIRATION_MINUTES" default:"480"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SALESDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SALESDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SALESDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SALESDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SALESDESK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"SALESDESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"SALESDESK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"SALESDESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SALESDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SALESDESK_AUTO_MIGRATE" default:"false"`
}

// PricingConfig feeds the pricing core and the document renderers.
type PricingConfig struct {
	ManualPriceThreshold int    `envconfig:"SALESDESK_MANUAL_PRICE_THRESHOLD" default:"10000"`
	TaxRate              string `envconfig:"SALESDESK_TAX_RATE" default:"0.08"`
	Currency             string `envconfig:"SALESDESK_CURRENCY" default:"USD"`
	Locale               string `envconfig:"SALESDESK_LOCALE" default:"en-US"`
	QuoteValidityDays    int    `envconfig:"SALESDESK_QUOTE_VALIDITY_DAYS" default:"30"`
}

// Policy parses the configured values into a pricing policy.
func (p PricingConfig) Policy() (pricing.Policy, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return pricing.Policy{}, fmt.Errorf("parsing %s: %w", EnvTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return pricing.Policy{}, fmt.Errorf("%s must be between 0 and 1, got %s", EnvTaxRate, rate)
	}
	if p.ManualPriceThreshold <= 0 {
		return pricing.Policy{}, fmt.Errorf("%s must be positive", EnvManualPriceThreshold)
	}
	return pricing.NewPolicy(p.ManualPriceThreshold, rate), nil
}

// QuoteValidity returns how long a new quote stays valid.
func (p PricingConfig) QuoteValidity() time.Duration {
	if p.QuoteValidityDays <= 0 {
		return 0
	}
	return time.Duration(p.QuoteValidityDays) * 24 * time.Hour
}

type CacheConfig struct {
	ProductTTL time.Duration `envconfig:"SALESDESK_PRODUCT_CACHE_TTL" default:"5m"`
}

// DocumentsConfig brands the rendered quote and order emails.
type DocumentsConfig struct {
	CompanyName  string `envconfig:"SALESDESK_COMPANY_NAME" default:"SalesDesk"`
	ContactEmail string `envconfig:"SALESDESK_CONTACT_EMAIL"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"SALESDESK_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"SALESDESK_METRICS_PATH" default:"/metrics"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
