package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "INKWELL"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced from tests and tooling.
const (
	EnvAppEnv      = "INKWELL_APP_ENV"
	EnvPort        = "INKWELL_APP_PORT"
	EnvDBDSN       = "INKWELL_DB_DSN"
	EnvDBHost      = "INKWELL_DB_HOST"
	EnvDBUser      = "INKWELL_DB_USER"
	EnvDBName      = "INKWELL_DB_NAME"
	EnvRedisURL    = "INKWELL_REDIS_URL"
	EnvJWTSecret   = "INKWELL_JWT_SECRET"
	EnvJWTIssuer   = "INKWELL_JWT_ISSUER"
	EnvOrdersTopic = "INKWELL_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	PreOrder     PreOrderConfig
	RateLimit    RateLimitConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	if _, err := cfg.Checkout.PromoPercents(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INKWELL_APP_ENV" required:"true"`
	Port         string `envconfig:"INKWELL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"INKWELL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INKWELL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"INKWELL_DB_DSN"`
	Driver string `envconfig:"INKWELL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"INKWELL_DB_HOST"`
	LegacyPort     int    `envconfig:"INKWELL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INKWELL_DB_USER"`
	LegacyPassword string `envconfig:"INKWELL_DB_PASSWORD"`
	LegacyName     string `envconfig:"INKWELL_DB_NAME"`
	LegacySSLMode  string `envconfig:"INKWELL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INKWELL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INKWELL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INKWELL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INKWELL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INKWELL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"INKWELL_REDIS_ADDR"`
	Password     string        `envconfig:"INKWELL_REDIS_PASSWORD"`
	DB           int           `envconfig:"INKWELL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INKWELL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INKWELL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INKWELL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INKWELL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INKWELL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"INKWELL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"INKWELL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"INKWELL_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CheckoutConfig carries the pricing and validation knobs applied when a cart
// is converted into an order.
type CheckoutConfig struct {
	TaxRateBasisPoints    int    `envconfig:"INKWELL_CHECKOUT_TAX_RATE_BP" default:"600"`
	AddressMinLength      int    `envconfig:"INKWELL_CHECKOUT_ADDRESS_MIN_LENGTH" default:"10"`
	PaymentToleranceCents int    `envconfig:"INKWELL_CHECKOUT_PAYMENT_TOLERANCE_CENTS" default:"100"`
	ShippingStandardCents int    `envconfig:"INKWELL_CHECKOUT_SHIPPING_STANDARD_CENTS" default:"500"`
	ShippingExpressCents  int    `envconfig:"INKWELL_CHECKOUT_SHIPPING_EXPRESS_CENTS" default:"1500"`
	PromoCodes            string `envconfig:"INKWELL_CHECKOUT_PROMO_CODES" default:"SAVE10:10"`
}

// PromoPercents parses the configured CODE:PERCENT list. Codes are matched
// case-insensitively; percentages are whole numbers of the item subtotal.
func (c CheckoutConfig) PromoPercents() (map[string]int, error) {
	table := map[string]int{}
	for _, entry := range strings.Split(c.PromoCodes, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid promo entry %q (expected CODE:PERCENT)", entry)
		}
		pct, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || pct <= 0 || pct > 100 {
			return nil, fmt.Errorf("invalid promo percent in %q", entry)
		}
		table[strings.ToUpper(strings.TrimSpace(parts[0]))] = pct
	}
	return table, nil
}

type PreOrderConfig struct {
	DeliveryOffsetDays int `envconfig:"INKWELL_PREORDER_DELIVERY_OFFSET_DAYS" default:"30"`
}

// DeliveryOffset returns the expected-delivery estimate applied on confirm.
func (p PreOrderConfig) DeliveryOffset() time.Duration {
	return time.Duration(p.DeliveryOffsetDays) * 24 * time.Hour
}

// RateLimitConfig throttles authenticated traffic per customer. A limit of 0
// disables the window.
type RateLimitConfig struct {
	CheckoutLimit   int64         `envconfig:"INKWELL_RATE_LIMIT_CHECKOUT" default:"10"`
	CheckoutWindow  time.Duration `envconfig:"INKWELL_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	MutationsLimit  int64         `envconfig:"INKWELL_RATE_LIMIT_MUTATIONS" default:"120"`
	MutationsWindow time.Duration `envconfig:"INKWELL_RATE_LIMIT_MUTATIONS_WINDOW" default:"1m"`
}

type PubSubConfig struct {
	ProjectID   string `envconfig:"INKWELL_GCP_PROJECT_ID"`
	OrdersTopic string `envconfig:"INKWELL_PUBSUB_ORDERS_TOPIC" default:"inkwell-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"INKWELL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"INKWELL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"INKWELL_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"INKWELL_AUTO_MIGRATE" default:"false"`
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
