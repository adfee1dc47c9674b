package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	POS          POSConfig
	HTTP         HTTPConfig
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
	if err := cfg.POS.validate(); err != nil {
		return nil, err
	}
	if err := cfg.HTTP.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MEDIBILL_APP_ENV" required:"true"`
	Port         string `envconfig:"MEDIBILL_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MEDIBILL_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"MEDIBILL_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"MEDIBILL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MEDIBILL_DB_DSN"`
	Driver string `envconfig:"MEDIBILL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEDIBILL_DB_HOST"`
	LegacyPort     int    `envconfig:"MEDIBILL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEDIBILL_DB_USER"`
	LegacyPassword string `envconfig:"MEDIBILL_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEDIBILL_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEDIBILL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEDIBILL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEDIBILL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEDIBILL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEDIBILL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

// RedisConfig is optional: with neither URL nor Address set the service
// falls back to in-process state for the customer handoff and receipt sequence.
type RedisConfig struct {
	URL          string        `envconfig:"MEDIBILL_REDIS_URL"`
	Address      string        `envconfig:"MEDIBILL_REDIS_ADDR"`
	Password     string        `envconfig:"MEDIBILL_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDIBILL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDIBILL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDIBILL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDIBILL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDIBILL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDIBILL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"MEDIBILL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MEDIBILL_JWT_ISSUER" default:"medibill"`
	ExpirationMinutes int    `envconfig:"MEDIBILL_JWT_EXPIRATION_MINUTES" default:"720"`
}

// AccessTTL is how long an access token and its sign-in session live.
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MEDIBILL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MEDIBILL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MEDIBILL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MEDIBILL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MEDIBILL_ARGON_KEY_LEN" default:"32"`
}

// POSConfig holds the checkout knobs. TaxRate is a fraction (0.17 == 17% GST).
type POSConfig struct {
	TaxRate       string        `envconfig:"MEDIBILL_POS_TAX_RATE" default:"0.17"`
	Currency      string        `envconfig:"MEDIBILL_POS_CURRENCY" default:"PKR"`
	CardDelay     time.Duration `envconfig:"MEDIBILL_POS_CARD_DELAY" default:"2s"`
	MobileDelay   time.Duration `envconfig:"MEDIBILL_POS_MOBILE_DELAY" default:"2s"`
	DeclineAbove  string        `envconfig:"MEDIBILL_POS_DECLINE_ABOVE"`
	CashierName   string        `envconfig:"MEDIBILL_POS_CASHIER_NAME" default:"Cashier"`
	ReceiptPrefix string        `envconfig:"MEDIBILL_POS_RECEIPT_PREFIX" default:"RCP"`
	HandoffTTL    time.Duration `envconfig:"MEDIBILL_POS_HANDOFF_TTL" default:"15m"`
}

// TaxRateDecimal parses TaxRate. Load already validated it.
func (p POSConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// DeclineAboveDecimal returns the simulated gateway ceiling, if configured.
func (p POSConfig) DeclineAboveDecimal() (decimal.Decimal, bool) {
	raw := strings.TrimSpace(p.DeclineAbove)
	if raw == "" {
		return decimal.Zero, false
	}
	ceiling, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return ceiling, true
}

func (p POSConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return fmt.Errorf("%s: %w", EnvPOSTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be in [0, 1), got %s", EnvPOSTaxRate, rate)
	}
	if raw := strings.TrimSpace(p.DeclineAbove); raw != "" {
		if _, err := decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("%s: %w", EnvPOSDeclineAbove, err)
		}
	}
	if p.CardDelay < 0 || p.MobileDelay < 0 {
		return fmt.Errorf("payment delays must not be negative")
	}
	return nil
}

// HTTPConfig covers the edge of the API: browser origins, the sign-in rate
// limit (Redis backed) and the per-user request throttle (in process).
type HTTPConfig struct {
	CORSOrigins       []string      `envconfig:"MEDIBILL_CORS_ORIGINS"`
	LoginWindow       time.Duration `envconfig:"MEDIBILL_LOGIN_RATE_WINDOW" default:"15m"`
	LoginIPLimit      int           `envconfig:"MEDIBILL_LOGIN_RATE_IP_LIMIT" default:"30"`
	LoginUserLimit    int           `envconfig:"MEDIBILL_LOGIN_RATE_USERNAME_LIMIT" default:"10"`
	ThrottleRPS       float64       `envconfig:"MEDIBILL_THROTTLE_RPS" default:"20"`
	ThrottleBurst     int           `envconfig:"MEDIBILL_THROTTLE_BURST" default:"40"`
	ShutdownTimeout   time.Duration `envconfig:"MEDIBILL_SHUTDOWN_TIMEOUT" default:"15s"`
	ReadHeaderTimeout time.Duration `envconfig:"MEDIBILL_READ_HEADER_TIMEOUT" default:"10s"`
}

func (h HTTPConfig) validate() error {
	if h.LoginWindow < 0 || h.LoginIPLimit < 0 || h.LoginUserLimit < 0 {
		return fmt.Errorf("login rate limit settings must not be negative")
	}
	if h.ThrottleRPS < 0 || h.ThrottleBurst < 0 {
		return fmt.Errorf("%s and %s must not be negative", EnvThrottleRPS, EnvThrottleBurst)
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEDIBILL_AUTO_MIGRATE" default:"false"`
	SeedDemo    bool `envconfig:"MEDIBILL_SEED_DEMO" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
