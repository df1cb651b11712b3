package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Payments      PaymentsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CANTEEN_APP_ENV" required:"true"`
	Port         string `envconfig:"CANTEEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CANTEEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CANTEEN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CANTEEN_DB_DSN"`
	Driver string `envconfig:"CANTEEN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CANTEEN_DB_HOST"`
	LegacyPort     int    `envconfig:"CANTEEN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CANTEEN_DB_USER"`
	LegacyPassword string `envconfig:"CANTEEN_DB_PASSWORD"`
	LegacyName     string `envconfig:"CANTEEN_DB_NAME"`
	LegacySSLMode  string `envconfig:"CANTEEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CANTEEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CANTEEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CANTEEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CANTEEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CANTEEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CANTEEN_REDIS_ADDR"`
	Password     string        `envconfig:"CANTEEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"CANTEEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CANTEEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CANTEEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CANTEEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CANTEEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CANTEEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CANTEEN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CANTEEN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CANTEEN_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CANTEEN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CANTEEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CANTEEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CANTEEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CANTEEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CANTEEN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CANTEEN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CANTEEN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CANTEEN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CANTEEN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CANTEEN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CANTEEN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CANTEEN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CANTEEN_AUTO_MIGRATE" default:"false"`
}

// PaymentsConfig holds provider settings shared by all canteen merchants.
// Per-canteen key pairs live in merchant_accounts; the sandbox pair here is
// only used when the explicit fallback flag is on.
type PaymentsConfig struct {
	Currency               string        `envconfig:"CANTEEN_PAYMENTS_CURRENCY" default:"INR"`
	Env                    string        `envconfig:"CANTEEN_PAYMENTS_ENV" default:"test"`
	SandboxKeyID           string        `envconfig:"CANTEEN_PAYMENTS_SANDBOX_KEY_ID"`
	SandboxKeySecret       string        `envconfig:"CANTEEN_PAYMENTS_SANDBOX_KEY_SECRET"`
	AllowSandboxFallback   bool          `envconfig:"CANTEEN_PAYMENTS_ALLOW_SANDBOX_FALLBACK" default:"false"`
	InFlightLockTTL        time.Duration `envconfig:"CANTEEN_PAYMENTS_INFLIGHT_TTL" default:"15m"`
	ReceiptPrefix          string        `envconfig:"CANTEEN_PAYMENTS_RECEIPT_PREFIX" default:"rcpt"`
	MerchantConfigCacheTTL time.Duration `envconfig:"CANTEEN_PAYMENTS_MERCHANT_CACHE_TTL" default:"5m"`
}

// Environment returns the normalized provider environment (test/live).
func (p PaymentsConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	if env == "" {
		return "test"
	}
	return env
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
