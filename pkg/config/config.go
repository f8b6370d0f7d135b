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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Push          PushConfig
	Cron          CronConfig
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
	Env          string `envconfig:"SMARTPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"SMARTPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SMARTPOS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SMARTPOS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SMARTPOS_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"SMARTPOS_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SMARTPOS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SMARTPOS_DB_DSN"`
	Driver string `envconfig:"SMARTPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SMARTPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"SMARTPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SMARTPOS_DB_USER"`
	LegacyPassword string `envconfig:"SMARTPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"SMARTPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"SMARTPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SMARTPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SMARTPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SMARTPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SMARTPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"SMARTPOS_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SMARTPOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SMARTPOS_REDIS_ADDR"`
	Password     string        `envconfig:"SMARTPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"SMARTPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SMARTPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SMARTPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SMARTPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SMARTPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SMARTPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SMARTPOS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SMARTPOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SMARTPOS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SMARTPOS_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SMARTPOS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SMARTPOS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SMARTPOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SMARTPOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SMARTPOS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"SMARTPOS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit    int           `envconfig:"SMARTPOS_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"SMARTPOS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"SMARTPOS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUsernameLimit int           `envconfig:"SMARTPOS_AUTH_RATE_LIMIT_REGISTER_USERNAME_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"SMARTPOS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SMARTPOS_AUTO_MIGRATE" default:"false"`
}

type PushConfig struct {
	VAPIDPublicKey  string        `envconfig:"SMARTPOS_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string        `envconfig:"SMARTPOS_VAPID_PRIVATE_KEY"`
	Subscriber      string        `envconfig:"SMARTPOS_VAPID_SUBSCRIBER" default:"mailto:admin@smartpos.local"`
	TTL             time.Duration `envconfig:"SMARTPOS_PUSH_TTL" default:"24h"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return strings.TrimSpace(p.VAPIDPublicKey) != "" && strings.TrimSpace(p.VAPIDPrivateKey) != ""
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SMARTPOS_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"SMARTPOS_CRON_LOCK_TTL" default:"55m"`
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
