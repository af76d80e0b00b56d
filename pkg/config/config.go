package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// minSecretLength is the smallest signing secret the service will boot with.
const minSecretLength = 32

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

// Load parses and eagerly validates the full configuration. Callers are
// expected to treat an error as fatal before serving traffic.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.JWT.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGENCYDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"AGENCYDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AGENCYDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGENCYDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"AGENCYDESK_DB_DSN"`

	LegacyHost     string `envconfig:"AGENCYDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"AGENCYDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGENCYDESK_DB_USER"`
	LegacyPassword string `envconfig:"AGENCYDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGENCYDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGENCYDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGENCYDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGENCYDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGENCYDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGENCYDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional: without a URL or address the rate-limit middleware
// is disabled and the server still boots (sessions are stateless).
type RedisConfig struct {
	URL          string        `envconfig:"AGENCYDESK_REDIS_URL"`
	Address      string        `envconfig:"AGENCYDESK_REDIS_ADDR"`
	Password     string        `envconfig:"AGENCYDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGENCYDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGENCYDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGENCYDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGENCYDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGENCYDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGENCYDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// JWTConfig carries the dual-secret signing configuration. Access and refresh
// tokens are never interchangeable: each kind has its own secret and TTL.
type JWTConfig struct {
	AccessSecret      string `envconfig:"AGENCYDESK_JWT_ACCESS_SECRET" required:"true"`
	RefreshSecret     string `envconfig:"AGENCYDESK_JWT_REFRESH_SECRET" required:"true"`
	Issuer            string `envconfig:"AGENCYDESK_JWT_ISSUER" default:"agencydesk"`
	AccessTTLMinutes  int    `envconfig:"AGENCYDESK_JWT_ACCESS_TTL_MINUTES" default:"10"`
	RefreshTTLMinutes int    `envconfig:"AGENCYDESK_JWT_REFRESH_TTL_MINUTES" default:"43200"`
}

// Validate enforces the startup invariants for token signing.
func (j JWTConfig) Validate() error {
	if len(j.AccessSecret) < minSecretLength {
		return fmt.Errorf("jwt access secret must be at least %d characters", minSecretLength)
	}
	if len(j.RefreshSecret) < minSecretLength {
		return fmt.Errorf("jwt refresh secret must be at least %d characters", minSecretLength)
	}
	if j.AccessSecret == j.RefreshSecret {
		return fmt.Errorf("jwt access and refresh secrets must differ")
	}
	if j.AccessTTLMinutes <= 0 {
		return fmt.Errorf("jwt access ttl minutes must be positive")
	}
	if j.RefreshTTLMinutes <= j.AccessTTLMinutes {
		return fmt.Errorf("jwt refresh ttl (%dm) must exceed access ttl (%dm)", j.RefreshTTLMinutes, j.AccessTTLMinutes)
	}
	return nil
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime.
func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AGENCYDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AGENCYDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AGENCYDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AGENCYDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AGENCYDESK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AGENCYDESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AGENCYDESK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AGENCYDESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AGENCYDESK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AGENCYDESK_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AGENCYDESK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AGENCYDESK_AUTO_MIGRATE" default:"false"`
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
