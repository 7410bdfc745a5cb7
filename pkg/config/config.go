package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PIPELINECRM"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv   = "PIPELINECRM_APP_ENV"
	EnvPort     = "PIPELINECRM_APP_PORT"
	EnvDBDSN    = "PIPELINECRM_DB_DSN"
	EnvDBHost   = "PIPELINECRM_DB_HOST"
	EnvDBUser   = "PIPELINECRM_DB_USER"
	EnvDBName   = "PIPELINECRM_DB_NAME"
	EnvRedisURL = "PIPELINECRM_REDIS_URL"

	EnvJWTSecret  = "PIPELINECRM_JWT_SECRET"
	EnvJWTIssuer  = "PIPELINECRM_JWT_ISSUER"
	EnvJWTExpMins = "PIPELINECRM_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Mailer       MailerConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PIPELINECRM_APP_ENV" required:"true"`
	Port         string `envconfig:"PIPELINECRM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PIPELINECRM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PIPELINECRM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PIPELINECRM_DB_DSN"`
	Driver string `envconfig:"PIPELINECRM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PIPELINECRM_DB_HOST"`
	LegacyPort     int    `envconfig:"PIPELINECRM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PIPELINECRM_DB_USER"`
	LegacyPassword string `envconfig:"PIPELINECRM_DB_PASSWORD"`
	LegacyName     string `envconfig:"PIPELINECRM_DB_NAME"`
	LegacySSLMode  string `envconfig:"PIPELINECRM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PIPELINECRM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PIPELINECRM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PIPELINECRM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PIPELINECRM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PIPELINECRM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PIPELINECRM_REDIS_ADDR"`
	Password     string        `envconfig:"PIPELINECRM_REDIS_PASSWORD"`
	DB           int           `envconfig:"PIPELINECRM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PIPELINECRM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PIPELINECRM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PIPELINECRM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PIPELINECRM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PIPELINECRM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PIPELINECRM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PIPELINECRM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PIPELINECRM_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token TTL configured in minutes.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PIPELINECRM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PIPELINECRM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PIPELINECRM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PIPELINECRM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PIPELINECRM_ARGON_KEY_LEN" default:"32"`
}

type MailerConfig struct {
	APIBaseURL  string        `envconfig:"PIPELINECRM_MAIL_API_BASE_URL"`
	APIKey      string        `envconfig:"PIPELINECRM_MAIL_API_KEY"`
	DefaultFrom string        `envconfig:"PIPELINECRM_MAIL_FROM_EMAIL" default:"no-reply@pipelinecrm.io"`
	Timeout     time.Duration `envconfig:"PIPELINECRM_MAIL_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PIPELINECRM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PIPELINECRM_AUTO_MIGRATE" default:"false"`
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
