package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvTest  = "test"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultCodeValidMinutes = 1
	defaultRateLimit        = 100
)

type Config struct {
	Env        string `env:"APP_ENV" env-required:"true" env-description:"local, test, dev or prod"`
	AppName    string `env:"APP_NAME" env-default:"waw-auth"`
	Log        Log
	HttpServer HttpServer
	Database   Database
	Limiter    Limiter
	Auth       AuthConfig
	Cookie     CookieConfig
	SMTP       SMTPConfig
	Email      EmailConfig
	Cache      Cache
}

type Log struct {
	Level       string `env:"LOG_LEVEL" env-default:"info" env-description:"logging level, debug, info, etc."`
	FileEnabled bool   `env:"LOG_FILE_ENABLED" env-default:"false"`
	Dir         string `env:"LOG_DIR" env-default:"logs"`
	MaxSizeMB   int    `env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxBackups  int    `env:"LOG_MAX_BACKUPS" env-default:"7"`
	MaxAgeDays  int    `env:"LOG_MAX_AGE_DAYS" env-default:"30"`
	Compress    bool   `env:"LOG_COMPRESS" env-default:"true"`
}

type HttpServer struct {
	Port           string        `env:"HTTP_PORT" env-default:"8080"`
	Timeout        time.Duration `env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	SwaggerEnabled bool          `env:"HTTP_SWAGGER_ENABLED" env-default:"false"`
	AllowedOrigins []string      `env:"HTTP_ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
}

type Database struct {
	Net                string        `env:"DB_NET" env-default:"tcp"`
	Server             string        `env:"DBHOST" env-required:"true"`
	DBName             string        `env:"DBNAME" env-required:"true"`
	User               string        `env:"DBUSER" env-required:"true"`
	Password           string        `env:"DBPASSWORD" env-required:"true"`
	TimeZone           string        `env:"DB_TIMEZONE" env-default:"UTC"`
	Timeout            time.Duration `env:"DB_TIMEOUT" env-default:"2s"`
	MaxIdleConnections int           `env:"DB_MAX_IDLE_CONNECTIONS" env-default:"10"`
	MaxOpenConnections int           `env:"DB_MAX_OPEN_CONNECTIONS" env-default:"20"`
	AutoMigrate        bool          `env:"DB_AUTO_MIGRATE" env-default:"false"`
}

// Limiter values are requests per minute per client IP. They are kept as
// strings so a malformed value falls back to the default instead of
// aborting startup.
type Limiter struct {
	Global string `env:"GLOBAL_RATE_LIMIT" env-required:"true"`
	Auth   string `env:"AUTH_RATE_LIMIT" env-required:"true"`
}

func (l Limiter) GlobalPerMinute() int {
	return parsePositiveInt(l.Global, defaultRateLimit)
}

func (l Limiter) AuthPerMinute() int {
	return parsePositiveInt(l.Auth, defaultRateLimit)
}

type AuthConfig struct {
	JWT                    JWTConfig
	PasswordCost           int    `env:"AUTH_PASSWORD_COST" env-default:"10"`
	VerificationCodeLength int    `env:"AUTH_VERIFICATION_CODE_LENGTH" env-default:"6"`
	CodeGenerator          string `env:"AUTH_CODE_GENERATOR" env-default:"alphanumeric" env-description:"alphanumeric or gotp"`
	CodeValidMinutes       string `env:"TOKEN_EXPIRY_MINUTES" env-default:"1"`
	MaskUnknownResetEmail  bool   `env:"AUTH_RESET_MASK_UNKNOWN_EMAIL" env-default:"true"`
}

// CodeTTL is how long a verification or reset code stays valid.
func (a AuthConfig) CodeTTL() time.Duration {
	return time.Duration(parsePositiveInt(a.CodeValidMinutes, defaultCodeValidMinutes)) * time.Minute
}

type JWTConfig struct {
	AccessTokenTTL time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"24h"`
	SigningKey     string        `env:"JWT_SECRET" env-required:"true"`
}

type CookieConfig struct {
	Secret string `env:"COOKIE_SECRET" env-required:"true"`
	Domain string `env:"COOKIE_DOMAIN" env-default:""`
}

type SMTPConfig struct {
	Host string `env:"SMTP_HOST" env-default:""`
	Port int    `env:"SMTP_PORT" env-default:"587"`
	From string `env:"SMTP_FROM" env-default:""`
	Pass string `env:"SMTP_PASS" env-default:""`
}

type EmailConfig struct {
	Enabled   bool `env:"EMAIL_ENABLED" env-default:"true"`
	Async     bool `env:"EMAIL_ASYNC" env-default:"false"`
	Templates EmailTemplates
}

type EmailTemplates struct {
	Verification  string `env:"EMAIL_TEMPLATE_VERIFICATION" env-default:"email_verification.html"`
	EmailChange   string `env:"EMAIL_TEMPLATE_EMAIL_CHANGE" env-default:"email_change.html"`
	PasswordReset string `env:"EMAIL_TEMPLATE_PASSWORD_RESET" env-default:"password_reset.html"`
}

type Cache struct {
	Enabled bool   `env:"REDIS_ENABLED" env-default:"false"`
	Type    string `env:"REDIS_TYPE" env-default:"redis" env-description:"specifies provider, one of redis/redisCluster"`
	Redis   struct {
		Address  string `env:"REDIS_ADDR" env-default:"localhost:6379" env-description:"redis host:port single instance"`
		Password string `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize int    `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
	RedisCluster struct {
		Addresses []string `env:"REDIS_CLUSTER_ADDRS" env-default:"" env-description:"redis cluster nodes: ['10.0.0.1:7000','10.0.0.2:7001']"`
		Password  string   `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize  int      `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
}

func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal
}

func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}

// Load reads CONFIG_PATH (or ./.env when present) and then the environment.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat(".env"); err == nil {
			path = ".env"
		}
	}

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func parsePositiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
