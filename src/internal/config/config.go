package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultConfigPath = "src/internal/config/cfg.yml"

// placeholderJwtKey ships in cfg.yml and must be replaced before production use.
const placeholderJwtKey = "change-me"

var ErrInsecureJwtKey = errors.New("security.jwt-key must be set to a secret value when secure cookies are on")

type Configuration struct {
	Logs     LogsSettings     `mapstructure:"logs"`
	App      Application      `mapstructure:"app"`
	Storage  StorageSettings  `mapstructure:"storage"`
	Database Database         `mapstructure:"database"`
	Queue    QueueConfig      `mapstructure:"queue"`
	Redis    Redis            `mapstructure:"redis"`
	Security SecuritySettings `mapstructure:"security"`
	Session  SessionSettings  `mapstructure:"session"`
	Server   ServerSettings   `mapstructure:"server"`
	Cache    CacheConfig      `mapstructure:"cache"`
	Calendar CalendarSettings `mapstructure:"calendar"`
	Identity IdentityProvider `mapstructure:"identity"`
	Tracing  TracingSettings  `mapstructure:"tracing"`
	Subjects []Subject        `mapstructure:"subjects"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name     string `mapstructure:"name"`
	Timeout  int    `mapstructure:"timeout"`
	Version  string `mapstructure:"version"`
	HostLink string `mapstructure:"host-link"`
	Timezone string `mapstructure:"timezone"`
	// ShowExpired lists meetings that already ended on the register page. Testing only.
	ShowExpired bool `mapstructure:"show-expired"`
}

type StorageSettings struct {
	SqlitePath string `mapstructure:"sqlite-path"`
}

// Database is the optional mongo activity store.
type Database struct {
	Url                string `mapstructure:"url"`
	DbName             string `mapstructure:"dbname"`
	ActivityCollection string `mapstructure:"activity-collection"`
	Timeout            int    `mapstructure:"timeout"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Url          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange-type"`
	RoutingKey   string `mapstructure:"routing-key"`
	Durable      bool   `mapstructure:"durable"`
	AutoDelete   bool   `mapstructure:"auto-delete"`
	Internal     bool   `mapstructure:"internal"`
	NoWait       bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	JwtKey        string   `mapstructure:"jwt-key"`
	SecureCookies bool     `mapstructure:"secure-cookies"`
	AdminUsers    []string `mapstructure:"admin-users"`
}

type SessionSettings struct {
	CookieName    string `mapstructure:"cookie-name"`
	LifetimeHours int    `mapstructure:"lifetime-hours"`
	TokenBytes    int    `mapstructure:"token-bytes"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
	// TrustedProxies may set the client address through X-Forwarded-For. Empty trusts none.
	TrustedProxies []string `mapstructure:"trusted-proxies"`
}

type CacheConfig struct {
	SessionExpirationMinutes int    `mapstructure:"session-expiration-minutes"`
	SessionKeyPrefix         string `mapstructure:"session-key-prefix"`
}

type CalendarSettings struct {
	MailDomain        string `mapstructure:"mail-domain"`
	MeetingBaseURL    string `mapstructure:"meeting-base-url"`
	LegacyOffsetHours int    `mapstructure:"legacy-offset-hours"`
	FeedTokenDays     int    `mapstructure:"feed-token-days"`
}

type IdentityProvider struct {
	Url          string `mapstructure:"url"`
	PortalUrl    string `mapstructure:"portal-url"`
	Timeout      int    `mapstructure:"timeout"`
	NamePattern  string `mapstructure:"name-pattern"`
	UsernameForm string `mapstructure:"username-field"`
	PasswordForm string `mapstructure:"password-field"`
}

// TracingSettings points at an OTLP gRPC collector. An empty endpoint disables tracing.
type TracingSettings struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type Subject struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// SessionLifetime is the validity window of an issued session token.
func (c *Configuration) SessionLifetime() time.Duration {
	return time.Duration(c.Session.LifetimeHours) * time.Hour
}

func (c *Configuration) RequestTimeout() time.Duration {
	return time.Duration(c.App.Timeout) * time.Second
}

// Location returns the school timezone used to read form times.
func (c *Configuration) Location() *time.Location {
	if c.App.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		logrus.WithError(err).WithField("timezone", c.App.Timezone).Warn("Unknown timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}

func (c *Configuration) IsAdmin(username string) bool {
	for _, u := range c.Security.AdminUsers {
		if u == username {
			return true
		}
	}
	return false
}

func Load() *Configuration {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := LoadFile(path)
	if err != nil {
		logrus.Panicf("Error reading config file, %s", err)
	}
	logrus.Info("Configuration loaded")

	return cfg
}

// LoadFile reads the YAML config at path, applies environment overrides and fills defaults.
func LoadFile(path string) (*Configuration, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects settings that are only acceptable on a development machine.
func validate(cfg *Configuration) error {
	if !cfg.Security.SecureCookies {
		if cfg.Security.JwtKey == "" || cfg.Security.JwtKey == placeholderJwtKey {
			logrus.Warn("Using a placeholder jwt key, calendar feed links are forgeable")
		}
		return nil
	}
	if cfg.Security.JwtKey == "" || cfg.Security.JwtKey == placeholderJwtKey {
		return ErrInsecureJwtKey
	}
	return nil
}

func applyEnv(cfg *Configuration) {
	if sqlitePath := os.Getenv("SQLITE_PATH"); sqlitePath != "" {
		cfg.Storage.SqlitePath = sqlitePath
	}

	if mongoUri := os.Getenv("MONGODB_URL"); mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.DbName = dbName
	}

	if redisUrl := os.Getenv("REDIS_URL"); redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	if rabbitmqUrl := os.Getenv("RABBITMQ_URL"); rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	if jwtKey := os.Getenv("JWT_KEY"); jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	if production := os.Getenv("PRODUCTION"); production != "" {
		if on, err := strconv.ParseBool(production); err == nil {
			cfg.Security.SecureCookies = on
		}
	}

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Tracing.Endpoint = endpoint
	}

	if insecure := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); insecure != "" {
		if on, err := strconv.ParseBool(insecure); err == nil {
			cfg.Tracing.Insecure = on
		}
	}

	if admins := os.Getenv("ADMIN_USERS"); admins != "" {
		cfg.Security.AdminUsers = strings.Split(admins, ",")
	}
}

func applyDefaults(cfg *Configuration) {
	if cfg.App.Timeout <= 0 {
		cfg.App.Timeout = 10
	}
	if cfg.Storage.SqlitePath == "" {
		cfg.Storage.SqlitePath = "mentoring.db"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "session-id"
	}
	if cfg.Session.LifetimeHours <= 0 {
		cfg.Session.LifetimeHours = 24
	}
	if cfg.Session.TokenBytes <= 0 {
		cfg.Session.TokenBytes = 32
	}
	if cfg.Cache.SessionKeyPrefix == "" {
		cfg.Cache.SessionKeyPrefix = "session"
	}
	if cfg.Cache.SessionExpirationMinutes <= 0 {
		cfg.Cache.SessionExpirationMinutes = 5
	}
	if cfg.Database.ActivityCollection == "" {
		cfg.Database.ActivityCollection = "activity"
	}
	if cfg.Calendar.FeedTokenDays <= 0 {
		cfg.Calendar.FeedTokenDays = 365
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
}

func read(path string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetConfigType("yml")

	var config Configuration

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
