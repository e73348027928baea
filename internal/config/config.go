package config // package config loads application configuration from environment variables

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/juju/errors"
)

// Service names accepted by Load.  Each service requires a different subset
// of the environment.
const (
	ServiceAccounts      = "accounts"
	ServiceProducts      = "products"
	ServiceNotifications = "notifications"
)

// Config holds all runtime configuration values.  It is built once in main and
// passed by value into constructors; nothing in the module reads the
// environment after Load returns.
type Config struct {
	Service  string // which service this process runs
	Env      string // application environment (dev, test, prod)
	LogLevel string // loggo configuration spec, e.g. "<root>=INFO"

	HTTP      HTTPConfig
	DB        DBConfig
	MQ        MQConfig
	Redis     RedisConfig
	Token     TokenConfig
	Root      RootConfig
	Mail      MailConfig
	Accounts  AccountsConfig
	Notify    NotifyConfig
	Products  ProductsConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// HTTPConfig controls the echo listener.
type HTTPConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string { return ":" + c.Port }

// DBConfig describes the relational store.  Driver is "mysql" in production;
// "sqlite" opens Path instead and is meant for local runs.
type DBConfig struct {
	Driver   string
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	Path     string
}

// DSN returns the MySQL data source name.  parseTime=true maps DATETIME to
// time.Time and loc=UTC keeps times consistent.
func (c DBConfig) DSN() string {
	m := mysql.NewConfig()
	m.User = c.User
	m.Passwd = c.Password
	m.Net = "tcp"
	m.Addr = net.JoinHostPort(c.Host, c.Port)
	m.DBName = c.Name
	m.ParseTime = true
	m.Loc = time.UTC
	m.Params = map[string]string{"charset": "utf8mb4"}
	return m.FormatDSN()
}

// MQConfig holds the broker connection parameters.
type MQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	VHost    string
	Queue    string
}

// AMQPURL returns the broker URL.
func (c MQConfig) AMQPURL() string {
	vhost := strings.TrimPrefix(c.VHost, "/")
	return fmt.Sprintf("amqp://%s:%s@%s/%s", c.User, c.Password, net.JoinHostPort(c.Host, c.Port), vhost)
}

// TokenConfig configures signed access tokens.
type TokenConfig struct {
	Secret     string
	Algorithm  string
	TTLMinutes int
}

// TTL returns the token lifetime.
func (c TokenConfig) TTL() time.Duration { return time.Duration(c.TTLMinutes) * time.Minute }

// RootConfig is the bootstrap admin seeded by the accounts service.
type RootConfig struct {
	Email      string
	Password   string
	BcryptCost int
}

// MailConfig configures the outbound email provider.
type MailConfig struct {
	ResendAPIKey string
	From         string
}

// AccountsConfig tells the notification worker where the accounts API lives.
type AccountsConfig struct {
	BaseURL        string
	RetryMax       int
	RequestTimeout time.Duration
}

// Ack modes for the notification consumer.
const (
	AckAfterSend = "after-send"
	AckOnReceipt = "on-receipt"
)

// NotifyConfig controls the notification worker.
type NotifyConfig struct {
	AckMode        string
	DrainTimeout   time.Duration
	ServiceSubject string
}

// ProductsConfig holds products-service specific switches.
type ProductsConfig struct {
	TrackQueries bool
}

// Load reads configuration values for the given service.  A .env file in the
// working directory is loaded first when present; real environment variables
// take precedence over it.  All missing required variables are reported in a
// single error.
func Load(service string) (Config, error) {
	_ = godotenv.Load()

	r := &reader{}
	cfg := Config{
		Service:  service,
		Env:      envStr("APP_ENV", "dev"),
		LogLevel: envStr("LOG_LEVEL", "<root>=INFO"),
		HTTP: HTTPConfig{
			Port:            envStr("APP_PORT", defaultPort(service)),
			ShutdownTimeout: envDur("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Token: TokenConfig{
			Secret:     r.must("TOKEN_SECRET"),
			Algorithm:  envStr("TOKEN_ALGORITHM", "HS256"),
			TTLMinutes: envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60),
		},
		Cache:     LoadCacheConfig(),
		RateLimit: LoadRateLimitConfig(),
	}

	switch service {
	case ServiceAccounts:
		cfg.DB = r.database()
		cfg.Redis = loadRedisConfig()
	case ServiceProducts:
		cfg.DB = r.database()
		cfg.MQ = r.broker()
		cfg.Redis = loadRedisConfig()
	case ServiceNotifications:
		cfg.MQ = r.broker()
	default:
		return Config{}, errors.NotValidf("service %q", service)
	}

	if service == ServiceAccounts {
		cfg.Root = RootConfig{
			Email:      strings.ToLower(strings.TrimSpace(os.Getenv("ROOT_EMAIL"))),
			Password:   os.Getenv("ROOT_PASSWORD"),
			BcryptCost: envInt("BCRYPT_COST", 12),
		}
	}
	if service == ServiceProducts {
		cfg.Products = ProductsConfig{TrackQueries: envBool("PRODUCTS_TRACK_QUERIES", false)}
	}
	if service == ServiceNotifications {
		cfg.Mail = MailConfig{
			ResendAPIKey: r.must("RESEND_API_KEY"),
			From:         envStr("MAIL_FROM", "onboarding@resend.dev"),
		}
		cfg.Accounts = AccountsConfig{
			BaseURL:        strings.TrimRight(envStr("ACCOUNTS_URL", "http://localhost:8001"), "/"),
			RetryMax:       envInt("ACCOUNTS_RETRY_MAX", 0),
			RequestTimeout: envDur("ACCOUNTS_TIMEOUT", 5*time.Second),
		}
		cfg.Notify = NotifyConfig{
			AckMode:        envStr("NOTIFY_ACK_MODE", AckAfterSend),
			DrainTimeout:   envDur("NOTIFY_DRAIN_TIMEOUT", 10*time.Second),
			ServiceSubject: envStr("NOTIFY_SERVICE_SUBJECT", "notifications@service.local"),
		}
		if cfg.Notify.AckMode != AckAfterSend && cfg.Notify.AckMode != AckOnReceipt {
			return Config{}, errors.NotValidf("NOTIFY_ACK_MODE %q", cfg.Notify.AckMode)
		}
	}

	if err := r.err(); err != nil {
		return Config{}, err
	}
	if cfg.Token.TTLMinutes <= 0 {
		return Config{}, errors.NotValidf("ACCESS_TOKEN_EXPIRE_MINUTES %d", cfg.Token.TTLMinutes)
	}
	return cfg, nil
}

func (r *reader) database() DBConfig {
	driver := envStr("DB_DRIVER", "mysql")
	if driver == "sqlite" {
		return DBConfig{Driver: driver, Path: envStr("DB_PATH", "storefront.db")}
	}
	return DBConfig{
		Driver:   driver,
		User:     r.must("DATABASE_USER"),
		Password: r.must("DATABASE_PASSWORD"),
		Host:     r.must("DATABASE_HOST"),
		Port:     envStr("DATABASE_PORT", "3306"),
		Name:     r.must("DATABASE_NAME"),
	}
}

func (r *reader) broker() MQConfig {
	return MQConfig{
		Host:     envStr("RABBITMQ_HOST", "localhost"),
		Port:     envStr("RABBITMQ_PORT", "5672"),
		User:     r.must("RABBITMQ_USER"),
		Password: r.must("RABBITMQ_PASS"),
		VHost:    envStr("RABBITMQ_VHOST", "/"),
		Queue:    envStr("RABBITMQ_QUEUE", "audit.events"),
	}
}

func defaultPort(service string) string {
	switch service {
	case ServiceAccounts:
		return "8001"
	case ServiceProducts:
		return "8002"
	default:
		return "8003"
	}
}

// reader collects missing required variables instead of exiting on the first.
type reader struct {
	missing []string
}

// must retrieves the value of a required environment variable, recording
// the key when it is unset or empty.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		r.missing = append(r.missing, key)
		return ""
	}
	return v
}

func (r *reader) err() error {
	if len(r.missing) == 0 {
		return nil
	}
	return errors.NotFoundf("required env vars %s", strings.Join(r.missing, ", "))
}
