package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	JWT          JWTConfig          `yaml:"jwt"`
	S3           S3Config           `yaml:"s3"`
	Stripe       StripeConfig       `yaml:"stripe"`
	Sendbird     SendbirdConfig     `yaml:"sendbird"`
	Notification NotificationConfig `yaml:"notification"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Cache        CacheConfig        `yaml:"cache"`
	Decision     DecisionConfig     `yaml:"decision"`
	Jobs         JobsConfig         `yaml:"jobs"`
	Logger       LoggerConfig       `yaml:"logger"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Mode            string        `yaml:"mode"`
	BasePath        string        `yaml:"base_path"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// GetDSN returns the postgres connection string. DATABASE_URL style URLs win over discrete fields.
func (d DatabaseConfig) GetDSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type StripeConfig struct {
	SecretKey    string `yaml:"secret_key"`
	Currency     string `yaml:"currency"`
	DaysUntilDue int64  `yaml:"days_until_due"`
}

type SendbirdConfig struct {
	AppID    string        `yaml:"app_id"`
	APIToken string        `yaml:"api_token"`
	Timeout  time.Duration `yaml:"timeout"`
}

type NotificationConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type DecisionConfig struct {
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type JobsConfig struct {
	CleanupSchedule string `yaml:"cleanup_schedule"`
	MetricsSchedule string `yaml:"metrics_schedule"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Mode:            "debug",
			BasePath:        "/api/commissions",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "nemu",
			Name:            "nemu",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Stripe: StripeConfig{
			Currency:     "usd",
			DaysUntilDue: 30,
		},
		Sendbird:     SendbirdConfig{Timeout: 10 * time.Second},
		Notification: NotificationConfig{Timeout: 5 * time.Second},
		Kafka:        KafkaConfig{Topic: "nemu.requests"},
		Cache:        CacheConfig{TTL: 5 * time.Minute},
		Decision:     DecisionConfig{LockTTL: 2 * time.Minute},
		Jobs: JobsConfig{
			CleanupSchedule: "0 */10 * * * *",
			MetricsSchedule: "@every 1m",
		},
		Logger: LoggerConfig{Level: "info"},
	}
}

// Load reads the yaml file at path (missing file is not an error) and applies environment overrides
func Load(path string) (*Config, error) {
	cfg := defaults()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required (set jwt.secret or JWT_SECRET)")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Mode, "GIN_MODE")
	setString(&cfg.Server.BasePath, "SERVER_BASE_PATH")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.S3.Bucket, "S3_BUCKET")
	setString(&cfg.S3.Region, "S3_REGION")
	setString(&cfg.S3.Endpoint, "S3_ENDPOINT")
	setString(&cfg.S3.AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.S3.SecretKey, "S3_SECRET_KEY")
	setString(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Sendbird.AppID, "SENDBIRD_APP_ID")
	setString(&cfg.Sendbird.APIToken, "SENDBIRD_API_TOKEN")
	setString(&cfg.Notification.BaseURL, "NOTIFICATION_API_URL")
	setString(&cfg.Notification.APIKey, "INTERNAL_API_KEY")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	setString(&cfg.Logger.Level, "LOG_LEVEL")

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Database.Port = p
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
