package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	gomysql "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
}

type LogConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	File       string `yaml:"file" env:"LOG_FILE"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DATABASE_DRIVER"`
	URL      string `yaml:"url" env:"DATABASE_URL"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`
}

type LLMConfig struct {
	APIKey              string `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL             string `yaml:"base_url" env:"OPENAI_BASE_URL"`
	Model               string `yaml:"model" env:"OPENAI_MODEL"`
	ImageModel          string `yaml:"image_model" env:"OPENAI_IMAGE_MODEL"`
	ImageSize           string `yaml:"image_size" env:"OPENAI_IMAGE_SIZE"`
	TimeoutSeconds      int    `yaml:"timeout_seconds" env:"OPENAI_TIMEOUT_SECONDS"`
	ImageTimeoutSeconds int    `yaml:"image_timeout_seconds" env:"OPENAI_IMAGE_TIMEOUT_SECONDS"`
	Disabled            bool   `yaml:"disabled" env:"ECHODIARY_DISABLE_LLM"`
	// Strict surfaces provider failures as upstream errors instead of falling back.
	Strict bool `yaml:"strict" env:"ECHODIARY_LLM_STRICT"`
}

type StorageConfig struct {
	Endpoint             string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey            string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey            string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket               string `yaml:"bucket" env:"MINIO_BUCKET"`
	Region               string `yaml:"region" env:"MINIO_REGION"`
	Secure               bool   `yaml:"secure" env:"MINIO_SECURE"`
	PublicBaseURL        string `yaml:"public_base_url" env:"MINIO_PUBLIC_BASE_URL"`
	PresignExpireSeconds int    `yaml:"presign_expire_seconds" env:"MINIO_PRESIGN_EXPIRES_SECONDS"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret" env:"JWT_SECRET"`
	ExpireMinutes int    `yaml:"expire_minutes" env:"JWT_EXPIRE_MINUTES"`
	AdminPassword string `yaml:"admin_password" env:"ADMIN_PASSWORD"`
}

func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8000},
		Log:      LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Database: DatabaseConfig{Port: 3306, Name: "echodiary"},
		LLM: LLMConfig{
			Model:               "gpt-4.1-mini",
			ImageModel:          "gpt-image-1",
			ImageSize:           "1024x1024",
			TimeoutSeconds:      30,
			ImageTimeoutSeconds: 120,
		},
		Storage: StorageConfig{Bucket: "echodiary", Region: "us-east-1", PresignExpireSeconds: 300},
		Auth:    AuthConfig{JWTSecret: "echodiary-dev-secret", ExpireMinutes: 120, AdminPassword: "admin1234"},
	}
}

// Load applies defaults, then the first readable YAML file, then environment variables.
func Load(configFile string) *Config {
	c := Default()

	paths := []string{"etc/config-dev.yaml", "/etc/echodiary/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, c); err != nil {
				slog.Warn("config file ignored", "path", path, "err", err)
			}
			break
		}
	}

	if err := env.Parse(c); err != nil {
		slog.Warn("config env parse failed", "err", err)
	}
	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *LLMConfig) ImageTimeout() time.Duration {
	return time.Duration(c.ImageTimeoutSeconds) * time.Second
}

func (c *StorageConfig) PresignTTL() time.Duration {
	return time.Duration(c.PresignExpireSeconds) * time.Second
}

func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.ExpireMinutes) * time.Minute
}

// ResolveDriver returns the explicit driver or infers it from the URL.
func (d DatabaseConfig) ResolveDriver() string {
	if d.Driver != "" {
		return strings.ToLower(d.Driver)
	}
	switch u := d.URL; {
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(u, "file:"), strings.HasPrefix(u, "sqlite:"), u == ":memory:":
		return DriverSQLite
	default:
		return DriverMySQL
	}
}

func (d DatabaseConfig) mysqlDSN() string {
	if d.URL != "" {
		return d.URL
	}
	cfg := gomysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", d.Host, d.Port)
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func (c *Config) OpenGormDB() (*gorm.DB, error) {
	return OpenGormDB(c.Database)
}

func OpenGormDB(d DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch d.ResolveDriver() {
	case DriverPostgres:
		dialector = postgres.Open(d.URL)
	case DriverSQLite:
		dialector = sqlite.Open(strings.TrimPrefix(d.URL, "sqlite:"))
	case DriverMySQL:
		dialector = mysql.Open(d.mysqlDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", d.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
