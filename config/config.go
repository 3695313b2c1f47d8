package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	UploadsDir      string        `yaml:"uploads_dir"`
	CorsOrigins     []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
	LogLevel string `yaml:"log_level"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	Database int           `yaml:"database"`
	TTL      time.Duration `yaml:"ttl"`
}

type CatalogConfig struct {
	ProductsPerPage int `yaml:"products_per_page"`
}

type JWTConfig struct {
	PrivateKey string        `yaml:"private_key"`
	PublicKey  string        `yaml:"public_key"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	JWT      JWTConfig      `yaml:"jwt"`
}

// 設定檔路徑，可由CONFIG_PATH覆蓋
func Path() string {
	return getEnv("CONFIG_PATH", defaultConfigPath)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func LoadConfig(filename string) (Config, error) {
	var config Config
	file, err := os.Open(filename)
	if err != nil {
		return config, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("decode config %s: %w", filename, err)
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return config, err
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":9999"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.UploadsDir == "" {
		c.Server.UploadsDir = "./uploads"
	}
	if len(c.Server.CorsOrigins) == 0 {
		c.Server.CorsOrigins = []string{"*"}
	}
	if c.Database.Port == "" {
		c.Database.Port = "3306"
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 15 * time.Minute
	}
	if c.Catalog.ProductsPerPage == 0 {
		c.Catalog.ProductsPerPage = 12
	}
	if c.JWT.PrivateKey == "" {
		c.JWT.PrivateKey = "jwt/private_key.pem"
	}
	if c.JWT.PublicKey == "" {
		c.JWT.PublicKey = "jwt/public_key.pem"
	}
	if c.JWT.TokenTTL == 0 {
		c.JWT.TokenTTL = 24 * time.Hour
	}
}

func (c *Config) validate() error {
	if c.Database.Host == "" || c.Database.Database == "" {
		return fmt.Errorf("config: database host and name are required")
	}
	if c.Catalog.ProductsPerPage < 0 {
		return fmt.Errorf("config: products_per_page must be positive, got %d", c.Catalog.ProductsPerPage)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis addr is required when redis is enabled")
	}
	return nil
}
