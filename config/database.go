package config

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"Pedalize/models"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 組出MySQL連線字串
func (d DatabaseConfig) DSN() string {
	cfg := mysqlDriver.NewConfig()
	cfg.User = d.Username
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.Host, d.Port)
	cfg.DBName = d.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func SetupMySQLConnection(cfg DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// 建立或更新所有資料表
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Client{},
		&models.LoginToken{},
		&models.Product{},
		&models.ProductCharacteristic{},
		&models.Review{},
		&models.ShoppingCart{},
		&models.ShoppingCartArticle{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func SetupRedisConnection(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return redisClient, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	return redisClient, nil
}
