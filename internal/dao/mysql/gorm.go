// Package mysql 提供数据访问层的初始化
// 负责按配置建立数据库连接（mysql | postgres | sqlite）、自动迁移表结构、初始化 Repository 层
package mysql

import (
	"fmt"
	"time"

	"pair_chat_server/internal/config"
	"pair_chat_server/internal/dao/mysql/repository"
	"pair_chat_server/internal/model"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init 初始化数据库连接并返回 Repository 层实例
func Init(cfg config.DatabaseConfig) (*repository.Repositories, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err = AutoMigrate(db); err != nil {
		return nil, err
	}
	zap.L().Info("数据库连接成功", zap.String("driver", cfg.Driver), zap.String("database", cfg.DatabaseName))
	return repository.NewRepositories(db), nil
}

// Open 按驱动建立连接
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql", "":
		// 格式：user:password@tcp(host:port)/database?params
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DatabaseName)
		dialector = mysqldriver.Open(dsn)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DatabaseName)
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseName)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db, nil
}

// OpenMemory 打开一个独立的内存 sqlite 库并完成迁移，用于测试和本地试跑
func OpenMemory(name string) (*gorm.DB, error) {
	db, err := Open(config.DatabaseConfig{
		Driver:       "sqlite",
		DatabaseName: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		return nil, err
	}
	if err = AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate 自动迁移表结构，不会删除已有字段或数据
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.UserInfo{},
		&model.PairSession{},
		&model.DurationReport{},
		&model.Gift{},
		&model.GiftRequest{},
		&model.GiftTransaction{},
		&model.Message{},
		&model.ConversationRead{},
		&model.SessionEvent{},
		&model.UserBlock{},
	)
}
