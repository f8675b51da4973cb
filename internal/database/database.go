package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/next-chat/internal/config"
	"github.com/ashwinyue/next-chat/internal/model"
)

// DB 数据库封装
type DB struct {
	*gorm.DB
}

// New 创建数据库连接
func New(cfg *config.Config) (*DB, error) {
	logLevel := gormlogger.Silent
	if cfg.App.Debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}

	ConfigurePool(sqlDB, &cfg.Database)

	// 健康检查
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	if err := VerifySchema(db); err != nil {
		return nil, err
	}

	return &DB{DB: db}, nil
}

// Close 关闭数据库连接
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping 检查数据库连接
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// 连接池默认值，配置缺省或非法时使用
const (
	defaultMaxOpenConns = 30
	defaultMaxLifetime  = 300
)

// ConfigurePool 设置有界连接池
// MaxOpenConns <= 0 时回退到默认值，空闲连接数不超过最大连接数
func ConfigurePool(sqlDB *sql.DB, cfg *config.DatabaseConfig) {
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := min(max(cfg.MaxIdleConns, 0), maxOpen)
	lifetime := cfg.MaxLifetime
	if lifetime <= 0 {
		lifetime = defaultMaxLifetime
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Duration(lifetime) * time.Second)
}

// Migrate 自动迁移
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.AllModels...)
}

// cascadeRelations 删除会话时由外键级联删除的关联
var cascadeRelations = []string{"Messages", "Files", "Chunks"}

// VerifySchema 检查会话外键与分块唯一索引是否存在
func VerifySchema(db *gorm.DB) error {
	m := db.Migrator()
	for _, rel := range cascadeRelations {
		if !m.HasConstraint(&model.Conversation{}, rel) {
			return fmt.Errorf("schema check failed: missing foreign key for conversation %s", rel)
		}
	}
	if !m.HasIndex(&model.ContextChunk{}, model.ContextChunkIndexName) {
		return fmt.Errorf("schema check failed: missing index %s", model.ContextChunkIndexName)
	}
	return nil
}
