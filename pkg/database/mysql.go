package database

import (
	"fmt"
	"time"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/pkg/log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// OpenMySQL 打开 MySQL 连接并迁移对比报告索引表。
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&model.ArtifactIndex{}); err != nil {
		return nil, fmt.Errorf("failed to migrate comparison_artifacts: %w", err)
	}
	log.Info("MySQL database connected successfully")
	return db, nil
}
