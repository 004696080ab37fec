package repository

import (
	"fmt"
	"time"

	"github.com/fadilmartias/resume-matcher/internal/config"
	"github.com/fadilmartias/resume-matcher/internal/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the Postgres database, enables the pgvector extension and
// migrates the schema.
func Connect(cfg *config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("enabling pgvector extension: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Company{},
		&model.Job{},
		&model.Resume{},
		&model.JobEmbedding{},
		&model.ResumeEmbedding{},
		&model.MatchResult{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	logger.Debug("database ready", zap.String("host", cfg.Host), zap.String("name", cfg.Name))

	return db, nil
}
