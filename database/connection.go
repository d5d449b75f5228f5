package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Ananth-NQI/smartservice-backend/internal/config"
	"github.com/Ananth-NQI/smartservice-backend/internal/models"
)

// socketDir is where Cloud Run mounts Cloud SQL unix sockets.
const socketDir = "/cloudsql"

// DSN builds the connection string. DATABASE_URL wins; otherwise Cloud SQL
// is reached over its unix socket when INSTANCE_CONNECTION_NAME is set, and
// DB_HOST/DB_PORT over TCP for local development.
func DSN(cfg config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	if cfg.InstanceConnectionName != "" {
		return fmt.Sprintf("host=%s/%s user=%s password=%s dbname=%s sslmode=disable",
			socketDir, cfg.InstanceConnectionName, cfg.DBUser, cfg.DBPass, cfg.DBName)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPass, cfg.DBName, cfg.DBPort)
}

// Connect opens the PostgreSQL connection pool.
func Connect(cfg config.Config, logger *zap.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if !cfg.IsProduction() && cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}

	if cfg.InstanceConnectionName != "" {
		logger.Info("connecting to Cloud SQL via socket", zap.String("instance", cfg.InstanceConnectionName))
	} else {
		logger.Info("connecting to PostgreSQL", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logger.Info("database connected")
	return db, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Customer{},
		&models.Vehicle{},
		&models.Employee{},
		&models.Worker{},
		&models.ServiceRequest{},
		&models.WorkAssignment{},
		&models.Payment{},
		&models.Notification{},
		&models.OTP{},
	)
}
