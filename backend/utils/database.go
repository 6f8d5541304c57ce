package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"skilltracker/backend/config"
	"skilltracker/backend/models"
)

// InitDB открывает соединение с postgres или sqlite в зависимости от DB_DRIVER.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	if strings.EqualFold(cfg.LogMode, "prod") {
		gcfg.Logger = gormlogger.Default.LogMode(gormlogger.Error)
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		if dir := filepath.Dir(cfg.DBPath); dir != "." && cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.DBPath)
	case "postgres", "":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
	}
	if cfg.DBPath == ":memory:" && cfg.DBDriver == "sqlite" {
		// Every new connection would get its own empty in-memory database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table and seeds the system categories.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserSession{},
		&models.UserSharingSettings{},
		&models.Category{},
		&models.Skill{},
		&models.SkillSchedule{},
		&models.ScheduleDay{},
		&models.Goal{},
		&models.Milestone{},
		&models.ProgressLog{},
		&models.MilestoneCompletion{},
		&models.DailyStat{},
		&models.AiGeneratedPlan{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return SeedCategories(db)
}

// SeedCategories inserts missing system categories; existing rows are left alone.
func SeedCategories(db *gorm.DB) error {
	for _, c := range models.SystemCategories {
		c := c
		if err := db.Where(models.Category{Name: c.Name}).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	return nil
}
