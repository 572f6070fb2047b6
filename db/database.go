package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"badgeforge/models"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open opens (creating if needed) the sqlite catalog database at dbPath and
// migrates the catalog schema.
func Open(dbPath string, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Ensure the directory exists (create if it doesn't)
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	logger.Info("catalog database opened", zap.String("path", dbPath))

	if err := conn.AutoMigrate(&models.Category{}, &models.Achievement{}); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog database: %w", err)
	}
	return conn, nil
}

// Close releases the underlying sql.DB.
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Seed writes categories into an empty catalog database. A database that
// already holds at least one category is left untouched.
func Seed(conn *gorm.DB, categories []models.CatalogCategory) error {
	var count int64
	if err := conn.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		for i, cat := range categories {
			row := models.Category{Name: cat.Name, Position: i}
			for j, title := range cat.Achievements {
				row.Achievements = append(row.Achievements, models.Achievement{Title: title, Position: j})
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to seed category %q: %w", cat.Name, err)
			}
		}
		return nil
	})
}

// LoadCatalog reads every category with its achievements, in position order.
func LoadCatalog(conn *gorm.DB) (*models.Catalog, error) {
	var rows []models.Category
	err := conn.
		Preload("Achievements", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC, id ASC")
		}).
		Order("position ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("catalog database has no categories")
	}

	categories := make([]models.CatalogCategory, 0, len(rows))
	for _, row := range rows {
		cat := models.CatalogCategory{Name: row.Name}
		for _, a := range row.Achievements {
			cat.Achievements = append(cat.Achievements, a.Title)
		}
		categories = append(categories, cat)
	}
	return models.NewCatalog(categories)
}
