package config

import (
	"fmt"
	"os"

	"badgeforge/db"
	"badgeforge/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Categories []models.CatalogCategory `yaml:"categories"`
}

// LoadCatalog returns the catalog from the configured YAML file or sqlite
// database, or the built-in default when neither is set. An empty database
// is seeded with the default catalog first.
func LoadCatalog(cfg *Config, logger *zap.Logger) (*models.Catalog, error) {
	switch {
	case cfg.CatalogFile != "":
		buf, err := os.ReadFile(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("error reading catalog file: %w", err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(buf, &f); err != nil {
			return nil, fmt.Errorf("error parsing catalog file: %w", err)
		}
		return models.NewCatalog(f.Categories)
	case cfg.CatalogDatabase != "":
		conn, err := db.Open(cfg.CatalogDatabase, logger)
		if err != nil {
			return nil, err
		}
		defer db.Close(conn)
		if err := db.Seed(conn, models.DefaultCategories()); err != nil {
			return nil, err
		}
		return db.LoadCatalog(conn)
	default:
		return models.DefaultCatalog(), nil
	}
}
