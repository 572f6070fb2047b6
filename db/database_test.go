package db

import (
	"path/filepath"
	"testing"

	"badgeforge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAndLoadCatalogKeepsOrder(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "catalog", "catalog.db"), nil)
	require.NoError(t, err)
	defer Close(conn)

	require.NoError(t, Seed(conn, models.DefaultCategories()))

	catalog, err := LoadCatalog(conn)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategories(), catalog.Categories())
}

func TestSeedLeavesExistingCatalogAlone(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "catalog.db"), nil)
	require.NoError(t, err)
	defer Close(conn)

	custom := []models.CatalogCategory{
		{Name: "Sports", Achievements: []string{"First 5k", "First Marathon"}},
	}
	require.NoError(t, Seed(conn, custom))
	require.NoError(t, Seed(conn, models.DefaultCategories()))

	catalog, err := LoadCatalog(conn)
	require.NoError(t, err)
	assert.Equal(t, custom, catalog.Categories())
}

func TestLoadCatalogEmptyDatabase(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "catalog.db"), nil)
	require.NoError(t, err)
	defer Close(conn)

	_, err = LoadCatalog(conn)
	assert.Error(t, err)
}
