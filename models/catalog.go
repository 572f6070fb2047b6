package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// CatalogCategory is a category name together with its ordered achievement labels.
type CatalogCategory struct {
	Name         string   `yaml:"name" json:"category"`
	Achievements []string `yaml:"achievements" json:"achievements"`
}

// Catalog maps category names to ordered, non-empty achievement lists. It is
// built once at startup and never mutated afterwards.
type Catalog struct {
	categories []CatalogCategory
	index      map[string]int
}

// NewCatalog checks that every category is named, unique and has at least one
// achievement, and copies the input so callers cannot mutate it later.
func NewCatalog(categories []CatalogCategory) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidCatalog)
	}
	c := &Catalog{
		categories: make([]CatalogCategory, 0, len(categories)),
		index:      make(map[string]int, len(categories)),
	}
	for _, cat := range categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category without a name", ErrInvalidCatalog)
		}
		if _, dup := c.index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidCatalog, name)
		}
		if len(cat.Achievements) == 0 {
			return nil, fmt.Errorf("%w: category %q has no achievements", ErrInvalidCatalog, name)
		}
		seen := make(map[string]struct{}, len(cat.Achievements))
		achievements := make([]string, 0, len(cat.Achievements))
		for _, a := range cat.Achievements {
			a = strings.TrimSpace(a)
			if a == "" {
				return nil, fmt.Errorf("%w: empty achievement in category %q", ErrInvalidCatalog, name)
			}
			if _, dup := seen[a]; dup {
				return nil, fmt.Errorf("%w: duplicate achievement %q in category %q", ErrInvalidCatalog, a, name)
			}
			seen[a] = struct{}{}
			achievements = append(achievements, a)
		}
		c.index[name] = len(c.categories)
		c.categories = append(c.categories, CatalogCategory{Name: name, Achievements: achievements})
	}
	return c, nil
}

// DefaultCatalog returns the catalog used when no catalog file or database is configured.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultCategories())
	if err != nil {
		panic(err)
	}
	return c
}

func DefaultCategories() []CatalogCategory {
	return []CatalogCategory{
		{
			Name: "Reading Progress Milestones",
			Achievements: []string{
				"Started first book",
				"Completed 1 book",
				"Completed 5 books",
				"Completed 10 books",
				"Completed 20 books",
			},
		},
		{
			Name: "Volunteer Milestones",
			Achievements: []string{
				"Completed 10 Hours Community Service",
				"Completed 25 Hours Mentoring",
				"Completed 50 Hours Social Impact",
				"Volunteer of the Month",
			},
		},
		{
			Name: "Pharmacy Informatics APPE Rotations",
			Achievements: []string{
				"Completed Basic Informatics Rotation",
				"Completed Advanced Informatics Rotation",
				"Completed Informatics Research Project",
				"Exemplary Performance in APPE Rotation",
			},
		},
		{
			Name: "Well-being Initiatives",
			Achievements: []string{
				"Well-being Book Club Participation",
				"Mindfulness Program Completion",
				"Health & Wellness Champion",
			},
		},
	}
}

// Categories returns a copy of the catalog in its configured order.
func (c *Catalog) Categories() []CatalogCategory {
	out := make([]CatalogCategory, len(c.categories))
	for i, cat := range c.categories {
		out[i] = CatalogCategory{
			Name:         cat.Name,
			Achievements: append([]string(nil), cat.Achievements...),
		}
	}
	return out
}

// Achievements returns the ordered achievement labels for category.
func (c *Catalog) Achievements(category string) ([]string, bool) {
	i, ok := c.index[category]
	if !ok {
		return nil, false
	}
	return append([]string(nil), c.categories[i].Achievements...), true
}

func (c *Catalog) HasCategory(category string) bool {
	_, ok := c.index[category]
	return ok
}

// Contains reports whether achievement is listed under category.
func (c *Catalog) Contains(category, achievement string) bool {
	i, ok := c.index[category]
	if !ok {
		return false
	}
	for _, a := range c.categories[i].Achievements {
		if a == achievement {
			return true
		}
	}
	return false
}
