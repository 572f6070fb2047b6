package models

import "time"

// Category is a catalog category row in the catalog database.
type Category struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Name         string        `gorm:"uniqueIndex;not null" json:"name" validate:"required"`
	Position     int           `gorm:"not null" json:"position"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	Achievements []Achievement `gorm:"foreignKey:CategoryID" json:"achievements"` // One-to-many relationship
}
