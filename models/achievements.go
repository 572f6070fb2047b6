package models

import "time"

// Achievement is one selectable achievement label belonging to a Category row.
type Achievement struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CategoryID uint      `gorm:"index;not null" json:"category_id"` // Foreign key to Category
	Title      string    `gorm:"not null" json:"title" validate:"required"`
	Position   int       `gorm:"not null" json:"position"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
