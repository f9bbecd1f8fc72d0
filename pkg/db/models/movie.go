package models

import "time"

// Movie is the SQL row backing a movie record.
type Movie struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Year        *int      `gorm:"column:year"`
	Rating      *float64  `gorm:"column:rating"`
	Description *string   `gorm:"column:description"`
	Image       *string   `gorm:"column:image"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Movie) TableName() string {
	return "movies"
}
