package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MealLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_meal_user_time" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Calories  float64        `gorm:"column:calories;not null;default:0" json:"calories"`
	ProteinG  float64        `gorm:"column:protein_g;not null;default:0" json:"protein_g"`
	LoggedAt  time.Time      `gorm:"column:logged_at;not null;index:idx_meal_user_time" json:"logged_at"`
	Source    string         `gorm:"column:source;not null;default:'manual'" json:"source"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MealLog) TableName() string { return "meal_log" }
