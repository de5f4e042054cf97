package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HabitCheck records one habit check-in. user_id + habit_key + check_date
// carry a unique index so repeated check-ins for the same day are idempotent.
type HabitCheck struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_habit_check_day,unique" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	HabitKey  string         `gorm:"column:habit_key;not null;index:idx_habit_check_day,unique" json:"habit_key"`
	CheckDate string         `gorm:"column:check_date;not null;index:idx_habit_check_day,unique" json:"check_date"`
	CheckedAt time.Time      `gorm:"column:checked_at;not null" json:"checked_at"`
	Source    string         `gorm:"column:source;not null;default:'manual'" json:"source"`
	Note      string         `gorm:"column:note" json:"note"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (HabitCheck) TableName() string { return "habit_check" }
