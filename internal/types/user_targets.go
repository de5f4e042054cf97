package types

import (
	"time"

	"github.com/google/uuid"
)

// UserTargets holds per-user nutrition targets. Columns are nullable on
// purpose: a missing target is not the same as a target of zero, and the
// evaluator falls back to condition defaults only when the column is NULL.
type UserTargets struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ProteinG    *float64  `gorm:"column:protein_g" json:"protein_g,omitempty"`
	CalorieKcal *float64  `gorm:"column:calorie_kcal" json:"calorie_kcal,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (UserTargets) TableName() string { return "user_targets" }
