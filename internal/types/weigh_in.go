package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WeighIn struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_weigh_user_time" json:"user_id"`
	User       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	WeightKg   float64        `gorm:"column:weight_kg;not null" json:"weight_kg"`
	MeasuredAt time.Time      `gorm:"column:measured_at;not null;index:idx_weigh_user_time" json:"measured_at"`
	Source     string         `gorm:"column:source;not null;default:'manual'" json:"source"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (WeighIn) TableName() string { return "weigh_in" }
