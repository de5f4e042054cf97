package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EducationRead struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_education_read,unique" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Slug      string         `gorm:"column:slug;not null;index:idx_education_read,unique" json:"slug"`
	ReadAt    time.Time      `gorm:"column:read_at;not null" json:"read_at"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (EducationRead) TableName() string { return "education_read" }
