package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserStage is one step of a user's journey, seeded once from the stage
// catalog at bootstrap. completed_at is set at most once and never cleared;
// xp_current never exceeds xp_total.
type UserStage struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_user_stage,unique" json:"user_id"`
	User             *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	StageCode        string          `gorm:"column:stage_code;not null;index:idx_user_stage,unique" json:"stage_code"`
	Title            string          `gorm:"column:title;not null" json:"title"`
	StageType        string          `gorm:"column:stage_type;not null" json:"stage_type"`
	Status           string          `gorm:"column:status;not null;default:'locked'" json:"status"`
	Progress         float64         `gorm:"column:progress;not null;default:0" json:"progress"`
	Position         int             `gorm:"column:position;not null" json:"position"`
	RequirementsJSON datatypes.JSON  `gorm:"type:jsonb;column:requirements_json" json:"requirements_json"`
	XPCurrent        int             `gorm:"column:xp_current;not null;default:0" json:"xp_current"`
	XPTotal          int             `gorm:"column:xp_total;not null;default:0" json:"xp_total"`
	UnlockedAt       *time.Time      `gorm:"column:unlocked_at" json:"unlocked_at,omitempty"`
	StartedAt        *time.Time      `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt      *time.Time      `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Tasks            []UserStageTask `gorm:"foreignKey:StageID;references:ID" json:"tasks,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserStage) TableName() string { return "user_stage" }
