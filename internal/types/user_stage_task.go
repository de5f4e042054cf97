package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserStageTask is a single trackable behavior unit tied to one metric
// condition. is_completed is monotonic: once true it never reverts.
type UserStageTask struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StageID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_stage_task,unique" json:"stage_id"`
	Stage         *UserStage     `gorm:"constraint:OnDelete:CASCADE;foreignKey:StageID;references:ID" json:"stage,omitempty"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	KeyCode       string         `gorm:"column:key_code;not null;index:idx_stage_task,unique" json:"key_code"`
	Title         string         `gorm:"column:title;not null" json:"title"`
	Description   string         `gorm:"column:description" json:"description"`
	TaskType      string         `gorm:"column:task_type;not null" json:"task_type"`
	CTA           string         `gorm:"column:cta" json:"cta"`
	Points        int            `gorm:"column:points;not null;default:0" json:"points"`
	Position      int            `gorm:"column:position;not null" json:"position"`
	ConditionJSON datatypes.JSON `gorm:"type:jsonb;column:condition_json" json:"condition_json"`
	IsCompleted   bool           `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CompletedAt   *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserStageTask) TableName() string { return "user_stage_task" }
