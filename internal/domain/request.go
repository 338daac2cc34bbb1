package domain

import (
	"time"

	"github.com/google/uuid"
)

// Request журнал вопросов и ответов
type Request struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	UserID          uuid.UUID     `json:"user_id" db:"user_id"`
	Question        string        `json:"question" db:"question"`
	Mode            GuidanceMode  `json:"mode" db:"mode"`
	Language        Language      `json:"language" db:"language"`
	Tier            Tier          `json:"tier" db:"tier"`
	SnapshotVersion *int          `json:"snapshot_version,omitempty" db:"snapshot_version"`
	ResponseText    *string       `json:"response_text,omitempty" db:"response_text"`
	Passed          *bool         `json:"passed,omitempty" db:"passed"`
	WasRegenerated  bool          `json:"was_regenerated" db:"was_regenerated"`
	State           PipelineState `json:"state" db:"state"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

