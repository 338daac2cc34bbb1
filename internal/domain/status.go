package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PipelineState состояние обработки вопроса
type PipelineState int16

const (
	StateAdmitting  PipelineState = 1  // проверка квоты
	StateFetching   PipelineState = 2  // получение карты
	StateGenerating PipelineState = 3  // генерация ответа
	StateValidating PipelineState = 4  // проверка ответа по карте
	StateRetrying   PipelineState = 5  // повторная генерация в строгом режиме
	StateCommitting PipelineState = 6  // списание квоты
	StateDone       PipelineState = 7  // ответ отдан
	StateDenied     PipelineState = 8  // отказ по квоте
	StateFailed     PipelineState = 99 // ошибка
)

var stateNames = map[PipelineState]string{
	StateAdmitting:  "admitting",
	StateFetching:   "fetching",
	StateGenerating: "generating",
	StateValidating: "validating",
	StateRetrying:   "retrying",
	StateCommitting: "committing",
	StateDone:       "done",
	StateDenied:     "denied",
	StateFailed:     "failed",
}

func (s PipelineState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal из состояния нет переходов
func (s PipelineState) Terminal() bool {
	return s == StateDone || s == StateDenied || s == StateFailed
}

type ObjectType string

const (
	ObjectTypeGuidanceRequest ObjectType = "guidance_request"
)

type Status struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ObjectType   ObjectType      `json:"object_type" db:"object_type"`
	ObjectID     uuid.UUID       `json:"object_id" db:"object_id"`
	Status       PipelineState   `json:"status" db:"status"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
	Metadata     json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
