package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
)

// Event is the wire envelope for every domain event on the shared topic.
// Consumers dispatch on Type; unused fields stay zero.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       enums.EventType `json:"type"`
	CompanyID  uuid.UUID       `json:"company_id"`
	UserID     uuid.UUID       `json:"user_id,omitempty"`
	QuizID     uuid.UUID       `json:"quiz_id,omitempty"`
	QuizName   string          `json:"quiz_name,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// New stamps a fresh envelope for the given type.
func New(eventType enums.EventType, companyID uuid.UUID) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		CompanyID:  companyID,
		OccurredAt: time.Now().UTC(),
	}
}
