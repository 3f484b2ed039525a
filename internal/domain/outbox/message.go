package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/domain/shared"
)

// EventType routes an outbox message to its topic
type EventType string

const (
	EventGenerationRequested EventType = "generation.requested"
	EventReportCompleted     EventType = "report.completed"
	EventReportFailed        EventType = "report.failed"
)

// Message is an event written in the same database transaction as the state change it announces
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	EventType     EventType           `json:"event_type"`
	AggregateID   uuid.UUID           `json:"aggregate_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(eventType EventType, aggregateID uuid.UUID, payload interface{}) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:     uuid.New(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     raw,
		Status:      shared.OutboxStatusPending,
		Attempts:    0,
		CreatedAt:   time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	m.touch()
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	m.touch()
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	m.touch()
}

func (m *Message) touch() {
	now := time.Now()
	m.LastAttemptAt = &now
}

// DecodePayload unmarshals the payload into v
func (m *Message) DecodePayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}
