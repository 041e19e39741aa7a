package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the delivery status of an outbox message
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPublished, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Message is an integration message recorded in the same transaction as the
// state change it announces. The relay delivers it at least once; consumers
// must be idempotent by entity id
type Message struct {
	ID           string
	MessageType  string // e.g. "EventUpserted"
	AggregateID  string // id of the entity the message is about
	Payload      []byte // JSON wire payload
	Topic        string // destination queue
	PartitionKey string // broker partitioning, defaults to aggregate id
	Status       Status
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

// NewMessage serializes a payload into a pending outbox message
func NewMessage(messageType, aggregateID, topic string, payload interface{}) (*Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", messageType, err)
	}

	return &Message{
		ID:           uuid.New().String(),
		MessageType:  messageType,
		AggregateID:  aggregateID,
		Payload:      body,
		Topic:        topic,
		PartitionKey: aggregateID,
		Status:       StatusPending,
		MaxRetries:   5,
		CreatedAt:    time.Now(),
	}, nil
}

// CanRetry checks if a failed message has retry budget left
func (m *Message) CanRetry() bool {
	return m.Status == StatusFailed && m.RetryCount < m.MaxRetries
}

// GetPayload unmarshals the payload into the given value
func (m *Message) GetPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}
