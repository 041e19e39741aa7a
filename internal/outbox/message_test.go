package outbox

import (
	"testing"
)

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"pending is valid", StatusPending, true},
		{"published is valid", StatusPublished, true},
		{"failed is valid", StatusFailed, true},
		{"unknown is invalid", Status("unknown"), false},
		{"empty is invalid", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.want {
				t.Errorf("Status.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewMessage(t *testing.T) {
	payload := map[string]string{"EventId": "event-1"}

	msg, err := NewMessage("EventSoldOut", "event-1", "tickets.event-sold-out", payload)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}

	if msg.MessageType != "EventSoldOut" {
		t.Errorf("MessageType = %v, want EventSoldOut", msg.MessageType)
	}
	if msg.AggregateID != "event-1" {
		t.Errorf("AggregateID = %v, want event-1", msg.AggregateID)
	}
	if msg.Topic != "tickets.event-sold-out" {
		t.Errorf("Topic = %v, want tickets.event-sold-out", msg.Topic)
	}
	if msg.PartitionKey != "event-1" {
		t.Errorf("PartitionKey = %v, want event-1", msg.PartitionKey)
	}
	if msg.Status != StatusPending {
		t.Errorf("Status = %v, want %v", msg.Status, StatusPending)
	}
	if msg.RetryCount != 0 {
		t.Errorf("RetryCount = %v, want 0", msg.RetryCount)
	}
	if msg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %v, want 5", msg.MaxRetries)
	}

	var decoded map[string]string
	if err := msg.GetPayload(&decoded); err != nil {
		t.Errorf("GetPayload() error = %v", err)
	}
	if decoded["EventId"] != "event-1" {
		t.Errorf("payload EventId = %v, want event-1", decoded["EventId"])
	}
}

func TestMessage_CanRetry(t *testing.T) {
	tests := []struct {
		name       string
		status     Status
		retryCount int
		maxRetries int
		want       bool
	}{
		{"failed with retries left", StatusFailed, 2, 5, true},
		{"failed at max retries", StatusFailed, 5, 5, false},
		{"failed over max retries", StatusFailed, 6, 5, false},
		{"pending cannot retry", StatusPending, 0, 5, false},
		{"published cannot retry", StatusPublished, 0, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &Message{
				Status:     tt.status,
				RetryCount: tt.retryCount,
				MaxRetries: tt.maxRetries,
			}

			if got := msg.CanRetry(); got != tt.want {
				t.Errorf("CanRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}
