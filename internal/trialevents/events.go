package trialevents

import (
	"context"
	"encoding/json"
	"time"
)

// Event types pushed to observers of a trial session
const (
	TypeTranscript = "transcript"
	TypePhase      = "phase"
	TypeRestored   = "restored"
	TypeEnded      = "ended"
	TypeEvidence   = "evidence"
)

// Event represents a trial event delivered to websocket clients and Redis streams
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// PhasePayload is sent when a session moves to another phase
type PhasePayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Forced  bool   `json:"forced,omitempty"`
	Skipped int    `json:"skipped,omitempty"`
}

// RestoredPayload is sent after undo or a snapshot restore
type RestoredPayload struct {
	Phase           string `json:"phase"`
	TranscriptCount int    `json:"transcriptCount"`
}

// NewEvent creates a new event with timestamp
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		Type:      eventType,
		Payload:   payloadBytes,
		Timestamp: time.Now().Unix(),
	}, nil
}

// MarshalEvent marshals an event to JSON string for Redis Stream
func MarshalEvent(event *Event) (string, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalEvent unmarshals a JSON string to an Event
func UnmarshalEvent(data string) (*Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Publisher delivers session events somewhere. Publish must not block for long.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, event *Event) error
}

// Multi fans an event out to several publishers and returns the first error
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, sessionID string, event *Event) error {
	var first error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, sessionID, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, string, *Event) error { return nil }
