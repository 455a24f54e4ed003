package trace

import (
	"time"
)

// EventType enumerates the significant transition kinds the simulator traces.
type EventType string

const (
	EventCommandReceived  EventType = "command_received"
	EventCommandProcessed EventType = "command_processed"
	EventStateBroadcast   EventType = "state_broadcast"
	EventPaymentStart     EventType = "payment_start"
	EventPaymentComplete  EventType = "payment_complete"
	EventDemoAction       EventType = "demo_action"
	EventSend             EventType = "send"
)

// Event is one immutable trace entry. Latency is only present on events that
// measure a request/response pair; CorrelationID links such pairs.
type Event struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	Type          EventType      `json:"type"`
	Source        string         `json:"source"`
	Target        string         `json:"target,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	Latency       *time.Duration `json:"latency,omitempty"`
	CorrelationID string         `json:"correlationId,omitempty"`
}

// Option customizes an emitted event.
type Option func(*Event)

func WithTarget(target string) Option {
	return func(e *Event) { e.Target = target }
}

func WithPayload(payload map[string]any) Option {
	return func(e *Event) { e.Payload = payload }
}

func WithLatency(d time.Duration) Option {
	return func(e *Event) { e.Latency = &d }
}

func WithCorrelation(id string) Option {
	return func(e *Event) { e.CorrelationID = id }
}

// Stats summarizes the trailing window of the event buffer. It is always
// computed fresh from the buffer so every snapshot is internally consistent.
type Stats struct {
	EventsPerSecond float64                     `json:"eventsPerSecond"`
	Counts          map[EventType]int           `json:"counts"`
	AvgLatency      map[EventType]time.Duration `json:"avgLatency"`
	Window          time.Duration               `json:"window"`
	GeneratedAt     time.Time                   `json:"generatedAt"`
}
