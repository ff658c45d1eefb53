package eventbus

import (
	"time"
)

type EventType string

const (
	EventTypeHistorySync EventType = "history_sync"
)

type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	Retries   int         `json:"retries"`
}

type HistorySyncEvent struct {
	RequestedBy string    `json:"requested_by"`
	Trigger     string    `json:"trigger"`
	RequestedAt time.Time `json:"requested_at"`
}
