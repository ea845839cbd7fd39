package types

import "time"

// ProgressMessage is a WebSocket update pushed to the page: download and
// decode progress, session status changes, and terminal outcomes
type ProgressMessage struct {
	SessionID string    `json:"sessionId"`
	RequestID uint64    `json:"requestId"`
	Type      string    `json:"type"`    // "progress", "status", "metadata", "complete", "error"
	Percent   float64   `json:"percent"` // 0-100, or -1 for the error terminus
	Status    string    `json:"status"`  // current session status
	FileLabel string    `json:"fileLabel,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
