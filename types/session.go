package types

import "time"

// PlayerStatus represents the current state of the player session
type PlayerStatus string

const (
	StatusIdle        PlayerStatus = "idle"
	StatusDownloading PlayerStatus = "downloading"
	StatusDecoding    PlayerStatus = "decoding"
	StatusReady       PlayerStatus = "ready"
	StatusPlaying     PlayerStatus = "playing"
	StatusPaused      PlayerStatus = "paused"
	StatusError       PlayerStatus = "error"
)

// PlayerSession is the single live playback session. LoadRequestID is
// bumped on every accepted load request; asynchronous continuations
// capture it and must discard their results once it no longer matches.
type PlayerSession struct {
	ID               string       `json:"id"`
	SourceURL        string       `json:"sourceUrl,omitempty"`
	CurrentFileLabel string       `json:"currentFileLabel,omitempty"`
	LoadRequestID    uint64       `json:"loadRequestId"`
	Status           PlayerStatus `json:"status"`
	Duration         float64      `json:"duration,omitempty"`
	Error            string       `json:"error,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	LoadedAt         *time.Time   `json:"loadedAt,omitempty"`
	ClosedAt         *time.Time   `json:"closedAt,omitempty"`
}
