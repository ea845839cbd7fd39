package services

import (
	"io"
	"math"
	"sync"
	"time"

	"waveplay/websocket"
)

// Download is budgeted the first half of the bar; engine decode drives
// the second half. The split keeps the bar continuous across the two
// independently-timed phases.
const (
	downloadBudget = 50.0
	errorTerminus  = -1.0
	rampCeiling    = 25.0
	rampStep       = 1.0
	rampInterval   = 100 * time.Millisecond
)

// ProgressReporter maps byte-stream and decode progress for one load
// request into a single 0-100 scalar, broadcast to the page through the
// hub. Values are monotonically non-decreasing per request; the error
// terminus (-1) overrides anything in flight.
type ProgressReporter struct {
	hub websocket.Hub

	mu      sync.Mutex
	entries map[uint64]*progressEntry
}

type progressEntry struct {
	sessionID string
	fileLabel string
	last      float64
	terminal  bool
}

// NewProgressReporter creates a reporter that emits through hub
func NewProgressReporter(hub websocket.Hub) *ProgressReporter {
	return &ProgressReporter{
		hub:     hub,
		entries: make(map[uint64]*progressEntry),
	}
}

// Begin registers a load request and emits the initial 0%
func (p *ProgressReporter) Begin(sessionID, fileLabel string, requestID uint64) {
	p.mu.Lock()
	p.entries[requestID] = &progressEntry{
		sessionID: sessionID,
		fileLabel: fileLabel,
	}
	p.mu.Unlock()

	p.emit(requestID, "progress", "downloading", 0)
}

// Track wraps r so that reading it drives the download half of the bar.
// When the total length is unknown, a synthetic ramp climbs to 25% as a
// best-effort heartbeat and then stops driving.
func (p *ProgressReporter) Track(requestID uint64, r io.Reader, total int64) io.Reader {
	if total <= 0 {
		go p.ramp(requestID)
		return r
	}
	return &countingReader{reporter: p, requestID: requestID, reader: r, total: total}
}

// Decode maps the engine's own 0-100 decode progress into the 50-100 range
func (p *ProgressReporter) Decode(requestID uint64, enginePercent float64) {
	pct := downloadBudget + enginePercent/2
	if pct > 100 {
		pct = 100
	}
	p.emit(requestID, "progress", "decoding", pct)
}

// Complete drives the bar to its success terminus
func (p *ProgressReporter) Complete(requestID uint64) {
	p.emit(requestID, "complete", "ready", 100)
	p.finish(requestID)
}

// Fail forces the error terminus, overriding any in-flight value
func (p *ProgressReporter) Fail(requestID uint64) {
	p.emit(requestID, "error", "error", errorTerminus)
	p.finish(requestID)
}

// Discard drops a superseded request without emitting anything
func (p *ProgressReporter) Discard(requestID uint64) {
	p.mu.Lock()
	delete(p.entries, requestID)
	p.mu.Unlock()
}

// Last returns the most recent percent emitted for a request
func (p *ProgressReporter) Last(requestID uint64) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[requestID]
	if !ok {
		return 0, false
	}
	return e.last, true
}

func (p *ProgressReporter) emit(requestID uint64, msgType, status string, pct float64) {
	p.mu.Lock()
	e, ok := p.entries[requestID]
	if !ok || e.terminal {
		p.mu.Unlock()
		return
	}
	if pct != errorTerminus && pct < e.last {
		// Never let a late or slow signal move the bar backwards
		p.mu.Unlock()
		return
	}
	e.last = pct
	if pct == errorTerminus || pct >= 100 {
		e.terminal = true
	}
	sessionID, fileLabel := e.sessionID, e.fileLabel
	p.mu.Unlock()

	p.hub.BroadcastProgress(sessionID, requestID, msgType, status, fileLabel, "", pct)
}

func (p *ProgressReporter) finish(requestID uint64) {
	p.mu.Lock()
	delete(p.entries, requestID)
	p.mu.Unlock()
}

// ramp emits a synthetic heartbeat up to the ceiling when the content
// length is unknown; it never fabricates progress past that.
func (p *ProgressReporter) ramp(requestID uint64) {
	ticker := time.NewTicker(rampInterval)
	defer ticker.Stop()

	fake := 0.0
	for range ticker.C {
		fake += rampStep

		p.mu.Lock()
		e, ok := p.entries[requestID]
		if !ok || e.terminal || fake > rampCeiling {
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		p.emit(requestID, "progress", "downloading", fake)
	}
}

// countingReader maps cumulative bytes read into the 0-50 range
type countingReader struct {
	reporter  *ProgressReporter
	requestID uint64
	reader    io.Reader
	total     int64
	loaded    int64
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.reader.Read(b)
	if n > 0 {
		c.loaded += int64(n)
		pct := math.Floor(float64(c.loaded) / float64(c.total) * downloadBudget)
		if pct > downloadBudget {
			pct = downloadBudget
		}
		c.reporter.emit(c.requestID, "progress", "downloading", pct)
	}
	return n, err
}
