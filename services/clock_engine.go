package services

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/mewkiz/flac"
)

const positionTick = 500 * time.Millisecond

// ClockEngine is the server-side playback engine. It does not produce
// sound; playback happens wherever the stream URL is consumed. The
// engine parses the audio blob for its duration and then runs the
// playhead off the wall clock, emitting the same event sequence a real
// decoder would, so the session manager and its WebSocket consumers see
// loading, ready, play, pause and position exactly once each way.
type ClockEngine struct {
	mu        sync.Mutex
	events    chan EngineEvent
	duration  float64
	position  float64
	volume    float64
	playing   bool
	resumedAt time.Time
	destroyed bool
	ticker    *time.Ticker
	stop      chan struct{}
}

// NewClockEngine creates an engine ready to load one audio blob
func NewClockEngine() Engine {
	return &ClockEngine{
		events: make(chan EngineEvent, 16),
		volume: 1.0,
		stop:   make(chan struct{}),
	}
}

// Load parses the blob and brings the engine to ready
func (e *ClockEngine) Load(data []byte) error {
	if len(data) == 0 {
		err := errors.New("empty audio data")
		e.emit(EngineEvent{Kind: EngineError, Err: err})
		return err
	}

	e.emit(EngineEvent{Kind: EngineLoading, Percent: 0})

	duration := probeDuration(data)

	e.emit(EngineEvent{Kind: EngineLoading, Percent: 60})

	e.mu.Lock()
	e.duration = duration
	e.position = 0
	e.mu.Unlock()

	e.emit(EngineEvent{Kind: EngineLoading, Percent: 100})
	e.emit(EngineEvent{Kind: EngineReady})

	go e.run()
	return nil
}

// probeDuration reads the duration out of the container header. FLAC
// carries it in STREAMINFO; for other formats the duration stays
// unknown and the playhead runs unbounded.
func probeDuration(data []byte) float64 {
	stream, err := flac.Parse(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	defer stream.Close()

	info := stream.Info
	if info == nil || info.SampleRate == 0 {
		return 0
	}
	return float64(info.NSamples) / float64(info.SampleRate)
}

// run advances the playhead while playing, until the engine is destroyed
func (e *ClockEngine) run() {
	e.ticker = time.NewTicker(positionTick)
	defer e.ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case now := <-e.ticker.C:
			e.advance(now)
		}
	}
}

func (e *ClockEngine) advance(now time.Time) {
	e.mu.Lock()
	if !e.playing || e.destroyed {
		e.mu.Unlock()
		return
	}
	e.position += now.Sub(e.resumedAt).Seconds()
	e.resumedAt = now

	ended := e.duration > 0 && e.position >= e.duration
	if ended {
		e.position = e.duration
		e.playing = false
	}
	pos := e.position
	e.mu.Unlock()

	e.emit(EngineEvent{Kind: EnginePosition, Position: pos})
	if ended {
		e.emit(EngineEvent{Kind: EnginePause})
	}
}

// Play starts or resumes playback
func (e *ClockEngine) Play() error {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return errors.New("engine destroyed")
	}
	if e.playing {
		e.mu.Unlock()
		return nil
	}
	if e.duration > 0 && e.position >= e.duration {
		e.position = 0
	}
	e.playing = true
	e.resumedAt = time.Now()
	e.mu.Unlock()

	e.emit(EngineEvent{Kind: EnginePlay})
	return nil
}

// Pause suspends playback, keeping the playhead where it is
func (e *ClockEngine) Pause() error {
	e.mu.Lock()
	if e.destroyed || !e.playing {
		e.mu.Unlock()
		return nil
	}
	e.position += time.Since(e.resumedAt).Seconds()
	e.playing = false
	e.mu.Unlock()

	e.emit(EngineEvent{Kind: EnginePause})
	return nil
}

// Seek moves the playhead, clamped to the known duration
func (e *ClockEngine) Seek(position float64) error {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return errors.New("engine destroyed")
	}
	if position < 0 {
		position = 0
	}
	if e.duration > 0 && position > e.duration {
		position = e.duration
	}
	e.position = position
	e.resumedAt = time.Now()
	pos := e.position
	e.mu.Unlock()

	e.emit(EngineEvent{Kind: EnginePosition, Position: pos})
	return nil
}

// SetVolume records the volume level
func (e *ClockEngine) SetVolume(level float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return errors.New("engine destroyed")
	}
	e.volume = level
	return nil
}

// Duration returns the parsed duration in seconds, 0 when unknown
func (e *ClockEngine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Events returns the engine's event stream. The channel closes when the
// engine is destroyed.
func (e *ClockEngine) Events() <-chan EngineEvent {
	return e.events
}

// Destroy stops the playhead and closes the event stream. Safe to call
// more than once.
func (e *ClockEngine) Destroy() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	e.playing = false
	close(e.stop)
	close(e.events)
	e.mu.Unlock()
}

// emit delivers an event without blocking the caller. Lost events are
// acceptable only under a stalled consumer; the session manager drains
// continuously.
func (e *ClockEngine) emit(ev EngineEvent) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	select {
	case e.events <- ev:
	default:
	}
	e.mu.Unlock()
}
