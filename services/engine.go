package services

// The waveform decode/playback engine is an external capability. The
// player owns exactly one instance at a time and treats everything past
// this interface as a black box.

// EngineEventKind enumerates the typed events an engine can emit
type EngineEventKind int

const (
	EngineReady EngineEventKind = iota
	EngineError
	EnginePlay
	EnginePause
	EngineLoading
	EnginePosition
)

// EngineEvent is one event from the engine. Percent accompanies
// EngineLoading, Position accompanies EnginePosition, Err accompanies
// EngineError.
type EngineEvent struct {
	Kind     EngineEventKind
	Percent  float64
	Position float64
	Err      error
}

// Engine is the decode/playback capability contract
type Engine interface {
	// Load hands the downloaded bytes to the engine. Decode progress and
	// the ready signal arrive asynchronously on Events.
	Load(data []byte) error
	Play() error
	Pause() error
	Seek(position float64) error
	SetVolume(level float64) error
	Duration() float64
	Events() <-chan EngineEvent
	// Destroy releases the instance and closes its event channel
	Destroy()
}

// EngineFactory creates a fresh engine instance for one load request
type EngineFactory func() Engine
