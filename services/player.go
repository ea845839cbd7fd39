package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"waveplay/config"
	"waveplay/types"
	"waveplay/websocket"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateLoad means a load request repeated the previous one
	// inside the debounce window; it is a UI artifact, not an error the
	// user ever sees
	ErrDuplicateLoad = errors.New("duplicate load request")
	// ErrNoPlayer means no engine instance is live
	ErrNoPlayer = errors.New("no active player")
)

const (
	defaultDebounceWindow = 2 * time.Second
	// The close animation and the resource release are decoupled: the
	// page collapses immediately, the engine is destroyed after the
	// animation delay
	defaultCloseDelay = 300 * time.Millisecond

	fallbackMessage = "Error loading audio. Please try again or download the file directly."
)

// SourceOpener supplies the audio byte stream for a share file
type SourceOpener interface {
	OpenStream(token, relPath string) (io.ReadCloser, int64, error)
}

// SessionManager owns the single live player session and its engine
// instance. Every accepted load request gets a fresh LoadRequestID; the
// request's asynchronous continuations capture that id and abandon their
// results once the session has moved on. That check is the only guard
// shared state needs; there is no preemption, only overlapping
// continuations.
type SessionManager struct {
	newEngine EngineFactory
	source    SourceOpener
	reporter  *ProgressReporter
	tags      *TagService
	opts      *config.OptionsStore
	hub       websocket.Hub

	debounceWindow time.Duration
	closeDelay     time.Duration

	loadSeq atomic.Uint64

	mu          sync.Mutex
	session     *types.PlayerSession
	engine      Engine
	viewContext types.ShareContext
	lastLoadKey string
	lastLoadAt  time.Time
	decision    types.RenderDecision
	record      *types.MetadataRecord
}

// NewSessionManager creates a session manager wired to its collaborators
func NewSessionManager(factory EngineFactory, source SourceOpener, reporter *ProgressReporter, tags *TagService, opts *config.OptionsStore, hub websocket.Hub) *SessionManager {
	return &SessionManager{
		newEngine:      factory,
		source:         source,
		reporter:       reporter,
		tags:           tags,
		opts:           opts,
		hub:            hub,
		debounceWindow: defaultDebounceWindow,
		closeDelay:     defaultCloseDelay,
		session: &types.PlayerSession{
			ID:        uuid.New().String(),
			Status:    types.StatusIdle,
			CreatedAt: time.Now(),
		},
		viewContext: types.ShareContext{Mode: types.ContextUnknown},
		decision:    types.RenderSuppressed,
	}
}

// DownloadURL is the opaque byte-stream source URL for a shared file
func DownloadURL(token, relPath string) string {
	if relPath == "" {
		return fmt.Sprintf("/s/%s/download", token)
	}
	return fmt.Sprintf("/s/%s/download?path=%s", token, url.QueryEscape(relPath))
}

// RequestLoad starts loading a shared audio file into the player. A
// repeat of the previous (label, path) inside the debounce window is an
// accidental double click and is ignored outright. Any existing engine
// is stopped and destroyed synchronously before the new load begins.
func (m *SessionManager) RequestLoad(token, relPath, label string) (types.PlayerSession, error) {
	key := label + "|" + relPath

	m.mu.Lock()
	now := time.Now()
	if m.lastLoadKey == key && now.Sub(m.lastLoadAt) < m.debounceWindow {
		snap := *m.session
		m.mu.Unlock()
		return snap, ErrDuplicateLoad
	}
	m.lastLoadKey = key
	m.lastLoadAt = now

	id := m.loadSeq.Add(1)

	if m.engine != nil {
		m.engine.Pause()
		m.engine.Destroy()
		m.engine = nil
	}

	s := m.session
	prev := s.LoadRequestID
	s.LoadRequestID = id
	s.SourceURL = DownloadURL(token, relPath)
	s.CurrentFileLabel = label
	s.Status = types.StatusDownloading
	s.Duration = 0
	s.Error = ""
	s.LoadedAt = nil
	s.ClosedAt = nil
	snap := *s
	m.mu.Unlock()

	// Silence the superseded request's still-running download; its
	// reads can no longer reach the hub
	if prev != 0 {
		m.reporter.Discard(prev)
	}

	m.reporter.Begin(snap.ID, label, id)
	m.broadcastStatus(snap, "status", "")

	go m.runLoad(id, token, relPath, label)

	return snap, nil
}

// runLoad is the download half of the pipeline for one request
func (m *SessionManager) runLoad(id uint64, token, relPath, label string) {
	rc, total, err := m.source.OpenStream(token, relPath)
	if err != nil {
		m.fail(id, fmt.Sprintf("fetch failed: %v", err))
		return
	}

	data, err := io.ReadAll(m.reporter.Track(id, rc, total))
	rc.Close()
	if err != nil {
		m.fail(id, fmt.Sprintf("download failed: %v", err))
		return
	}

	m.mu.Lock()
	if m.session.LoadRequestID != id {
		m.mu.Unlock()
		// Superseded while downloading; the blob is dropped here
		m.reporter.Discard(id)
		return
	}
	m.session.Status = types.StatusDecoding
	eng := m.newEngine()
	m.engine = eng
	snap := *m.session
	m.mu.Unlock()

	m.broadcastStatus(snap, "status", "")

	go m.pumpEngine(id, eng, data, label)

	if err := eng.Load(data); err != nil {
		m.fail(id, fmt.Sprintf("decode failed: %v", err))
	}
}

// pumpEngine projects engine events onto the session until the engine's
// event channel closes. Stale events are dropped by the id check.
func (m *SessionManager) pumpEngine(id uint64, eng Engine, data []byte, label string) {
	for ev := range eng.Events() {
		switch ev.Kind {
		case EngineLoading:
			if m.isCurrent(id) {
				m.reporter.Decode(id, ev.Percent)
			}

		case EngineReady:
			m.mu.Lock()
			if m.session.LoadRequestID != id {
				m.mu.Unlock()
				continue
			}
			now := time.Now()
			m.session.Status = types.StatusReady
			m.session.Duration = eng.Duration()
			m.session.LoadedAt = &now
			snap := *m.session
			m.mu.Unlock()

			m.reporter.Complete(id)
			m.broadcastStatus(snap, "status", "")

			// Metadata resolves concurrently with playback and never
			// blocks or alters it
			go m.resolveMetadata(id, data, label, snap.Duration)

			if err := eng.Play(); err != nil {
				log.Printf("Engine refused auto-play: %v", err)
			}

		case EnginePlay:
			m.projectPlayback(id, types.StatusPlaying)

		case EnginePause:
			m.projectPlayback(id, types.StatusPaused)

		case EnginePosition:
			m.mu.Lock()
			current := m.session.LoadRequestID == id
			sessionID := m.session.ID
			duration := m.session.Duration
			status := m.session.Status
			m.mu.Unlock()
			if current {
				clock := fmt.Sprintf("%s / %s", FormatTime(ev.Position), FormatTime(duration))
				m.hub.BroadcastProgress(sessionID, id, "position", string(status), label, clock, 0)
			}

		case EngineError:
			m.fail(id, fallbackMessage)
		}
	}
}

// projectPlayback mirrors the engine's own play/pause events into the
// session. The engine is the source of truth; a click that the engine
// rejected changes nothing here.
func (m *SessionManager) projectPlayback(id uint64, status types.PlayerStatus) {
	m.mu.Lock()
	if m.session.LoadRequestID != id {
		m.mu.Unlock()
		return
	}
	switch m.session.Status {
	case types.StatusReady, types.StatusPlaying, types.StatusPaused:
	default:
		// Idle after close, or already failed; the late engine event is
		// not a state the session should re-enter
		m.mu.Unlock()
		return
	}
	m.session.Status = status
	snap := *m.session
	m.mu.Unlock()

	m.broadcastStatus(snap, "status", "")
}

// resolveMetadata runs the tag extraction and render decision for one
// request once the engine is ready
func (m *SessionManager) resolveMetadata(id uint64, data []byte, label string, duration float64) {
	opts := m.opts.Current()
	mode := m.Context().Mode

	decision := DecideRender(mode, opts)
	facts := ProbeFacts(label, data, duration)
	setBackground := opts.UseCoverartBackground && mode == types.ContextSingle
	tagResult := m.tags.Extract(bytes.NewReader(data), setBackground)
	record := BuildRecord(facts, tagResult)

	m.mu.Lock()
	if m.session.LoadRequestID != id {
		m.mu.Unlock()
		return
	}
	m.decision = decision
	m.record = record
	snap := *m.session
	m.mu.Unlock()

	m.broadcastStatus(snap, "metadata", string(decision))
}

// fail parks the session in Error with the user-facing fallback message
func (m *SessionManager) fail(id uint64, detail string) {
	m.mu.Lock()
	if m.session.LoadRequestID != id || m.session.Status == types.StatusError {
		m.mu.Unlock()
		m.reporter.Discard(id)
		return
	}
	m.session.Status = types.StatusError
	m.session.Error = detail
	snap := *m.session
	m.mu.Unlock()

	log.Printf("Load request %d failed: %s", id, detail)
	m.reporter.Fail(id)
	m.broadcastStatus(snap, "error", fallbackMessage)
}

// TogglePlayPause drives the engine. The session status only changes
// when the engine's own play/pause event comes back.
func (m *SessionManager) TogglePlayPause() (types.PlayerSession, error) {
	m.mu.Lock()
	eng := m.engine
	status := m.session.Status
	snap := *m.session
	m.mu.Unlock()

	if eng == nil {
		return snap, ErrNoPlayer
	}
	if status == types.StatusPlaying {
		return snap, eng.Pause()
	}
	return snap, eng.Play()
}

// SetVolume forwards a volume change to the engine
func (m *SessionManager) SetVolume(level float64) error {
	m.mu.Lock()
	eng := m.engine
	m.mu.Unlock()
	if eng == nil {
		return ErrNoPlayer
	}
	return eng.SetVolume(level)
}

// Seek forwards a seek to the engine
func (m *SessionManager) Seek(position float64) error {
	m.mu.Lock()
	eng := m.engine
	m.mu.Unlock()
	if eng == nil {
		return ErrNoPlayer
	}
	return eng.Seek(position)
}

// Close stops playback and returns the session to Idle. The engine is
// destroyed after the close delay so the visual collapse is immediate
// while the resource release happens shortly after.
func (m *SessionManager) Close() types.PlayerSession {
	m.mu.Lock()
	eng := m.engine
	m.engine = nil

	// Bump the id so continuations of an in-flight load go stale
	prev := m.session.LoadRequestID
	m.session.LoadRequestID = m.loadSeq.Add(1)

	now := time.Now()
	m.session.Status = types.StatusIdle
	m.session.Error = ""
	m.session.ClosedAt = &now
	snap := *m.session
	m.mu.Unlock()

	if prev != 0 {
		m.reporter.Discard(prev)
	}

	m.broadcastStatus(snap, "status", "")

	if eng != nil {
		eng.Pause()
		time.AfterFunc(m.closeDelay, eng.Destroy)
	}
	return snap
}

// Session returns a snapshot of the live session
func (m *SessionManager) Session() types.PlayerSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.session
}

// SetContext installs the detected viewing context
func (m *SessionManager) SetContext(ctx types.ShareContext) {
	m.mu.Lock()
	m.viewContext = ctx
	m.mu.Unlock()
}

// Context returns the current viewing context
func (m *SessionManager) Context() types.ShareContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewContext
}

// Metadata returns the render decision and record for the current file.
// explicitPanel is the per-file toolbar request: it overrides the
// decision table and always delivers the panel variant.
func (m *SessionManager) Metadata(explicitPanel bool) (types.RenderDecision, *types.MetadataRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if explicitPanel {
		return types.RenderPanelTable, m.record
	}
	return m.decision, m.record
}

func (m *SessionManager) isCurrent(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.LoadRequestID == id
}

func (m *SessionManager) broadcastStatus(snap types.PlayerSession, msgType, message string) {
	percent := 0.0
	if msgType == "error" {
		percent = -1
	}
	m.hub.BroadcastProgress(snap.ID, snap.LoadRequestID, msgType, string(snap.Status), snap.CurrentFileLabel, message, percent)
}
