package services

import (
	"log"
	"regexp"
	"sync/atomic"
	"time"

	"waveplay/types"
)

var shareTokenPattern = regexp.MustCompile(`/s/([A-Za-z0-9]+)`)

// DetectContext derives the viewing context from the page URL shape and
// the presence of a folder-listing region. It is cheap and side-effect
// free; callers re-run it whenever the page signature changes.
func DetectContext(pageURL string, hasFileList bool) types.ShareContext {
	matches := shareTokenPattern.FindStringSubmatch(pageURL)
	if matches == nil {
		return types.ShareContext{Mode: types.ContextUnknown}
	}

	ctx := types.ShareContext{ShareToken: matches[1], Mode: types.ContextSingle}
	if hasFileList {
		ctx.Mode = types.ContextFolder
	}
	return ctx
}

// Surface is one playback surface live on the host page
type Surface interface {
	// Owner identifies which component created the surface
	Owner() string
	Pause()
	Detach()
}

// HostPage is the narrow adapter to the host application's page. The
// guard knows nothing about the host beyond this boundary.
type HostPage interface {
	PlaybackSurfaces() []Surface
	// ViewerOpenForAudio reports whether the host's own overlay viewer
	// has opened for an audio node
	ViewerOpenForAudio() bool
	CloseViewer()
}

// HostCapability is the host adapter resolved once at startup: either
// present with a page, or absent
type HostCapability struct {
	Page    HostPage
	Present bool
}

// ResolveHost wraps an optional host page adapter
func ResolveHost(page HostPage) HostCapability {
	return HostCapability{Page: page, Present: page != nil}
}

// Guard enforces that only one playback surface is ever live: the one
// owned by its designated owner. The host's built-in audio handling and
// ours are mutually exclusive, and the host's must lose.
type Guard struct {
	host      HostCapability
	owner     string
	enabled   atomic.Bool
	mutations chan struct{}
	stop      chan struct{}
	sweepGap  time.Duration
}

// NewGuard creates a guard sweeping surfaces not owned by owner
func NewGuard(host HostCapability, owner string) *Guard {
	return &Guard{
		host:      host,
		owner:     owner,
		mutations: make(chan struct{}, 1),
		stop:      make(chan struct{}),
		sweepGap:  2 * time.Second,
	}
}

// Enable turns sweeping on (folder mode)
func (g *Guard) Enable() { g.enabled.Store(true) }

// Disable turns sweeping off (single mode or unknown context)
func (g *Guard) Disable() { g.enabled.Store(false) }

// Enabled reports the current state of the enable/disable contract
func (g *Guard) Enabled() bool { return g.enabled.Load() }

// NotifyMutation requests a sweep after a host page mutation. Signals
// coalesce; a sweep storm collapses to one pending sweep.
func (g *Guard) NotifyMutation() {
	select {
	case g.mutations <- struct{}{}:
	default:
	}
}

// Run reacts to mutation signals, with a low-frequency periodic sweep as
// a safety net against missed mutations. It returns when Stop is called.
func (g *Guard) Run() {
	ticker := time.NewTicker(g.sweepGap)
	defer ticker.Stop()

	for {
		select {
		case <-g.mutations:
			g.Sweep()
		case <-ticker.C:
			g.Sweep()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates Run
func (g *Guard) Stop() {
	close(g.stop)
}

// Sweep removes every playback surface not owned by us and closes the
// host viewer if it opened for audio
func (g *Guard) Sweep() {
	if !g.enabled.Load() || !g.host.Present {
		return
	}

	for _, surface := range g.host.Page.PlaybackSurfaces() {
		if surface.Owner() == g.owner {
			continue
		}
		log.Printf("Removing stray playback surface owned by %q", surface.Owner())
		surface.Pause()
		surface.Detach()
	}

	if g.host.Page.ViewerOpenForAudio() {
		log.Printf("Closing host viewer overlay for audio")
		g.host.Page.CloseViewer()
	}
}
