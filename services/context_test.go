package services

import (
	"sync"
	"testing"
	"time"

	"waveplay/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectContext(t *testing.T) {
	tests := []struct {
		name        string
		pageURL     string
		hasFileList bool
		expected    types.ShareContext
	}{
		{
			name:        "single file share page",
			pageURL:     "https://cloud.example.com/s/AbC123xyz",
			hasFileList: false,
			expected:    types.ShareContext{Mode: types.ContextSingle, ShareToken: "AbC123xyz"},
		},
		{
			name:        "folder share page with file list",
			pageURL:     "https://cloud.example.com/s/AbC123xyz",
			hasFileList: true,
			expected:    types.ShareContext{Mode: types.ContextFolder, ShareToken: "AbC123xyz"},
		},
		{
			name:        "share URL with trailing path",
			pageURL:     "https://cloud.example.com/s/tok42/download",
			hasFileList: false,
			expected:    types.ShareContext{Mode: types.ContextSingle, ShareToken: "tok42"},
		},
		{
			name:        "non-share page",
			pageURL:     "https://cloud.example.com/apps/files",
			hasFileList: false,
			expected:    types.ShareContext{Mode: types.ContextUnknown},
		},
		{
			name:        "empty URL",
			pageURL:     "",
			hasFileList: true,
			expected:    types.ShareContext{Mode: types.ContextUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectContext(tt.pageURL, tt.hasFileList))
		})
	}
}

// fakeSurface records whether it was paused and detached
type fakeSurface struct {
	mu       sync.Mutex
	owner    string
	paused   bool
	detached bool
}

func (s *fakeSurface) Owner() string { return s.owner }

func (s *fakeSurface) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

func (s *fakeSurface) Detach() {
	s.mu.Lock()
	s.detached = true
	s.mu.Unlock()
}

func (s *fakeSurface) state() (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused, s.detached
}

// fakeHostPage is a host adapter with scriptable surfaces and viewer
type fakeHostPage struct {
	mu           sync.Mutex
	surfaces     []Surface
	viewerOpen   bool
	viewerClosed bool
}

func (p *fakeHostPage) PlaybackSurfaces() []Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.surfaces
}

func (p *fakeHostPage) ViewerOpenForAudio() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewerOpen
}

func (p *fakeHostPage) CloseViewer() {
	p.mu.Lock()
	p.viewerOpen = false
	p.viewerClosed = true
	p.mu.Unlock()
}

func TestSweepRemovesForeignSurfacesOnly(t *testing.T) {
	ours := &fakeSurface{owner: "waveplay"}
	theirs := &fakeSurface{owner: "host-audio"}
	page := &fakeHostPage{surfaces: []Surface{ours, theirs}}

	guard := NewGuard(ResolveHost(page), "waveplay")
	guard.Enable()
	guard.Sweep()

	paused, detached := theirs.state()
	assert.True(t, paused)
	assert.True(t, detached)

	paused, detached = ours.state()
	assert.False(t, paused)
	assert.False(t, detached)
}

func TestSweepClosesViewerOpenForAudio(t *testing.T) {
	page := &fakeHostPage{viewerOpen: true}

	guard := NewGuard(ResolveHost(page), "waveplay")
	guard.Enable()
	guard.Sweep()

	assert.True(t, page.viewerClosed)
}

func TestSweepDisabledDoesNothing(t *testing.T) {
	theirs := &fakeSurface{owner: "host-audio"}
	page := &fakeHostPage{surfaces: []Surface{theirs}, viewerOpen: true}

	guard := NewGuard(ResolveHost(page), "waveplay")
	guard.Sweep()

	paused, detached := theirs.state()
	assert.False(t, paused)
	assert.False(t, detached)
	assert.False(t, page.viewerClosed)
}

func TestSweepWithoutHostIsSafe(t *testing.T) {
	guard := NewGuard(ResolveHost(nil), "waveplay")
	guard.Enable()

	assert.NotPanics(t, func() { guard.Sweep() })
}

func TestGuardRunReactsToMutations(t *testing.T) {
	theirs := &fakeSurface{owner: "host-audio"}
	page := &fakeHostPage{surfaces: []Surface{theirs}}

	guard := NewGuard(ResolveHost(page), "waveplay")
	guard.sweepGap = time.Hour // mutations only, no periodic safety net
	guard.Enable()

	go guard.Run()
	defer guard.Stop()

	guard.NotifyMutation()

	require.Eventually(t, func() bool {
		paused, detached := theirs.state()
		return paused && detached
	}, time.Second, 5*time.Millisecond)
}

func TestGuardEnableDisableContract(t *testing.T) {
	guard := NewGuard(ResolveHost(nil), "waveplay")

	assert.False(t, guard.Enabled())
	guard.Enable()
	assert.True(t, guard.Enabled())
	guard.Disable()
	assert.False(t, guard.Enabled())
}
