package services

import (
	"sync"

	"waveplay/types"
)

// ArtworkStore holds the cover art of the current file for use as the
// page background. It keeps one image at a time; a new extraction
// replaces the previous one.
type ArtworkStore struct {
	mu  sync.RWMutex
	art *types.Artwork
}

// NewArtworkStore creates an empty artwork store
func NewArtworkStore() *ArtworkStore {
	return &ArtworkStore{}
}

// Set installs the artwork. A nil artwork clears the store.
func (a *ArtworkStore) Set(art *types.Artwork) {
	a.mu.Lock()
	a.art = art
	a.mu.Unlock()
}

// Current returns the stored artwork, or nil when none is set
func (a *ArtworkStore) Current() *types.Artwork {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.art
}

// Clear drops the stored artwork
func (a *ArtworkStore) Clear() {
	a.Set(nil)
}
