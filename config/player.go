package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// PlayerOptions are the display and behavior toggles consumed read-only
// by the metadata presentation and player lifecycle logic
type PlayerOptions struct {
	WaveColor     string  `json:"waveColor"`
	ProgressColor string  `json:"progressColor"`
	Height        int     `json:"height"`
	BarWidth      float64 `json:"barWidth"`
	BarRadius     float64 `json:"barRadius"`
	BarGap        float64 `json:"barGap"`
	SampleRate    int     `json:"sampleRate,omitempty"`
	DragToSeek    bool    `json:"dragToSeek"`
	Backend       string  `json:"backend"`
	Responsive    bool    `json:"responsive"`
	Normalize     bool    `json:"normalize"`

	ShowMetadataTableSingle bool `json:"show_metadata_table_single"`
	ShowMetadataTableMulti  bool `json:"show_metadata_table_multi"`
	UseCoverartBackground   bool `json:"use_coverart_background"`
}

// DefaultPlayerOptions returns the stock option set
func DefaultPlayerOptions() PlayerOptions {
	return PlayerOptions{
		WaveColor:               "#A8A8A8",
		ProgressColor:           "#0082c9",
		Height:                  180,
		BarWidth:                2.5,
		BarRadius:               1,
		BarGap:                  3,
		DragToSeek:              true,
		Backend:                 "MediaElement",
		Responsive:              true,
		Normalize:               false,
		ShowMetadataTableSingle: true,
		ShowMetadataTableMulti:  false,
		UseCoverartBackground:   true,
	}
}

// OptionsStore holds the live player options, loaded from a JSON file and
// hot-reloaded when that file changes on disk
type OptionsStore struct {
	mu   sync.RWMutex
	path string
	opts PlayerOptions
}

// NewOptionsStore loads options from path, falling back to defaults when
// the file is missing or unreadable
func NewOptionsStore(path string) *OptionsStore {
	s := &OptionsStore{
		path: path,
		opts: DefaultPlayerOptions(),
	}
	if err := s.reload(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load player options from %s: %v", path, err)
	}
	return s
}

// Current returns a copy of the live options
func (s *OptionsStore) Current() PlayerOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// Update replaces the live options and persists them
func (s *OptionsStore) Update(opts PlayerOptions) error {
	data, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return err
	}

	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
	return nil
}

func (s *OptionsStore) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	opts := DefaultPlayerOptions()
	if err := json.Unmarshal(data, &opts); err != nil {
		return err
	}

	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
	return nil
}

// Watch reloads the options whenever the backing file is written. It
// returns a stop function. Watching the parent directory covers editors
// that replace the file instead of writing in place.
func (s *OptionsStore) Watch() (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.reload(); err != nil {
					log.Printf("Warning: player options reload failed: %v", err)
				} else {
					log.Printf("Player options reloaded from %s", s.path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Player options watcher error: %v", err)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
