package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsStoreDefaultsWhenFileMissing(t *testing.T) {
	store := NewOptionsStore(filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, DefaultPlayerOptions(), store.Current())
}

func TestOptionsStoreLoadsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.json")

	opts := DefaultPlayerOptions()
	opts.WaveColor = "#123456"
	opts.Height = 90
	data, err := json.Marshal(opts)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	store := NewOptionsStore(path)

	current := store.Current()
	assert.Equal(t, "#123456", current.WaveColor)
	assert.Equal(t, 90, current.Height)
}

func TestOptionsStorePartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"waveColor":"#000000"}`), 0644))

	store := NewOptionsStore(path)

	current := store.Current()
	assert.Equal(t, "#000000", current.WaveColor)
	// Everything not in the file stays at its default
	assert.Equal(t, DefaultPlayerOptions().Height, current.Height)
	assert.Equal(t, DefaultPlayerOptions().Backend, current.Backend)
}

func TestOptionsStoreUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.json")
	store := NewOptionsStore(path)

	opts := DefaultPlayerOptions()
	opts.UseCoverartBackground = false
	require.NoError(t, store.Update(opts))

	// A fresh store sees the persisted value
	reread := NewOptionsStore(path)
	assert.False(t, reread.Current().UseCoverartBackground)
}

func TestOptionsStoreWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.json")
	store := NewOptionsStore(path)

	stop, err := store.Watch()
	require.NoError(t, err)
	defer stop()

	opts := DefaultPlayerOptions()
	opts.ProgressColor = "#FF0000"
	data, err := json.Marshal(opts)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	require.Eventually(t, func() bool {
		return store.Current().ProgressColor == "#FF0000"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDefaultPlayerOptions(t *testing.T) {
	opts := DefaultPlayerOptions()

	assert.Equal(t, "#A8A8A8", opts.WaveColor)
	assert.Equal(t, "#0082c9", opts.ProgressColor)
	assert.Equal(t, 180, opts.Height)
	assert.Equal(t, "MediaElement", opts.Backend)
	assert.True(t, opts.DragToSeek)
	assert.True(t, opts.ShowMetadataTableSingle)
	assert.False(t, opts.ShowMetadataTableMulti)
	assert.True(t, opts.UseCoverartBackground)
}
