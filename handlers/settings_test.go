package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"waveplay/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettingsRouter(t *testing.T) (*gin.Engine, *config.OptionsStore) {
	t.Helper()

	store := config.NewOptionsStore(filepath.Join(t.TempDir(), "options.json"))
	handler := NewSettingsHandler(store)

	r := gin.New()
	r.GET("/api/settings", handler.GetSettings)
	r.POST("/api/settings", handler.UpdateSettings)
	return r, store
}

func TestGetSettingsReturnsDefaults(t *testing.T) {
	router, _ := newSettingsRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)

	var opts config.PlayerOptions
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, config.DefaultPlayerOptions(), opts)
}

func TestUpdateSettingsPersists(t *testing.T) {
	router, store := newSettingsRouter(t)

	opts := config.DefaultPlayerOptions()
	opts.WaveColor = "#FFFFFF"
	opts.ShowMetadataTableSingle = false
	body, err := json.Marshal(opts)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/api/settings", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	current := store.Current()
	assert.Equal(t, "#FFFFFF", current.WaveColor)
	assert.False(t, current.ShowMetadataTableSingle)
}

func TestUpdateSettingsRejectsBadHeight(t *testing.T) {
	router, _ := newSettingsRouter(t)

	opts := config.DefaultPlayerOptions()
	opts.Height = 0
	body, err := json.Marshal(opts)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/api/settings", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateSettingsRejectsMalformedBody(t *testing.T) {
	router, _ := newSettingsRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/settings", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
