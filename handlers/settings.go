package handlers

import (
	"net/http"

	"waveplay/config"

	"github.com/gin-gonic/gin"
)

// SettingsHandler handles player option endpoints
type SettingsHandler struct {
	store *config.OptionsStore
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(store *config.OptionsStore) *SettingsHandler {
	return &SettingsHandler{
		store: store,
	}
}

// GetSettings returns the current player options
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Current())
}

// UpdateSettings replaces the player options and persists them
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var opts config.PlayerOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid settings format",
			"details": err.Error(),
		})
		return
	}

	if opts.Height <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "height must be positive",
		})
		return
	}

	if err := h.store.Update(opts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save settings",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated successfully",
		"settings": opts,
	})
}
