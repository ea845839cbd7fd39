package handlers

import (
	"errors"
	"log"
	"net/http"

	"waveplay/services"
	"waveplay/types"
	"waveplay/websocket"

	"github.com/gin-gonic/gin"
)

// PlayerHandler handles player session endpoints
type PlayerHandler struct {
	manager *services.SessionManager
	guard   *services.Guard
	artwork *services.ArtworkStore
	hub     websocket.Hub
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(manager *services.SessionManager, guard *services.Guard, artwork *services.ArtworkStore, hub websocket.Hub) *PlayerHandler {
	return &PlayerHandler{
		manager: manager,
		guard:   guard,
		artwork: artwork,
		hub:     hub,
	}
}

// LoadRequest is the body of a load call
type LoadRequest struct {
	ShareToken string `json:"share_token" binding:"required"`
	Path       string `json:"path"`
	Label      string `json:"label" binding:"required"`
}

// Load starts loading a shared audio file into the player session. A
// duplicate request inside the debounce window is answered with the
// current session unchanged, not an error.
func (h *PlayerHandler) Load(c *gin.Context) {
	var req LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid load request",
			"details": err.Error(),
		})
		return
	}

	session, err := h.manager.RequestLoad(req.ShareToken, req.Path, req.Label)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateLoad) {
			c.JSON(http.StatusOK, gin.H{
				"session":   session,
				"debounced": true,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to start load",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"session": session,
	})
}

// Toggle flips play/pause on the live engine
func (h *PlayerHandler) Toggle(c *gin.Context) {
	session, err := h.manager.TogglePlayPause()
	if err != nil {
		if errors.Is(err, services.ErrNoPlayer) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "no active player",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "playback toggle failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
	})
}

// VolumeRequest is the body of a volume call
type VolumeRequest struct {
	Level *float64 `json:"level" binding:"required"`
}

// Volume sets the engine volume
func (h *PlayerHandler) Volume(c *gin.Context) {
	var req VolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid volume request",
			"details": err.Error(),
		})
		return
	}
	if *req.Level < 0 || *req.Level > 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "volume must be between 0 and 1",
		})
		return
	}

	if err := h.manager.SetVolume(*req.Level); err != nil {
		if errors.Is(err, services.ErrNoPlayer) {
			c.JSON(http.StatusConflict, gin.H{"error": "no active player"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "volume change failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"level": *req.Level})
}

// SeekRequest is the body of a seek call
type SeekRequest struct {
	Position *float64 `json:"position" binding:"required"`
}

// Seek moves the engine playhead
func (h *PlayerHandler) Seek(c *gin.Context) {
	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid seek request",
			"details": err.Error(),
		})
		return
	}
	if *req.Position < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "position must not be negative",
		})
		return
	}

	if err := h.manager.Seek(*req.Position); err != nil {
		if errors.Is(err, services.ErrNoPlayer) {
			c.JSON(http.StatusConflict, gin.H{"error": "no active player"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "seek failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"position": *req.Position})
}

// Close shuts the player session down and releases the engine. The
// injected background goes with it.
func (h *PlayerHandler) Close(c *gin.Context) {
	session := h.manager.Close()
	if h.artwork != nil {
		h.artwork.Clear()
	}
	c.JSON(http.StatusOK, gin.H{
		"session": session,
	})
}

// GetBackground serves the cover art of the current file for use as the
// page background
func (h *PlayerHandler) GetBackground(c *gin.Context) {
	art := h.artwork.Current()
	if art == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no background artwork",
		})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, art.MIME, art.Data)
}

// GetSession returns a snapshot of the live session
func (h *PlayerHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"session": h.manager.Session(),
		"context": h.manager.Context(),
	})
}

// GetMetadata returns the metadata record and how it should be rendered.
// The panel query parameter is the explicit per-file request and always
// wins over the configured decision.
func (h *PlayerHandler) GetMetadata(c *gin.Context) {
	explicitPanel := c.Query("panel") == "true"

	decision, record := h.manager.Metadata(explicitPanel)
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no metadata available",
		})
		return
	}

	body := gin.H{
		"decision": decision,
	}
	if decision != types.RenderSuppressed {
		body["metadata"] = record
	}
	c.JSON(http.StatusOK, body)
}

// ContextRequest is the body of a context detection call
type ContextRequest struct {
	PageURL     string `json:"page_url" binding:"required"`
	HasFileList bool   `json:"has_file_list"`
}

// SetContext detects and installs the viewing context for the page and
// arms the playback guard unless the context stayed unknown
func (h *PlayerHandler) SetContext(c *gin.Context) {
	var req ContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid context request",
			"details": err.Error(),
		})
		return
	}

	ctx := services.DetectContext(req.PageURL, req.HasFileList)
	h.manager.SetContext(ctx)

	if h.guard != nil {
		if ctx.Mode == types.ContextUnknown {
			h.guard.Disable()
		} else {
			h.guard.Enable()
			h.guard.NotifyMutation()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"context": ctx,
	})
}

// HandleWebSocketConnection handles WebSocket connections scoped to one
// session's progress
func (h *PlayerHandler) HandleWebSocketConnection(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session ID is required"})
		return
	}

	if h.manager.Session().ID != sessionID {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, sessionID)
	h.hub.RegisterClient(client)
	client.StartPumps()
}

// HandleWebSocketAllConnection handles WebSocket connections that follow
// every session broadcast
func (h *PlayerHandler) HandleWebSocketAllConnection(c *gin.Context) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, "all")
	h.hub.RegisterClient(client)
	client.StartPumps()
}
