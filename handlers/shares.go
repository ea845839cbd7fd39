package handlers

import (
	"errors"
	"log"
	"net/http"

	"waveplay/services"
	"waveplay/types"

	"github.com/gin-gonic/gin"
)

// ShareHandler handles share resolution endpoints
type ShareHandler struct {
	shareService services.ShareService
}

// NewShareHandler creates a new share handler
func NewShareHandler(ss services.ShareService) *ShareHandler {
	return &ShareHandler{
		shareService: ss,
	}
}

// GetShareInfo returns the full node info for a share token
func (h *ShareHandler) GetShareInfo(c *gin.Context) {
	token := c.Param("shareToken")

	node, err := h.shareService.Resolve(token)
	if err != nil {
		if errors.Is(err, services.ErrShareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Share not found",
				"token": token,
			})
			return
		}
		log.Printf("Error resolving share %s: %v", token, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resolve share",
			"token": token,
		})
		return
	}

	body := gin.H{
		"token":     node.Token,
		"share_id":  node.ShareID,
		"name":      node.Name,
		"is_folder": node.IsFolder,
		"type":      node.Type(),
	}
	if node.IsFolder {
		structure, err := h.shareService.Structure(token)
		if err != nil {
			log.Printf("Error reading folder structure for %s: %v", token, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to read folder structure",
				"token": token,
			})
			return
		}
		body["structure"] = structure
	} else {
		body["mime_type"] = node.MimeType
	}
	c.JSON(http.StatusOK, body)
}

// GetShareType returns the classified type of a share token
func (h *ShareHandler) GetShareType(c *gin.Context) {
	token := c.Param("shareToken")

	node, err := h.shareService.Resolve(token)
	if err != nil {
		if errors.Is(err, services.ErrShareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Share not found",
				"token": token,
			})
			return
		}
		log.Printf("Error resolving share %s: %v", token, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resolve share",
			"token": token,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":     node.Type(),
		"token":    token,
		"share_id": node.ShareID,
	})
}

// GetFolderStructure returns the organized folder tree for a folder
// share, with the well-known folders pulled out into their own buckets
func (h *ShareHandler) GetFolderStructure(c *gin.Context) {
	token := c.Param("shareToken")

	structure, err := h.shareService.Structure(token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrShareNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Share not found",
				"token": token,
			})
		case errors.Is(err, services.ErrNotAFolder):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Share is not a folder",
				"type":  types.ShareTypeFile,
			})
		default:
			log.Printf("Error reading folder structure for %s: %v", token, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to read folder structure",
				"token": token,
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"structure": structure,
	})
}
