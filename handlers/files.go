package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"waveplay/services"

	"github.com/gin-gonic/gin"
)

// FileHandler serves the byte streams for shared files
type FileHandler struct {
	shareService services.ShareService
}

// NewFileHandler creates a new file handler
func NewFileHandler(ss services.ShareService) *FileHandler {
	return &FileHandler{
		shareService: ss,
	}
}

// Download streams a shared file with support for range requests. For a
// folder share the path query selects the file inside it; for a file
// share the path is empty and the shared file itself is streamed.
func (h *FileHandler) Download(c *gin.Context) {
	token := c.Param("shareToken")
	relPath := c.Query("path")

	if relPath != "" {
		if err := h.shareService.ValidateFilePath(relPath); err != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "path security violation",
				"details": err.Error(),
			})
			return
		}
	}

	file, info, err := h.shareService.OpenFile(token, relPath)
	if err != nil {
		if errors.Is(err, services.ErrShareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Share not found",
				"token": token,
			})
			return
		}
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "file not found",
				"path":  relPath,
			})
			return
		}
		log.Printf("Error opening shared file %s/%s: %v", token, relPath, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "file access error",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	name := info.Name()
	c.Header("Content-Type", h.shareService.ContentType(name))
	c.Header("Content-Length", strconv.FormatInt(info.Size(), 10))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))

	rangeHeader := c.GetHeader("Range")
	if rangeHeader != "" {
		h.handleRangeRequest(c, file, info.Size(), rangeHeader, name)
		return
	}

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		log.Printf("Error streaming file %s: %v", name, err)
	}
}

// handleRangeRequest handles HTTP range requests for efficient seeking
func (h *FileHandler) handleRangeRequest(c *gin.Context, file *os.File, fileSize int64, rangeHeader string, fileName string) {
	// Parse range header (e.g., "bytes=0-1023" or "bytes=1024-")
	if !strings.HasPrefix(rangeHeader, "bytes=") {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	rangeSpec := strings.TrimPrefix(rangeHeader, "bytes=")
	ranges := strings.Split(rangeSpec, "-")

	if len(ranges) != 2 {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	var start, end int64
	var err error

	if ranges[0] != "" {
		start, err = strconv.ParseInt(ranges[0], 10, 64)
		if err != nil || start < 0 {
			c.Status(http.StatusRequestedRangeNotSatisfiable)
			return
		}
	}

	if ranges[1] != "" {
		end, err = strconv.ParseInt(ranges[1], 10, 64)
		if err != nil || end < start {
			c.Status(http.StatusRequestedRangeNotSatisfiable)
			return
		}
	} else {
		end = fileSize - 1
	}

	if start >= fileSize {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if end >= fileSize {
		end = fileSize - 1
	}

	contentLength := end - start + 1

	if _, err = file.Seek(start, 0); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to seek file",
		})
		return
	}

	c.Header("Content-Type", h.shareService.ContentType(fileName))
	c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")
	c.Status(http.StatusPartialContent)

	if _, err = io.CopyN(c.Writer, file, contentLength); err != nil {
		log.Printf("Error streaming range %d-%d: %v", start, end, err)
	}
}
