package handlers

import (
	"net/http"

	"backsync/internal/logsink"

	"github.com/gin-gonic/gin"
)

// LogHandler serves the append-only sync log to administrators.
type LogHandler struct {
	sink *logsink.Sink
}

func NewLogHandler(sink *logsink.Sink) *LogHandler {
	return &LogHandler{sink: sink}
}

func (h *LogHandler) View(c *gin.Context) {
	content, err := h.sink.Read()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read sync log"})
		return
	}
	c.String(http.StatusOK, content)
}

func (h *LogHandler) Download(c *gin.Context) {
	c.FileAttachment(h.sink.Path(), "backsync.log")
}

func (h *LogHandler) Clear(c *gin.Context) {
	if err := h.sink.Truncate(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear sync log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sync log cleared"})
}
