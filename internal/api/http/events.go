package http

import (
	"net/http"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/api/respond"
	"github.com/gin-gonic/gin"
)

// IngestEvent accepts a community webhook delivery
func (h *Handlers) IngestEvent(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		respond.Error(c, err)
		return
	}

	result, err := h.service.IngestEvent(c.Request.Context(), raw)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"type":    result.Type,
		"subject": result.Subject,
		"status":  result.Status,
		"message": statusMessage(result.Status),
	})
}
