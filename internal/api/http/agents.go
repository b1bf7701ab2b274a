package http

import (
	"net/http"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/api/respond"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/syncer"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/ledger"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
	"github.com/gin-gonic/gin"
)

// SearchRequest is the body of POST /agents/search
type SearchRequest struct {
	Criteria        []ledger.Criterion `json:"criteria" binding:"required,min=1"`
	TrustedAccounts []string           `json:"trustedAccounts"`
}

// RegisterAgents syncs a batch of caller-identified descriptors
func (h *Handlers) RegisterAgents(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	body, err := jsonv.Parse(raw)
	if err != nil {
		respond.Error(c, apperr.Validation("body is not valid JSON: %v", err))
		return
	}

	result, err := h.service.RegisterDescriptors(c.Request.Context(), body)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"subjects": result.Subjects,
		"status":   result.Status,
		"message":  statusMessage(result.Status),
	})
}

// SearchAgents returns subjects matching every criterion
func (h *Handlers) SearchAgents(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, apperr.Validation("invalid search request: %v", err))
		return
	}

	results, err := h.service.Search(c.Request.Context(), req.Criteria, req.TrustedAccounts)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
	})
}

func statusMessage(status syncer.Status) string {
	if status == syncer.StatusAlreadyExists {
		return "already exists, nothing to do"
	}
	return "synced"
}
