package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/api/respond"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/agent"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// IngestAgentCard ingests an A2A agent card by URL
func (h *Handlers) IngestAgentCard(c *gin.Context) {
	h.ingest(c, agent.KindAgentCard, "url", "agentCardUrl", "tokenUri")
}

// IngestRegistration ingests an ERC-8004 registration file by token URI
func (h *Handlers) IngestRegistration(c *gin.Context) {
	h.ingest(c, agent.KindRegistration, "tokenUri", "url")
}

func (h *Handlers) ingest(c *gin.Context, kind agent.SourceKind, fields ...string) {
	uri, err := sourceURI(c, fields)
	if err != nil {
		respond.Error(c, err)
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), agent.Source{URI: uri, Kind: kind})
	if err != nil {
		respond.Error(c, err)
		return
	}

	var mintTx interface{}
	if result.MintTx != "" {
		mintTx = result.MintTx
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"nftId":           result.SubjectID,
		"mintTransaction": mintTx,
		"timestamp":       result.Timestamp.Format(time.RFC3339),
		"status":          result.Status,
		"message":         statusMessage(result.Status),
	})
}

// ListAgents lists registered agents, paginated when page or limit is given
func (h *Handlers) ListAgents(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		respond.Error(c, err)
		return
	}

	listing, err := h.service.ListAgents(c.Request.Context(), page)
	if err != nil {
		respond.Error(c, err)
		return
	}

	body := gin.H{
		"success": true,
		"agents":  listing.Agents,
		"total":   listing.Total,
	}
	if page != nil {
		body["page"] = page.Page
		body["limit"] = page.Limit
	}
	c.JSON(http.StatusOK, body)
}

// GetAgent returns the view of one agent
func (h *Handlers) GetAgent(c *gin.Context) {
	v, err := h.service.GetAgent(c.Request.Context(), c.Param("nftId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"agent":   v,
	})
}

// ListUnsynced lists identities minted without a synced record
func (h *Handlers) ListUnsynced(c *gin.Context) {
	entries, err := h.service.Unsynced(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"entries": entries,
		"total":   len(entries),
	})
}

// sourceURI reads the document location from a JSON body holding one of
// fields, a JSON string, or a raw-text URL
func sourceURI(c *gin.Context, fields []string) (string, error) {
	raw, err := readBody(c)
	if err != nil {
		return "", err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", apperr.Validation("a url or tokenUri is required")
	}

	if raw[0] != '{' && raw[0] != '"' {
		return string(raw), nil
	}

	doc, err := jsonv.Parse(raw)
	if err != nil {
		return "", apperr.Validation("body is not valid JSON: %v", err)
	}
	if doc.Kind() == jsonv.String {
		return doc.Str(), nil
	}
	for _, field := range fields {
		if s, ok := doc.LookupString(field); ok && strings.TrimSpace(s) != "" {
			return s, nil
		}
	}
	return "", apperr.Validation("body must contain one of %s", strings.Join(fields, ", "))
}

func parsePage(c *gin.Context) (*agent.Page, error) {
	pageParam, hasPage := c.GetQuery("page")
	limitParam, hasLimit := c.GetQuery("limit")
	if !hasPage && !hasLimit {
		return nil, nil
	}

	page := &agent.Page{Page: 1, Limit: defaultPageLimit}
	if hasPage {
		n, err := strconv.Atoi(pageParam)
		if err != nil || n < 1 {
			return nil, apperr.Validation("page must be a positive integer")
		}
		page.Page = n
	}
	if hasLimit {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n < 1 || n > maxPageLimit {
			return nil, apperr.Validation("limit must be between 1 and %d", maxPageLimit)
		}
		page.Limit = n
	}
	return page, nil
}
