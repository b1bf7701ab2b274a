package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/agent"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxBodyBytes bounds every request body read by the handlers
const maxBodyBytes = 1 << 20

// Handlers contains all HTTP handlers
type Handlers struct {
	service *agent.Service
	account string
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandlers creates a new handler set. account is the signer address
// reported by /health; it may be empty when minting is not configured.
func NewHandlers(service *agent.Service, account string, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		service: service,
		account: account,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Root handles the informational endpoint
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "agent-registry-gateway",
	})
}

// Health handles health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.now().Format(time.RFC3339),
		"account":   h.account,
	})
}

func readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	raw, err := c.GetRawData()
	if err != nil {
		return nil, apperr.Wrap(apperr.CategoryValidation, "reading request body failed", err)
	}
	return raw, nil
}
