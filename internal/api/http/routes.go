package http

import (
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

// Register mounts every route on router. Webhook and ingestion routes
// require one of apiKeys.
func (h *Handlers) Register(router gin.IRouter, apiKeys []string) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	router.POST("/agents", h.RegisterAgents)
	router.POST("/agents/search", h.SearchAgents)

	auth := middleware.APIKey(apiKeys)

	router.POST("/v1/intuition/events", auth, h.IngestEvent)

	mother := router.Group("/v1/mother", auth)
	mother.POST("/agent", h.IngestAgentCard)
	mother.POST("/erc8004", h.IngestRegistration)
	mother.GET("/agents", h.ListAgents)
	mother.GET("/agent/:nftId", h.GetAgent)
	mother.GET("/unsynced", h.ListUnsynced)
}
