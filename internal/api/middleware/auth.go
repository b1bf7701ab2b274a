package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/api/respond"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the caller's API key
const APIKeyHeader = "X-API-Key"

// APIKey rejects requests without a configured key. A missing header is
// 401, an unknown key 403, and a server with no keys at all answers 500.
func APIKey(keys []string) gin.HandlerFunc {
	accepted := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			accepted = append(accepted, []byte(k))
		}
	}

	return func(c *gin.Context) {
		if len(accepted) == 0 {
			respond.Error(c, apperr.Configuration("no API keys configured"))
			return
		}

		presented := strings.TrimSpace(c.GetHeader(APIKeyHeader))
		if presented == "" {
			respond.Error(c, apperr.New(apperr.CategoryUnauthorized, "missing "+APIKeyHeader+" header"))
			return
		}

		if !keyAccepted(accepted, []byte(presented)) {
			respond.Error(c, apperr.New(apperr.CategoryForbidden, "invalid API key"))
			return
		}
		c.Next()
	}
}

func keyAccepted(accepted [][]byte, presented []byte) bool {
	match := 0
	for _, key := range accepted {
		match |= subtle.ConstantTimeCompare(key, presented)
	}
	return match == 1
}
