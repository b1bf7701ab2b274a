// Package respond writes the JSON failure body shared by every endpoint.
package respond

import (
	"fmt"
	"net/http"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/apperr"
	"github.com/gin-gonic/gin"
)

// Failure is the body of every error response
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error aborts the request with the status and body of err's category. The
// error is also attached to the gin context for logging and tracing.
func Error(c *gin.Context, err error) {
	category := apperr.CategoryOf(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(category.HTTPStatus(), Failure{
		Error:   string(category),
		Message: err.Error(),
	})
}

// Status aborts the request with an explicit status and error code
func Status(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Failure{Error: code, Message: message})
}

// Recovery converts panics into an internal_error failure body
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		err := apperr.Newf(apperr.CategoryInternal, "unexpected failure: %v", recovered)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Failure{
			Error:   string(apperr.CategoryInternal),
			Message: fmt.Sprint(recovered),
		})
	})
}
