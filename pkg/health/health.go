package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health returns the service status
func Health(c *gin.Context) {
	// swagger:route GET /health health
	//
	// Service health status
	//
	// Show service health status
	//
	// Responses:
	//	200: Health
	c.JSON(http.StatusOK, gin.H{
		"status": "up",
	})
}

// swagger:response Health
type _ struct {
	// in: body
	Body struct {
		Status string `json:"status"`
	}
}
