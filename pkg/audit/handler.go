package audit

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/handler"
	"github.com/redisctl/im-redis/pkg/model"
)

func NewHandler(auditService auditService) Handler {
	return Handler{auditService}
}

type Handler struct {
	auditService auditService
}

type auditService interface {
	FindAll(ctx context.Context, offset, limit int) ([]model.Audit, error)
	Subscribe() (uint64, <-chan model.Audit)
	Unsubscribe(id uint64)
}

// FindAll audits
func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /audits findAllAudits
	//
	// Find audits
	//
	// Find audits of containerized units, most recent first. Pages hold 20 audits.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Audits
	//   400: Error
	//   401: Error
	//   403: Error
	page, err := handler.GetPage(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	audits, err := h.auditService.FindAll(c.Request.Context(), page*handler.PageSize, handler.PageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, audits)
}

// Stream audits
func (h Handler) Stream(c *gin.Context) {
	// swagger:route GET /audits/stream streamAudits
	//
	// Stream audits
	//
	// Stream audits as server sent events. The event type is the audit event.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Stream
	//   401: Error
	//   403: Error
	id, audits := h.auditService.Subscribe()
	defer h.auditService.Unsubscribe(id)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case audit, ok := <-audits:
			if !ok {
				return false
			}
			c.SSEvent(string(audit.Event), audit)
			return true
		}
	})
}
