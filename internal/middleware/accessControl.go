package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/redisctl/im-redis/internal/handler"
)

func NewAccessControl(logger *slog.Logger) AccessControlMiddleware {
	return AccessControlMiddleware{logger: logger}
}

// AccessControlMiddleware gates the routes of the admin panel. It needs to run after
// [AuthenticationMiddleware.TokenAuthentication].
type AccessControlMiddleware struct {
	logger *slog.Logger
}

// RequireOperator aborts with 403 unless the user is an administrator or an operator.
func (m AccessControlMiddleware) RequireOperator(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(errdef.NewForbidden("access denied"))
		c.Abort()
		return
	}

	if !user.CanOperate() {
		m.logger.WarnContext(c.Request.Context(), "User tried to access operator restricted endpoint", "user", user.ID)
		_ = c.Error(errdef.NewForbidden("access denied"))
		c.Abort()
		return
	}

	c.Next()
}
