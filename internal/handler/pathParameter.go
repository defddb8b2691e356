package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/errdef"
)

// GetPathParameter parses the path parameter of given name as an id.
func GetPathParameter(c *gin.Context, parameter string) (uint, error) {
	idParam := c.Param(parameter)
	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		return 0, errdef.NewBadRequest("error parsing %q: %v", parameter, err)
	}
	return uint(id), nil
}
