package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/errdef"
)

// PageSize is the number of items listed per page.
const PageSize = 20

// GetPage returns the zero based page given by the "page" query parameter. The first page is
// returned if the parameter is absent.
func GetPage(c *gin.Context) (int, error) {
	pageParam := c.Query("page")
	if pageParam == "" {
		return 0, nil
	}

	page, err := strconv.Atoi(pageParam)
	if err != nil || page < 0 {
		return 0, errdef.NewBadRequest("invalid page %q", pageParam)
	}
	return page, nil
}
