package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/redisctl/im-redis/internal/errdef"
)

// DataBinder binds the request body into req. The forms of the admin panel are posted url encoded
// so next to JSON and multipart forms these are accepted as well.
func DataBinder(c *gin.Context, req any) error {
	switch c.ContentType() {
	case binding.MIMEJSON, binding.MIMEMultipartPOSTForm, binding.MIMEPOSTForm:
	default:
		return errdef.NewUnsupportedMediaType("%s only accepts content of type %s, %s or %s", c.FullPath(), binding.MIMEJSON, binding.MIMEMultipartPOSTForm, binding.MIMEPOSTForm)
	}

	if err := c.ShouldBind(req); err != nil {
		message := fmt.Sprintf("Error binding data: %+v\n", err)
		return errdef.NewBadRequest("%s", message)
	}

	return nil
}
