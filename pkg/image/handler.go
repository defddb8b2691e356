package image

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/redisctl/im-redis/pkg/model"
)

func NewHandler(imageService Service) Handler {
	return Handler{imageService}
}

type Handler struct {
	imageService Service
}

// FindAll images
func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /images findAllImages
	//
	// Find images
	//
	// Find the images units can be deployed with, optionally of a single kind.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Images
	//   400: Error
	//   401: Error
	//   403: Error
	kind := model.ImageKind(c.Query("kind"))
	if kind != "" && kind != model.RedisImage && kind != model.ProxyImage {
		_ = c.Error(errdef.NewBadRequest("invalid image kind %q", kind))
		return
	}

	images, err := h.imageService.FindAll(c.Request.Context(), kind)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, images)
}
