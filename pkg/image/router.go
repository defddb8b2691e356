package image

import (
	"github.com/gin-gonic/gin"
)

type AuthenticationMiddleware interface {
	TokenAuthentication(context *gin.Context)
}

type AccessControlMiddleware interface {
	RequireOperator(context *gin.Context)
}

func Routes(r gin.IRouter, authenticationMiddleware AuthenticationMiddleware, accessControlMiddleware AccessControlMiddleware, handler Handler) {
	router := r.Group("/images")
	router.Use(authenticationMiddleware.TokenAuthentication, accessControlMiddleware.RequireOperator)

	router.GET("", handler.FindAll)
}
