package audit

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
	router := r.Group("/audits")
	router.Use(authenticationMiddleware.TokenAuthentication, accessControlMiddleware.RequireOperator)

	router.GET("", handler.FindAll)
	router.GET("/stream", handler.Stream)
}
