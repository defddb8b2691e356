package cluster

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
	router := r.Group("/clusters")
	router.Use(authenticationMiddleware.TokenAuthentication, accessControlMiddleware.RequireOperator)

	router.POST("", handler.Create)
	router.GET("", handler.FindAll)
	router.GET("/:id", handler.Find)
	router.DELETE("/:id", handler.Delete)
	router.POST("/:id/nodes", handler.AddNode)
	router.DELETE("/:id/nodes/:nodeId", handler.RemoveNode)
}
