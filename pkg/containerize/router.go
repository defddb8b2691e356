package containerize

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
	router := r.Group("/containerize")
	router.Use(authenticationMiddleware.TokenAuthentication, accessControlMiddleware.RequireOperator)

	router.GET("", handler.Overview)
	router.GET("/nodes", handler.FindNodes)
	router.POST("/nodes", handler.CreateNode)
	router.GET("/proxies", handler.FindProxies)
	router.POST("/proxies", handler.CreateProxy)
	router.GET("/hosts/:pod", handler.FindHosts)
	router.GET("/units", handler.FindUnits)
	router.POST("/revive", handler.Revive)
	router.POST("/remove", handler.Remove)
}
