package routes

import (
	"net/http"

	"github.com/cantinaverde/cantina/internal/app/controllers"
	"github.com/cantinaverde/cantina/internal/middleware"
	"github.com/cantinaverde/cantina/internal/pkg/websocket"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	tableController *controllers.TableController,
	rpcController *controllers.RPCController,
	functionController *controllers.FunctionController,
	realtimeHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
	loginLimiter gin.HandlerFunc,
) {
	// --- Public routes ---
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/auth")
	{
		auth.POST("/login", loginLimiter, authController.Login)
		auth.GET("/me", authMiddleware.JWTAuth(), authController.Me)
	}

	// --- Authenticated routes ---
	authenticated := router.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	api := authenticated.Group("/api")
	{
		api.GET("/:table", tableController.List)
		api.POST("/:table", tableController.Create)
		api.GET("/:table/:id", tableController.Get)
		api.PUT("/:table/:id", tableController.Update)
		api.PATCH("/:table/:id", tableController.Update)
		api.DELETE("/:table/:id", tableController.Delete)
	}

	authenticated.POST("/rpc/:name", rpcController.Call)
	authenticated.POST("/functions/:name", functionController.Invoke)

	router.GET("/realtime", authMiddleware.WebSocketAuth(), realtimeHandler.HandleConnection)
}
