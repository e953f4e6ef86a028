package http

import (
	"github.com/gin-gonic/gin"
	"github.com/splitsecure/go-webauthn-rp/service"
)

// SetupRouter sets up the Gin router for the ceremony API.
func SetupRouter(ceremonies *service.CeremonyService) *gin.Engine {
	router := gin.Default()

	handlers := NewCeremonyHandlers(ceremonies)

	register := router.Group("/register")
	{
		register.POST("/options", handlers.RegisterOptions)
		register.POST("/verify", handlers.RegisterVerify)
	}

	auth := router.Group("/auth")
	{
		auth.POST("/options", handlers.AuthOptions)
		auth.POST("/verify", handlers.AuthVerify)
	}

	return router
}
