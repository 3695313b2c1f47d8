package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func CorsMiddleware(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Authorization", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 萬用來源不帶憑證，Cookie與Authorization只對列出的來源開放
	if len(origins) == 1 && origins[0] == "*" {
		config.AllowAllOrigins = true
		config.AllowCredentials = false
	} else {
		config.AllowOrigins = origins
	}

	return cors.New(config)
}
