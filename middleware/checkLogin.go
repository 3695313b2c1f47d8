package middleware

import (
	"net/http"

	"Pedalize/models"

	"github.com/gin-gonic/gin"
)

const codeNotLoggedIn = 6001

// 檢查是否有登入，沒有則中止請求
func CheckLoginMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentClientID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewApiError(codeNotLoggedIn, "Login required"))
			return
		}

		c.Next()
	}
}
