package middleware

import (
	"net/http"

	"Pedalize/models"

	"github.com/gin-gonic/gin"
)

const codeForbidden = 6002

// 檢查是否有admin權限，沒有則中止請求
func CheckAdminPermissionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleKey) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, models.NewApiError(codeForbidden, "Admin permission required"))
			return
		}

		c.Next()
	}
}
