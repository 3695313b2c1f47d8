package middleware

import (
	"log"
	"strings"

	"Pedalize/jwt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	TokenKey     = "Token"
	ClientIDKey  = "ClientID"
	RoleKey      = "Role"
	bearerPrefix = "Bearer "
)

// 有合法Token時寫入ClientID與Role，否則視為未登入繼續處理
func AuthMiddleware(keys *jwt.Keys, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token := strings.TrimPrefix(authHeader, bearerPrefix)

		if token == "" || token == authHeader {
			c.Next()
			return
		}

		//如Token不合法或錯誤則回傳空Authorization
		clientID, role, err := keys.VerifyToken(token, db)
		if err != nil {
			log.Printf("[Auth] %s cannot verify token: %v", RequestID(c), err)
			c.Header("Authorization", "")
			c.Next()
			return
		}

		c.Set(TokenKey, token)
		c.Set(ClientIDKey, clientID)
		c.Set(RoleKey, role)
		c.Next()
	}
}

func CurrentClientID(c *gin.Context) (string, bool) {
	clientID := c.GetString(ClientIDKey)
	return clientID, clientID != ""
}
