package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/juliosud/yummo4-sub000/utils"
)

// WebSocketAuthMiddleware membaca token dari query karena browser tidak bisa
// mengirim header Authorization saat upgrade websocket.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		// Validasi token
		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		// Set role dan user_id ke context
		c.Set("role", claims.Role)
		c.Set("userID", claims.UserID)

		c.Next()
	}
}
