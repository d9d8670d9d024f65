package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/juliosud/yummo4-sub000/utils"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		// query tidak dicatat karena berisi kode sesi
		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"ip":      c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			utils.ErrorLogger.WithFields(fields).Error(c.Errors.String())
			return
		}
		utils.InfoLogger.WithFields(fields).Info("request")
	}
}
