package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/juliosud/yummo4-sub000/services"
	"github.com/juliosud/yummo4-sub000/utils"
)

const sessionContextKey = "sessionContext"

// SessionGuard blocks customer routes unless the table and session query
// parameters name a live session of that table.
func SessionGuard(guard *services.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := services.NewSessionContext(c.Query("table"), c.Query("session"))
		decision := guard.Evaluate(c.Request.Context(), sc)
		if !decision.Allowed() {
			utils.InfoLogger.WithFields(logrus.Fields{
				"table":  sc.TableID,
				"reason": decision.Reason,
				"path":   c.Request.URL.Path,
			}).Info("customer request blocked")
			utils.RespondErrorData(c, http.StatusForbidden, errors.New(decision.Message), decision)
			c.Abort()
			return
		}

		c.Set(sessionContextKey, sc)
		c.Next()
	}
}

// CurrentSession returns the session context stored by SessionGuard.
func CurrentSession(c *gin.Context) (services.SessionContext, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return services.SessionContext{}, false
	}
	sc, ok := v.(services.SessionContext)
	return sc, ok
}
