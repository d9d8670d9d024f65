package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/utils"
)

// RoleCheck guards /ws/:role so a client can only join as a role it holds.
func RoleCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.Param("role")
		userRole, exists := c.Get("role")

		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		// Validasi role
		switch role {
		case models.RoleAdmin:
			if userRole != models.RoleAdmin {
				utils.RespondError(c, http.StatusForbidden, fmt.Errorf("admin access required"))
				c.Abort()
				return
			}
		case models.RoleChef:
			if userRole != models.RoleChef && userRole != models.RoleAdmin {
				utils.RespondError(c, http.StatusForbidden, fmt.Errorf("chef access required"))
				c.Abort()
				return
			}
		case models.RoleStaff:
			if userRole != models.RoleStaff && userRole != models.RoleAdmin {
				utils.RespondError(c, http.StatusForbidden, fmt.Errorf("staff access required"))
				c.Abort()
				return
			}
		default:
			utils.RespondError(c, http.StatusNotFound, fmt.Errorf("unknown role %q", role))
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRoles lets the request through when the token role is one of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("role")
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}
		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}
		utils.RespondError(c, http.StatusForbidden, fmt.Errorf("role %v is not allowed here", userRole))
		c.Abort()
	}
}
