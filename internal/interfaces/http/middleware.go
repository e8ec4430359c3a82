package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/insurhub/underwriter/internal/domain/entity"
)

const (
	headerUserID = "X-User-ID"
	headerRole   = "X-Role"

	ctxUserID = "user_id"
	ctxRole   = "role"
)

// identity resolves the caller from gateway-injected headers. A missing or
// malformed X-User-ID rejects the request; the role defaults to USER.
func identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.GetHeader(headerUserID), 10, 64)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid X-User-ID header",
			})
			return
		}

		role := entity.Role(c.GetHeader(headerRole))
		if role == "" {
			role = entity.RoleUser
		}
		if !role.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid X-Role header",
			})
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// requireRole rejects callers whose role does not match.
func requireRole(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, Response{
				Success: false,
				Error:   "insufficient role",
			})
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(int64)
	return id
}

func currentRole(c *gin.Context) entity.Role {
	v, _ := c.Get(ctxRole)
	role, _ := v.(entity.Role)
	return role
}
