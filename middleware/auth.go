package middleware

import (
	"net/http"
	"strings"

	"GridSync/tools/errs"
	"GridSync/tools/security"

	"github.com/gin-gonic/gin"
)

// Context keys read by downstream handlers.
const (
	CtxUserID      = "userId"
	CtxDisplayName = "displayName"
	CtxColor       = "color"
)

// Auth verifies the request's JWT and stores the identity in the gin
// context. Accepts "Authorization: Bearer <tok>" or a ?token= query
// param (the websocket upgrade path cannot set headers from browsers).
func Auth(opts security.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abortWith(c, errs.ErrUnauthorized.WithDetail("missing token"))
			return
		}
		id, err := security.Verify(opts, token)
		if err != nil {
			abortWith(c, errs.ErrUnauthorized.WithDetail(err.Error()))
			return
		}
		c.Set(CtxUserID, id.UserID)
		c.Set(CtxDisplayName, id.DisplayName)
		c.Set(CtxColor, id.Color)
		c.Next()
	}
}

func BearerToken(c *gin.Context) string {
	if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return strings.TrimSpace(authz[len("bearer "):])
		}
	}
	return strings.TrimSpace(c.Query("token"))
}

// Identity reads the authenticated identity back out of the context.
func Identity(c *gin.Context) security.Identity {
	return security.Identity{
		UserID:      c.GetString(CtxUserID),
		DisplayName: c.GetString(CtxDisplayName),
		Color:       c.GetString(CtxColor),
	}
}

func abortWith(c *gin.Context, err error) {
	code, msg := errs.Payload(err)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": code, "msg": msg})
}

// RespondErr writes a REST error response with the mapped status.
func RespondErr(c *gin.Context, err error) {
	code, msg := errs.Payload(err)
	c.JSON(errs.HTTPStatus(err), gin.H{"code": code, "msg": msg})
}
