package middleware

import (
	"net/http"
	"strings"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
	"github.com/charbel0004/Unishelf-sub000/internal/security"

	"github.com/gin-gonic/gin"
)

const principalKey = "unishelf.principal"

// TokenParser turns a raw bearer token into the caller's identity.
type TokenParser interface {
	Parse(raw string) (*security.Principal, error)
}

type Authz struct {
	tokens TokenParser
}

func NewAuthz(tokens TokenParser) *Authz {
	return &Authz{tokens: tokens}
}

// Authenticate parses a bearer token when one is sent. Requests without an
// Authorization header pass through anonymously; a malformed or invalid
// token is rejected.
func (a *Authz) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}
		p, err := a.tokens.Parse(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			unauth(c, "invalid_token", "invalid jwt")
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// Require rejects anonymous callers, and callers whose role is not listed
// when roles are given.
func (a *Authz) Require(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)
		if p == nil {
			unauth(c, "invalid_request", "authentication required")
			return
		}
		if len(roles) > 0 && !hasRole(p.Role, roles) {
			forbidden(c, "insufficient_scope", "role "+string(p.Role)+" is not allowed")
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated caller, or nil for anonymous requests.
func Principal(c *gin.Context) *security.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*security.Principal)
	return p
}

func hasRole(have domain.Role, allowed []domain.Role) bool {
	for _, r := range allowed {
		if r == have {
			return true
		}
	}
	return false
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}

func forbidden(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code, "error_description": desc})
}
