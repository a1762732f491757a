package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"craz-web-meta/pkg/jwt"
	"craz-web-meta/pkg/response"
)

// 注入 gin.Context 的调用方信息
const (
	ctxKeyCaller = "caller"
	ctxKeyScope  = "scope"
)

// callerStatic 使用静态令牌的调用方
const callerStatic = "static"

// BearerAuth Bearer 认证中间件
// 接受 Authorization: Bearer <secret_token>；jwtMgr 已启用时也接受其签发的服务令牌
func BearerAuth(secretToken string, jwtMgr *jwt.Manager) gin.HandlerFunc {
	secret := []byte(secretToken)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(c, "Unauthorized")
			return
		}
		token := parts[1]

		if len(secret) > 0 && subtle.ConstantTimeCompare([]byte(token), secret) == 1 {
			c.Set(ctxKeyCaller, callerStatic)
			c.Next()
			return
		}

		if jwtMgr != nil && jwtMgr.Enabled() {
			if claims, err := jwtMgr.ParseToken(token); err == nil {
				c.Set(ctxKeyCaller, claims.Subject)
				c.Set(ctxKeyScope, claims.Scope)
				c.Next()
				return
			}
		}

		response.Unauthorized(c, "Invalid token")
	}
}

// Caller 返回已认证调用方标识，未认证时为空
func Caller(c *gin.Context) string {
	return c.GetString(ctxKeyCaller)
}

// RequireScope 限制服务令牌可访问的模块，需挂在 BearerAuth 之后
// 静态令牌与未声明 scope 的令牌不受限；声明了 scope 的令牌必须包含 required
func RequireScope(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted := c.GetString(ctxKeyScope)
		if granted == "" {
			c.Next()
			return
		}
		for _, s := range strings.Fields(granted) {
			if s == required {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "Insufficient scope")
	}
}
