package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/flashorder/pkg/errors"
	"github.com/xiebiao/flashorder/pkg/response"
)

const (
	// UserIDHeader 网关完成认证后注入的用户ID
	UserIDHeader = "X-User-ID"

	userIDKey = "user_id"
)

// Identity 解析X-User-ID，缺失或非法时视为匿名
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(UserIDHeader); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
				c.Set(userIDKey, uint(id))
			}
		}
		c.Next()
	}
}

// RequireUser 要求请求携带用户身份
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID 当前用户ID，匿名返回0
func GetUserID(c *gin.Context) uint {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// MustGetUserID 只能在RequireUser之后使用
func MustGetUserID(c *gin.Context) uint {
	id := GetUserID(c)
	if id == 0 {
		panic("user_id not found in context")
	}
	return id
}
