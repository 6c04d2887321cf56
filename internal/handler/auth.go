package handler

import (
	"errors"

	"focusflow/pkg/rbac"
	"focusflow/pkg/util"

	"github.com/gin-gonic/gin"
)

// ContextKeyClaims 认证中间件写入的上下文键
const ContextKeyClaims = "claims"

var errNotAuthenticated = errors.New("caller not authenticated")

// requirePermission 在 handler 内部做条件权限检查（例如只有 force 时才需要）
func requirePermission(c *gin.Context, permission string) error {
	claims, ok := Claims(c)
	if !ok {
		return errNotAuthenticated
	}
	return rbac.CheckPermission(claims.Subject, claims.Role, permission)
}

// Claims 取出认证中间件写入的调用方
func Claims(c *gin.Context) (*util.ServiceClaims, bool) {
	v, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*util.ServiceClaims)
	return claims, ok
}
