package rbac

import (
	"fmt"
	"slices"
)

// 权限常量
const (
	PermissionReadOwn      = "own:read"
	PermissionWriteOwn     = "own:write"
	PermissionReplayOutbox = "outbox:replay"
)

// 角色常量
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleUser: {
		PermissionReadOwn,
		PermissionWriteOwn,
	},
	RoleAdmin: {
		PermissionReadOwn,
		PermissionWriteOwn,
		PermissionReplayOutbox,
	},
}

// NormalizeRole maps the token's role claim onto a known role; anything
// unrecognised is treated as a plain user.
func NormalizeRole(role string) string {
	if _, ok := rolePermissions[role]; ok {
		return role
	}
	return RoleUser
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role, permission string) bool {
	return slices.Contains(rolePermissions[NormalizeRole(role)], permission)
}

// CheckPermission 返回错误而不是布尔值，便于处理
func CheckPermission(userID, role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			UserID:     userID,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	UserID     string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("user %s lacks permission %s", e.UserID, e.Permission)
}
