package rbac

// 权限常量
const (
	PermissionRunSweep      = "recurrence:sweep"
	PermissionForceSweep    = "recurrence:sweep:force"
	PermissionRecalcGoals   = "goal:recalculate"
	PermissionBootstrapGoal = "goal:bootstrap"
)

// 角色常量
const (
	// RoleScheduler 外部定时调度器，只能触发普通 sweep 和目标重算
	RoleScheduler = "scheduler"
	// RoleAdmin 运维 / 前端按需触发，允许 force
	RoleAdmin = "admin"
)

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleScheduler: {
		PermissionRunSweep,
		PermissionRecalcGoals,
	},
	RoleAdmin: {
		PermissionRunSweep,
		PermissionForceSweep,
		PermissionRecalcGoals,
		PermissionBootstrapGoal,
	},
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role string, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission 检查角色是否有指定权限（返回错误而不是布尔值，便于处理）
func CheckPermission(subject, role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Subject:    subject,
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	Subject    string
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions: " + e.Permission
}
