package authz

import "taskflow/internal/models"

// AllRoles lists every role that may sign in.
var AllRoles = []models.Role{models.RoleAdmin, models.RoleDepartmentHead, models.RoleStaff}

func IsAdmin(role models.Role) bool {
	return role == models.RoleAdmin
}

// HasPrivilege reports whether u holds the capability code. Admins hold all of them.
func HasPrivilege(u *models.User, code string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	for _, p := range u.Privileges {
		if p == code {
			return true
		}
	}
	return false
}
