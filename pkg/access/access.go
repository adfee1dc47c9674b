// Package access maps staff roles to the screens and API areas they may use.
package access

import (
	"slices"

	"github.com/medibill/pos-backend/pkg/enums"
)

// Permission names one screen of the terminal and the API area behind it.
type Permission string

const (
	PermissionDashboard      Permission = "dashboard"
	PermissionPOS            Permission = "pos"
	PermissionCustomers      Permission = "customers"
	PermissionSettings       Permission = "settings"
	PermissionInventory      Permission = "inventory"
	PermissionReports        Permission = "reports"
	PermissionAdminDashboard Permission = "admin_dashboard"
	PermissionUserManagement Permission = "user_management"
	PermissionAdminReports   Permission = "admin_reports"
)

var (
	staffPermissions = []Permission{
		PermissionDashboard,
		PermissionPOS,
		PermissionCustomers,
		PermissionSettings,
	}
	managerPermissions = append(slices.Clone(staffPermissions),
		PermissionInventory,
		PermissionReports,
	)
	adminPermissions = append(slices.Clone(managerPermissions),
		PermissionAdminDashboard,
		PermissionUserManagement,
		PermissionAdminReports,
	)

	matrix = map[enums.Role][]Permission{
		enums.RoleCashier: staffPermissions,
		enums.RoleManager: managerPermissions,
		enums.RoleAdmin:   adminPermissions,
	}
)

func (p Permission) String() string {
	return string(p)
}

func (p Permission) IsValid() bool {
	return slices.Contains(adminPermissions, p)
}

// Authorize reports whether role may use permission. Unknown roles get nothing.
func Authorize(role enums.Role, permission Permission) bool {
	return slices.Contains(matrix[role], permission)
}

// Permissions lists what role may use, in menu order.
func Permissions(role enums.Role) []Permission {
	return slices.Clone(matrix[role])
}
