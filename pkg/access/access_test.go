package access

import (
	"testing"

	"github.com/medibill/pos-backend/pkg/enums"
)

func TestAuthorizeMatrix(t *testing.T) {
	all := []Permission{
		PermissionDashboard, PermissionPOS, PermissionCustomers, PermissionSettings,
		PermissionInventory, PermissionReports,
		PermissionAdminDashboard, PermissionUserManagement, PermissionAdminReports,
	}
	allowed := map[enums.Role]map[Permission]bool{
		enums.RoleCashier: {
			PermissionDashboard: true, PermissionPOS: true, PermissionCustomers: true, PermissionSettings: true,
		},
		enums.RoleManager: {
			PermissionDashboard: true, PermissionPOS: true, PermissionCustomers: true, PermissionSettings: true,
			PermissionInventory: true, PermissionReports: true,
		},
		enums.RoleAdmin: {
			PermissionDashboard: true, PermissionPOS: true, PermissionCustomers: true, PermissionSettings: true,
			PermissionInventory: true, PermissionReports: true,
			PermissionAdminDashboard: true, PermissionUserManagement: true, PermissionAdminReports: true,
		},
	}

	for role, want := range allowed {
		for _, perm := range all {
			if got := Authorize(role, perm); got != want[perm] {
				t.Fatalf("Authorize(%s, %s) = %v, want %v", role, perm, got, want[perm])
			}
		}
	}
}

func TestUnknownRoleHasNoPermissions(t *testing.T) {
	if Authorize(enums.Role("pharmacist"), PermissionPOS) {
		t.Fatal("unknown role must not be authorized")
	}
	if len(Permissions("")) != 0 {
		t.Fatal("empty role must have no permissions")
	}
}

func TestPermissionsMenuOrder(t *testing.T) {
	got := Permissions(enums.RoleManager)
	want := []Permission{PermissionDashboard, PermissionPOS, PermissionCustomers, PermissionSettings, PermissionInventory, PermissionReports}
	if len(got) != len(want) {
		t.Fatalf("expected %d permissions, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s got %s", i, want[i], got[i])
		}
	}

	got[0] = PermissionAdminReports
	if Permissions(enums.RoleManager)[0] != PermissionDashboard {
		t.Fatal("Permissions must return a copy")
	}
	if !PermissionReports.IsValid() || Permission("billing").IsValid() {
		t.Fatal("unexpected IsValid result")
	}
}
