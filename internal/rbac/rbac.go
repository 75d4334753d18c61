// Package rbac decides which operations a role may perform.
//
// Roles are ordered Officer < Manager < Admin. Admin holds every permission,
// the other roles consult a fixed allow-list that is built once at start.
package rbac

import "strings"

type Role string

const (
	Officer Role = "Officer"
	Manager Role = "Manager"
	Admin   Role = "Admin"
)

type Permission string

const (
	TicketsView   Permission = "tickets.view"
	TicketsCreate Permission = "tickets.create"
	TicketsSettle Permission = "tickets.settle"
	TicketsUpdate Permission = "tickets.update"
	TicketsDelete Permission = "tickets.delete"

	PassesView   Permission = "passes.view"
	PassesCreate Permission = "passes.create"
	PassesUpdate Permission = "passes.update"
	PassesDelete Permission = "passes.delete"

	AnalyticsView   Permission = "analytics.view"
	AnalyticsExport Permission = "analytics.export"

	RatesView   Permission = "rates.view"
	RatesUpdate Permission = "rates.update"

	UsersView   Permission = "users.view"
	UsersCreate Permission = "users.create"
	UsersUpdate Permission = "users.update"
	UsersDelete Permission = "users.delete"

	ShiftsView    Permission = "shifts.view"
	ShiftsManage  Permission = "shifts.manage"
	ShiftsViewAll Permission = "shifts.view_all"

	MapView Permission = "map.view"

	VehiclesView   Permission = "vehicles.view"
	VehiclesUpdate Permission = "vehicles.update"

	SettingsView   Permission = "settings.view"
	SettingsUpdate Permission = "settings.update"

	AuditView Permission = "audit.view"
)

var hierarchy = []Role{Officer, Manager, Admin}

var officerPermissions = []Permission{
	TicketsView, TicketsCreate, TicketsSettle,
	PassesView,
	RatesView,
	ShiftsView, ShiftsManage,
	MapView,
	VehiclesView,
}

var allowed = buildTable()

func buildTable() map[Role]map[Permission]struct{} {
	manager := append([]Permission{}, officerPermissions...)
	manager = append(manager,
		TicketsUpdate, TicketsDelete,
		PassesCreate, PassesUpdate, PassesDelete,
		AnalyticsView, AnalyticsExport,
		RatesUpdate,
		UsersView,
		ShiftsViewAll,
		VehiclesUpdate,
		SettingsView,
		AuditView,
	)

	return map[Role]map[Permission]struct{}{
		Officer: toSet(officerPermissions),
		Manager: toSet(manager),
	}
}

func toSet(perms []Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// ParseRole maps a role name to a known role, ignoring case and spaces.
func ParseRole(name string) (Role, bool) {
	name = strings.TrimSpace(name)
	for _, r := range hierarchy {
		if strings.EqualFold(string(r), name) {
			return r, true
		}
	}
	return "", false
}

// Position returns the index of the role in the privilege order, or -1 for
// unknown names.
func Position(roleName string) int {
	r, ok := ParseRole(roleName)
	if !ok {
		return -1
	}
	for i, h := range hierarchy {
		if h == r {
			return i
		}
	}
	return -1
}

func HasPermission(roleName string, p Permission) bool {
	r, ok := ParseRole(roleName)
	if !ok {
		return false
	}
	if r == Admin {
		return true
	}
	_, ok = allowed[r][p]
	return ok
}

func HasAnyPermission(roleName string, perms []Permission) bool {
	for _, p := range perms {
		if HasPermission(roleName, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions is true for an empty list.
func HasAllPermissions(roleName string, perms []Permission) bool {
	for _, p := range perms {
		if !HasPermission(roleName, p) {
			return false
		}
	}
	return true
}

// HasHigherOrEqualPrivilege compares role positions. An unknown role on
// either side makes the comparison false.
func HasHigherOrEqualPrivilege(roleA, roleB string) bool {
	a, b := Position(roleA), Position(roleB)
	if a < 0 || b < 0 {
		return false
	}
	return a >= b
}

var resources = []string{"tickets", "passes", "analytics", "rates", "users", "shifts", "map", "vehicles", "settings", "audit"}

var catalog = []Permission{
	TicketsView, TicketsCreate, TicketsSettle, TicketsUpdate, TicketsDelete,
	PassesView, PassesCreate, PassesUpdate, PassesDelete,
	AnalyticsView, AnalyticsExport,
	RatesView, RatesUpdate,
	UsersView, UsersCreate, UsersUpdate, UsersDelete,
	ShiftsView, ShiftsManage, ShiftsViewAll,
	MapView,
	VehiclesView, VehiclesUpdate,
	SettingsView, SettingsUpdate,
	AuditView,
}

// Catalog lists every permission token grouped by resource.
func Catalog() map[string][]Permission {
	out := make(map[string][]Permission, len(resources))
	for _, p := range catalog {
		resource, _, _ := strings.Cut(string(p), ".")
		out[resource] = append(out[resource], p)
	}
	return out
}

// PermissionsFor returns the role's catalog permissions in catalog order.
func PermissionsFor(roleName string) []Permission {
	var out []Permission
	for _, p := range catalog {
		if HasPermission(roleName, p) {
			out = append(out, p)
		}
	}
	return out
}
