package auth

import (
	"context"
	"slices"
)

const (
	RoleCEO      = "ceo"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

const (
	PermKPIRead     = "kpi.read"
	PermKPIEvaluate = "kpi.evaluate"
	PermKPIAdmin    = "kpi.admin"
	PermRewardsRead = "rewards.read"
	PermRewardsRun  = "rewards.run"
	PermAuditRead   = "audit.read"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermKPIRead,
	},
	RoleManager: {
		PermKPIRead,
		PermKPIEvaluate,
		PermRewardsRead,
	},
	RoleCEO: {
		PermKPIRead,
		PermKPIAdmin,
		PermRewardsRead,
		PermRewardsRun,
		PermAuditRead,
	},
}

// StaticPermissions answers permission checks from RolePermissions. Roles are
// fixed for this service, so no lookup table is kept in the database.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return slices.Contains(RolePermissions[role], permission), nil
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}
