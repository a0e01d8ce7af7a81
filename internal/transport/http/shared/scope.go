package shared

import (
	"errors"
	"strings"

	"timepay/internal/domain/auth"
	"timepay/internal/domain/employee"
	"timepay/internal/requestctx"
)

var ErrForeignEmployee = errors.New("employees may only access their own data")

// ResolveScope picks the employee a request acts on. Employees are pinned to
// themselves; admins may name any employee of their tenant.
func ResolveScope(actor requestctx.Actor, requested string) (employee.Scope, error) {
	requested = strings.TrimSpace(requested)
	scope := employee.Scope{TenantID: actor.TenantID, EmployeeID: actor.EmployeeID}
	if requested == "" || requested == "me" {
		return scope, scope.Validate()
	}
	if actor.Role != auth.RoleAdmin && requested != actor.EmployeeID {
		return employee.Scope{}, ErrForeignEmployee
	}
	scope.EmployeeID = requested
	return scope, scope.Validate()
}
