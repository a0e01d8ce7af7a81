package employee

import "errors"

var (
	ErrNotFound        = errors.New("employee not found")
	ErrMissingTenant   = errors.New("tenant id is required")
	ErrMissingEmployee = errors.New("employee id is required")
)
