package employee

import "errors"

var (
	ErrEmployeeNotFound      = errors.New("Employee not found")
	ErrAdminAccessRequired   = errors.New("Admin access required")
	ErrManagerAccessRequired = errors.New("Manager access required")
)
