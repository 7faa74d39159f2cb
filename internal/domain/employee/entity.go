package employee

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Employee entity. Managed elsewhere; the leave core only reads it to resolve
// the suggested approver and notification addresses.
type Employee struct {
	ID        string
	FullName  string
	Email     string
	ManagerID *string
	Role      Role

	CreatedAt time.Time
	UpdatedAt time.Time
}
