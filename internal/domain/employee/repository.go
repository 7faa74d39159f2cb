package employee

import "context"

// Repository - read-only interface for the employees table.
type Repository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
}
