package contact

import "context"

// Repository is the durable contact table.
type Repository interface {
	List(ctx context.Context) ([]Contact, error)
	Get(ctx context.Context, id string) (*Contact, error)
	FindByEmail(ctx context.Context, email string) (*Contact, error)
	FindByName(ctx context.Context, firstName, lastName string) (*Contact, error)
	Create(ctx context.Context, c *Contact) error
	Update(ctx context.Context, c *Contact) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	// ReplaceAll rewrites the whole table in one transaction.
	ReplaceAll(ctx context.Context, contacts []Contact) error
}
