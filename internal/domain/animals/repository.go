package animals

import "context"

type Repository interface {
	Create(ctx context.Context, a Animal) error
	GetByID(ctx context.Context, id string) (Animal, error)
	ListByHousehold(ctx context.Context, householdID string) ([]Animal, error)
}
