package regimens

import "context"

type Repository interface {
	Create(ctx context.Context, r Regimen) error
	Update(ctx context.Context, r Regimen) error
	GetByID(ctx context.Context, id string) (Regimen, error)
	ListByHousehold(ctx context.Context, householdID string, filter ListFilter) ([]Regimen, error)
}

type ListFilter struct {
	AnimalID        string // opcional: limita a un animal
	IncludeArchived bool
}
