package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrDepleted     = errors.New("no units remaining")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	MedicationID     string
	Lot              string
	ExpiresOn        *time.Time
	QuantityTotal    int
	AssignedAnimalID string
}

func (s *Service) Create(ctx context.Context, householdID string, in CreateInput) (Item, error) {
	householdID = strings.TrimSpace(householdID)
	medID := strings.TrimSpace(in.MedicationID)
	if householdID == "" || medID == "" {
		return Item{}, ErrInvalidInput
	}
	if in.QuantityTotal <= 0 {
		return Item{}, ErrInvalidInput
	}

	now := s.now()
	it := Item{
		ID:               uuid.NewString(),
		HouseholdID:      householdID,
		MedicationID:     medID,
		Lot:              strings.TrimSpace(in.Lot),
		ExpiresOn:        in.ExpiresOn,
		UnitsRemaining:   in.QuantityTotal,
		QuantityTotal:    in.QuantityTotal,
		AssignedAnimalID: strings.TrimSpace(in.AssignedAnimalID),
		InUse:            true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *Service) Get(ctx context.Context, householdID, id string) (Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Item{}, ErrInvalidInput
	}
	it, err := s.repo.GetByID(ctx, id)
	if err != nil || it.HouseholdID != householdID {
		return Item{}, ErrNotFound
	}
	return it, nil
}

// ListSources devuelve los ítems candidatos para suministrar una dosis.
// Por defecto los vencidos quedan fuera; includeExpired los incluye (la UI
// los muestra marcados, registrar con uno vencido exige allow_override).
func (s *Service) ListSources(ctx context.Context, householdID string, filter SourceFilter) ([]Item, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListSources(ctx, householdID, filter)
}

// Restock suma unidades a un ítem existente (corrección manual o recarga).
func (s *Service) Restock(ctx context.Context, householdID, id string, units int) (Item, error) {
	if units <= 0 {
		return Item{}, ErrInvalidInput
	}
	if _, err := s.Get(ctx, householdID, id); err != nil {
		return Item{}, err
	}
	return s.repo.Adjust(ctx, id, units)
}
