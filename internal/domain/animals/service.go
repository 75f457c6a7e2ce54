package animals

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
	Name     string
	Species  string
	Timezone string
}

func (s *Service) Create(ctx context.Context, householdID string, in CreateInput) (Animal, error) {
	householdID = strings.TrimSpace(householdID)
	name := strings.TrimSpace(in.Name)
	tz := strings.TrimSpace(in.Timezone)

	if householdID == "" || name == "" {
		return Animal{}, ErrInvalidInput
	}
	if tz == "" {
		tz = "UTC"
	}
	// La zona debe ser un nombre IANA válido; rechazar acá evita que el
	// cálculo de horarios falle después en cada lectura.
	if _, err := time.LoadLocation(tz); err != nil {
		return Animal{}, ErrInvalidInput
	}

	now := s.now()
	a := Animal{
		ID:          uuid.NewString(),
		HouseholdID: householdID,
		Name:        name,
		Species:     strings.TrimSpace(in.Species),
		Timezone:    tz,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

// Get devuelve el animal solo si pertenece al hogar indicado.
func (s *Service) Get(ctx context.Context, householdID, id string) (Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Animal{}, ErrInvalidInput
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil || a.HouseholdID != householdID {
		return Animal{}, ErrNotFound
	}
	return a, nil
}

func (s *Service) ListByHousehold(ctx context.Context, householdID string) ([]Animal, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByHousehold(ctx, householdID)
}

// HouseholdOf expone el hogar dueño de un animal.
// Se usa para validar pertenencia desde otros módulos sin ciclos de imports.
func (s *Service) HouseholdOf(ctx context.Context, animalID string) (string, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(animalID))
	if err != nil {
		return "", ErrNotFound
	}
	return a.HouseholdID, nil
}

// TimezoneOf resuelve la zona horaria IANA del animal ya cargada.
func (s *Service) TimezoneOf(ctx context.Context, animalID string) (*time.Location, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(animalID))
	if err != nil {
		return nil, ErrNotFound
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, err
	}
	return loc, nil
}
