package cosign

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-med-tracker/internal/ports/audit"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")
)

type Service struct {
	repo  Repository
	audit audit.Emitter
	now   func() time.Time
}

func NewService(repo Repository, emitter audit.Emitter) *Service {
	if emitter == nil {
		emitter = audit.Discard{}
	}
	return &Service{
		repo:  repo,
		audit: emitter,
		now:   time.Now,
	}
}

// Get devuelve la solicitud aplicando vencimiento perezoso: si la ventana
// ya pasó y sigue PENDING, se estampa EXPIRED antes de devolverla.
func (s *Service) Get(ctx context.Context, householdID, administrationID string) (Request, error) {
	administrationID = strings.TrimSpace(administrationID)
	if administrationID == "" {
		return Request{}, ErrInvalidInput
	}

	r, err := s.repo.GetByAdministration(ctx, administrationID)
	if err != nil || r.HouseholdID != householdID {
		return Request{}, ErrNotFound
	}

	return s.lazyExpire(ctx, r)
}

// Complete registra la aprobación del segundo cuidador.
//
// Reglas de transición:
//   - solo PENDING puede completarse; COMPLETED/EXPIRED rechazan con
//     ErrBadState (nunca se ignora en silencio),
//   - quien registró la dosis no puede co-firmarla (cuidador distinto),
//   - pasada ExpiresAt no se acepta aprobación de nadie.
func (s *Service) Complete(ctx context.Context, householdID, administrationID, coSignerID string) (Request, error) {
	coSignerID = strings.TrimSpace(coSignerID)
	if coSignerID == "" {
		return Request{}, ErrInvalidInput
	}

	r, err := s.Get(ctx, householdID, administrationID)
	if err != nil {
		return Request{}, err
	}

	if r.Status != StatusPending {
		return Request{}, ErrBadState
	}
	if r.RecordedBy == coSignerID {
		return Request{}, ErrBadState
	}

	now := s.now()
	if now.After(r.ExpiresAt) {
		// Carrera entre Get y Complete: estampar y rechazar igual.
		if _, err := s.lazyExpire(ctx, r); err != nil {
			return Request{}, err
		}
		return Request{}, ErrBadState
	}

	r.Status = StatusCompleted
	r.CoSignerID = coSignerID
	r.CompletedAt = &now

	if err := s.repo.Update(ctx, r); err != nil {
		return Request{}, err
	}

	s.audit.Emit(ctx, audit.Event{
		Type:        "cosign.completed",
		At:          now,
		HouseholdID: r.HouseholdID,
		ActorID:     coSignerID,
		Fields: map[string]any{
			"administration_id": r.AdministrationID,
			"recorded_by":       r.RecordedBy,
		},
	})
	return r, nil
}

func (s *Service) lazyExpire(ctx context.Context, r Request) (Request, error) {
	now := s.now()
	if !r.ExpiredBy(now) {
		return r, nil
	}

	r.Status = StatusExpired
	if err := s.repo.Update(ctx, r); err != nil {
		return Request{}, err
	}
	s.audit.Emit(ctx, audit.Event{
		Type:        "cosign.expired",
		At:          now,
		HouseholdID: r.HouseholdID,
		Fields: map[string]any{
			"administration_id": r.AdministrationID,
			"expired_at":        r.ExpiresAt,
		},
	})
	return r, nil
}
