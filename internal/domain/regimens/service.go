package regimens

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-med-tracker/internal/ports/audit"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")
)

// AnimalDirectory aporta los datos del animal que el cálculo necesita
// (zona horaria, hogar) sin acoplar este módulo al módulo animals.
type AnimalDirectory interface {
	TimezoneOf(ctx context.Context, animalID string) (*time.Location, error)
	HouseholdOf(ctx context.Context, animalID string) (string, error)
}

// DoseLog expone lo mínimo del historial de administraciones que la lista
// de dosis necesita: el ancla INTERVAL y si un horario vencido ya se
// registró (para no mostrarlo como overdue de nuevo).
type DoseLog interface {
	LastGivenAt(ctx context.Context, regimenID string) (*time.Time, error)
	WasGiven(ctx context.Context, animalID, regimenID, localDay string, slotIndex int) (bool, error)
}

type Service struct {
	repo    Repository
	animals AnimalDirectory
	doses   DoseLog
	audit   audit.Emitter
	now     func() time.Time
}

func NewService(repo Repository, animals AnimalDirectory, doses DoseLog, emitter audit.Emitter) *Service {
	if emitter == nil {
		emitter = audit.Discard{}
	}
	return &Service{
		repo:    repo,
		animals: animals,
		doses:   doses,
		audit:   emitter,
		now:     time.Now,
	}
}

type CreateInput struct {
	AnimalID       string
	MedicationID   string
	MedicationName string
	Dose           string
	ScheduleType   ScheduleType
	TimesLocal     []string
	IntervalHours  int
	CutoffMinutes  int
	HighRisk       bool
	RequiresCoSign bool
	TaperNotes     string
	StartDate      time.Time
	EndDate        *time.Time
}

func (s *Service) Create(ctx context.Context, householdID string, in CreateInput) (Regimen, error) {
	householdID = strings.TrimSpace(householdID)
	animalID := strings.TrimSpace(in.AnimalID)
	if householdID == "" || animalID == "" {
		return Regimen{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.MedicationID) == "" || strings.TrimSpace(in.MedicationName) == "" {
		return Regimen{}, ErrInvalidInput
	}
	if !validScheduleType(in.ScheduleType) {
		return Regimen{}, ErrInvalidInput
	}
	if in.StartDate.IsZero() {
		return Regimen{}, ErrInvalidInput
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return Regimen{}, ErrInvalidInput
	}

	// Invariantes por tipo de agenda.
	switch in.ScheduleType {
	case ScheduleFixed, ScheduleTaper:
		if len(in.TimesLocal) == 0 {
			return Regimen{}, ErrInvalidInput
		}
		for _, t := range in.TimesLocal {
			if _, _, err := parseHHMM(t); err != nil {
				return Regimen{}, ErrInvalidInput
			}
		}
	case ScheduleInterval:
		if in.IntervalHours <= 0 {
			return Regimen{}, ErrInvalidInput
		}
	}

	// El animal debe pertenecer al hogar del caller.
	owner, err := s.animals.HouseholdOf(ctx, animalID)
	if err != nil || owner != householdID {
		return Regimen{}, ErrNotFound
	}

	cutoff := in.CutoffMinutes
	if cutoff <= 0 {
		cutoff = 60
	}

	// TimesLocal ordenado asegura que el slotIndex de la clave de
	// idempotencia sea estable entre lecturas.
	times := append([]string(nil), in.TimesLocal...)
	sort.Strings(times)

	requiresCoSign := in.RequiresCoSign
	if in.HighRisk {
		requiresCoSign = true
	}

	now := s.now()
	r := Regimen{
		ID:             uuid.NewString(),
		HouseholdID:    householdID,
		AnimalID:       animalID,
		MedicationID:   strings.TrimSpace(in.MedicationID),
		MedicationName: strings.TrimSpace(in.MedicationName),
		Dose:           strings.TrimSpace(in.Dose),
		ScheduleType:   in.ScheduleType,
		TimesLocal:     times,
		IntervalHours:  in.IntervalHours,
		CutoffMinutes:  cutoff,
		HighRisk:       in.HighRisk,
		RequiresCoSign: requiresCoSign,
		TaperNotes:     strings.TrimSpace(in.TaperNotes),
		Active:         true,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return Regimen{}, err
	}
	return r, nil
}

// Get devuelve el régimen solo si pertenece al hogar indicado. El hogar es
// el predicado de aislamiento en toda lectura.
func (s *Service) Get(ctx context.Context, householdID, id string) (Regimen, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Regimen{}, ErrInvalidInput
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil || r.HouseholdID != householdID {
		return Regimen{}, ErrNotFound
	}
	return r, nil
}

func (s *Service) Pause(ctx context.Context, householdID, id, reason string) (Regimen, error) {
	r, err := s.Get(ctx, householdID, id)
	if err != nil {
		return Regimen{}, err
	}
	// Idempotente: pausar dos veces no es error.
	if r.PausedAt != nil {
		return r, nil
	}

	now := s.now()
	r.PausedAt = &now
	r.PauseReason = strings.TrimSpace(reason)
	r.UpdatedAt = now

	if err := s.repo.Update(ctx, r); err != nil {
		return Regimen{}, err
	}
	s.audit.Emit(ctx, audit.Event{
		Type:        "regimen.paused",
		At:          now,
		HouseholdID: householdID,
		Fields:      map[string]any{"regimen_id": r.ID, "reason": r.PauseReason},
	})
	return r, nil
}

func (s *Service) Resume(ctx context.Context, householdID, id string) (Regimen, error) {
	r, err := s.Get(ctx, householdID, id)
	if err != nil {
		return Regimen{}, err
	}
	if r.PausedAt == nil {
		return r, nil
	}

	now := s.now()
	r.PausedAt = nil
	r.PauseReason = ""
	r.UpdatedAt = now

	if err := s.repo.Update(ctx, r); err != nil {
		return Regimen{}, err
	}
	s.audit.Emit(ctx, audit.Event{
		Type:        "regimen.resumed",
		At:          now,
		HouseholdID: householdID,
		Fields:      map[string]any{"regimen_id": r.ID},
	})
	return r, nil
}

// Archive marca el régimen como inactivo (soft delete). El historial de
// administraciones lo sigue referenciando, nunca se borra en duro.
func (s *Service) Archive(ctx context.Context, householdID, id string) (Regimen, error) {
	r, err := s.Get(ctx, householdID, id)
	if err != nil {
		return Regimen{}, err
	}
	if !r.Active {
		return r, nil
	}

	now := s.now()
	r.Active = false
	r.UpdatedAt = now

	if err := s.repo.Update(ctx, r); err != nil {
		return Regimen{}, err
	}
	s.audit.Emit(ctx, audit.Event{
		Type:        "regimen.archived",
		At:          now,
		HouseholdID: householdID,
		Fields:      map[string]any{"regimen_id": r.ID},
	})
	return r, nil
}

func (s *Service) ListByHousehold(ctx context.Context, householdID string, filter ListFilter) ([]Regimen, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByHousehold(ctx, householdID, filter)
}

// RegimenStatus es la fila que consume la UI: régimen + su clasificación.
type RegimenStatus struct {
	Regimen Regimen
	Status  DoseStatus
}

// ListDue clasifica cada régimen vigente del hogar en la zona horaria de su
// animal. Las secciones due/overdue/prn siempre se devuelven; later solo si
// includeUpcoming.
func (s *Service) ListDue(ctx context.Context, householdID, animalID string, includeUpcoming bool) ([]RegimenStatus, error) {
	regs, err := s.ListByHousehold(ctx, householdID, ListFilter{AnimalID: animalID})
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]RegimenStatus, 0, len(regs))
	for _, r := range regs {
		if !r.CurrentlyActive(now) {
			continue
		}

		loc, err := s.animals.TimezoneOf(ctx, r.AnimalID)
		if err != nil {
			continue
		}

		var lastGiven *time.Time
		if r.ScheduleType == ScheduleInterval {
			lastGiven, err = s.doses.LastGivenAt(ctx, r.ID)
			if err != nil {
				return nil, err
			}
		}

		st := Classify(r, loc, lastGiven, now)

		// Un horario vencido que ya fue registrado deja de ser overdue:
		// vuelve a la sección que toque según la próxima dosis.
		if st.Section == SectionOverdue && st.MissedSlot != nil {
			given, err := s.doses.WasGiven(ctx, r.AnimalID, r.ID, st.MissedLocalDay, st.MissedSlotIndex)
			if err == nil && given {
				st.Section = SectionLater
				st.IsOverdue = false
				st.MissedSlot = nil
				st.MissedLocalDay = ""
				st.MissedSlotIndex = -1
				if st.NextDueAt != nil && !now.Before(st.NextDueAt.Add(-(time.Duration(r.CutoffMinutes) * time.Minute))) {
					st.Section = SectionDue
				}
			}
		}

		if st.Section == SectionLater && !includeUpcoming {
			continue
		}
		out = append(out, RegimenStatus{Regimen: r, Status: st})
	}

	// Empate: gana la próxima dosis más temprana; el resto queda visible en
	// la misma sección, nunca se oculta. PRN (sin NextDueAt) va al final.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Status.NextDueAt, out[j].Status.NextDueAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})

	return out, nil
}
