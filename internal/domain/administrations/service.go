package administrations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-med-tracker/internal/domain/animals"
	"pet-med-tracker/internal/domain/cosign"
	"pet-med-tracker/internal/domain/inventory"
	"pet-med-tracker/internal/domain/regimens"
	"pet-med-tracker/internal/ports/audit"
	"pet-med-tracker/internal/ports/notify"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	// ErrInventoryConflict: ítem vencido o de otro medicamento sin
	// allow_override, o sin unidades. Recuperable: el cuidador puede
	// reenviar con allow_override (salvo agotado).
	ErrInventoryConflict = errors.New("inventory conflict")
)

// RegimenSource y AnimalDirectory son lo que el registrador necesita de los
// otros módulos; las implementan los services concretos.
type RegimenSource interface {
	Get(ctx context.Context, householdID, id string) (regimens.Regimen, error)
}

type AnimalDirectory interface {
	Get(ctx context.Context, householdID, id string) (animals.Animal, error)
}

type InventorySource interface {
	Get(ctx context.Context, householdID, id string) (inventory.Item, error)
}

// Service es el registrador de administraciones. Cada llamada a Record corre
// dentro de una única transacción (adapter): insert de la administración,
// descuento de inventario y alta de co-firma se confirman juntos o ninguno.
type Service struct {
	repo     Repository
	regs     RegimenSource
	animals  AnimalDirectory
	inv      InventorySource
	audit    audit.Emitter
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(repo Repository, regs RegimenSource, animals AnimalDirectory, inv InventorySource, emitter audit.Emitter, notifier notify.Notifier) *Service {
	if emitter == nil {
		emitter = audit.Discard{}
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Service{
		repo:     repo,
		regs:     regs,
		animals:  animals,
		inv:      inv,
		audit:    emitter,
		notifier: notifier,
		now:      time.Now,
	}
}

type RecordInput struct {
	AnimalID    string
	RegimenID   string
	CaregiverID string

	// AdministeredAt es cuándo se dio la dosis. En replays offline viaja la
	// hora original del envío, no la del reintento.
	AdministeredAt time.Time

	IdempotencyKey string

	InventorySourceID string
	AllowOverride     bool

	// MarkMissed registra explícitamente la dosis como omitida. Nunca se
	// escribe un MISSED automático: siempre lo decide un cuidador.
	MarkMissed bool

	Notes         string
	Site          string
	ConditionTags []string
	MediaURLs     []string
}

// RecordResult distingue un alta nueva de un replay idempotente. El replay
// es éxito, no error: para el cuidador un doble tap es indistinguible de un
// primer envío exitoso.
type RecordResult struct {
	Administration Administration
	Replayed       bool
	CoSign         *cosign.Request
}

func (s *Service) Record(ctx context.Context, householdID string, in RecordInput) (RecordResult, error) {
	householdID = strings.TrimSpace(householdID)
	caregiverID := strings.TrimSpace(in.CaregiverID)
	if householdID == "" || caregiverID == "" || in.AdministeredAt.IsZero() {
		return RecordResult{}, ErrInvalidInput
	}

	// 1) Formato de clave: se valida antes de cualquier efecto y se cruza
	// contra animal/régimen del request (el cliente no elige claves libres).
	key, err := ParseKey(in.IdempotencyKey, strings.TrimSpace(in.AnimalID), strings.TrimSpace(in.RegimenID))
	if err != nil {
		return RecordResult{}, ErrInvalidInput
	}

	// 2) Animal y régimen existen, pertenecen al hogar y el régimen acepta
	// dosis hoy.
	animal, err := s.animals.Get(ctx, householdID, key.AnimalID)
	if err != nil {
		return RecordResult{}, ErrNotFound
	}
	reg, err := s.regs.Get(ctx, householdID, key.RegimenID)
	if err != nil || reg.AnimalID != animal.ID {
		return RecordResult{}, ErrNotFound
	}

	now := s.now()
	if !reg.CurrentlyActive(now) {
		return RecordResult{}, ErrNotFound
	}

	if err := validateKeyShape(key, reg); err != nil {
		return RecordResult{}, ErrInvalidInput
	}

	// 3) Replay rápido: si la clave ya existe, la operación es un no-op
	// exitoso que devuelve la fila original. La carrera entre este check y
	// el insert la resuelve la unicidad dentro de Record.
	if existing, err := s.repo.GetByKey(ctx, key.String()); err == nil {
		return RecordResult{Administration: existing, Replayed: true}, nil
	}

	// 4) Inventario: vencido o de otro medicamento exige allow_override;
	// sin unidades no hay override que valga.
	if in.InventorySourceID != "" {
		item, err := s.inv.Get(ctx, householdID, strings.TrimSpace(in.InventorySourceID))
		if err != nil {
			return RecordResult{}, ErrNotFound
		}
		if item.UnitsRemaining < 1 {
			return RecordResult{}, ErrInventoryConflict
		}
		if (item.Expired(now) || item.MedicationID != reg.MedicationID) && !in.AllowOverride {
			return RecordResult{}, ErrInventoryConflict
		}
	}

	// 5) Estado de la dosis contra el horario que identifica la clave.
	loc, err := time.LoadLocation(animal.Timezone)
	if err != nil {
		loc = time.UTC
	}
	scheduledFor, status, err := s.doseStatus(ctx, reg, loc, key, in)
	if err != nil {
		return RecordResult{}, ErrInvalidInput
	}

	a := Administration{
		ID:                    uuid.NewString(),
		HouseholdID:           householdID,
		RegimenID:             reg.ID,
		AnimalID:              animal.ID,
		CaregiverID:           caregiverID,
		ScheduledFor:          scheduledFor,
		RecordedAt:            in.AdministeredAt,
		Status:                status,
		SourceInventoryItemID: strings.TrimSpace(in.InventorySourceID),
		IdempotencyKey:        key.String(),
		Notes:                 strings.TrimSpace(in.Notes),
		Site:                  strings.TrimSpace(in.Site),
		ConditionTags:         in.ConditionTags,
		MediaURLs:             in.MediaURLs,
	}

	var side SideEffects
	side.InventoryItemID = a.SourceInventoryItemID

	var pending *cosign.Request
	if reg.RequiresCoSign && !in.MarkMissed {
		a.PendingCoSign = true
		pending = &cosign.Request{
			AdministrationID: a.ID,
			HouseholdID:      householdID,
			RecordedBy:       caregiverID,
			RequiredAt:       now,
			ExpiresAt:        now.Add(cosign.Window),
			Status:           cosign.StatusPending,
		}
		side.CoSign = pending
	}

	stored, created, err := s.repo.Record(ctx, a, side)
	if err != nil {
		return RecordResult{}, err
	}
	if !created {
		// Perdimos la carrera contra un envío concurrente con la misma
		// clave: observamos la fila del ganador, sin efectos nuevos.
		return RecordResult{Administration: stored, Replayed: true}, nil
	}

	// 6) Auditoría después del commit, nunca dentro de la transacción.
	eventType := "administration.recorded"
	if reg.HighRisk {
		eventType = "high_risk.administered"
	}
	s.audit.Emit(ctx, audit.Event{
		Type:        eventType,
		At:          now,
		HouseholdID: householdID,
		ActorID:     caregiverID,
		Fields: map[string]any{
			"administration_id": stored.ID,
			"regimen_id":        reg.ID,
			"animal_id":         animal.ID,
			"status":            string(stored.Status),
		},
	})
	if pending != nil {
		s.audit.Emit(ctx, audit.Event{
			Type:        "cosign.requested",
			At:          now,
			HouseholdID: householdID,
			ActorID:     caregiverID,
			Fields: map[string]any{
				"administration_id": stored.ID,
				"expires_at":        pending.ExpiresAt,
			},
		})
		s.notifier.CoSignRequested(ctx, householdID, stored.ID, caregiverID)
	}

	return RecordResult{Administration: stored, Replayed: false, CoSign: pending}, nil
}

// validateKeyShape exige que el tipo de clave coincida con el tipo de
// agenda: PRN usa sufijo aleatorio, FIXED/TAPER un slot dentro de rango,
// INTERVAL siempre el slot 0.
func validateKeyShape(key KeyParts, reg regimens.Regimen) error {
	switch reg.ScheduleType {
	case regimens.SchedulePRN:
		if !key.PRN {
			return errors.New("prn regimen requires prn key")
		}
	case regimens.ScheduleFixed, regimens.ScheduleTaper:
		if key.PRN || key.SlotIndex >= len(reg.TimesLocal) {
			return errors.New("slot index out of range")
		}
	case regimens.ScheduleInterval:
		// El ordinal viene de IntervalSlot: cada dosis del día tiene el
		// suyo, un reintento repite el de su dosis.
		if key.PRN || key.SlotIndex > regimens.MaxIntervalSlot(reg.IntervalHours) {
			return errors.New("interval slot out of range")
		}
	}
	return nil
}

func (s *Service) doseStatus(ctx context.Context, reg regimens.Regimen, loc *time.Location, key KeyParts, in RecordInput) (*time.Time, Status, error) {
	if key.PRN {
		return nil, StatusPRN, nil
	}

	var scheduled time.Time
	switch reg.ScheduleType {
	case regimens.ScheduleInterval:
		last, err := s.repo.LastGivenAt(ctx, reg.ID)
		if err != nil {
			return nil, "", err
		}
		scheduled = regimens.NextIntervalDose(reg, last)
	default:
		var err error
		scheduled, err = regimens.SlotInstant(reg, loc, key.LocalDay, key.SlotIndex)
		if err != nil {
			return nil, "", err
		}
	}

	if in.MarkMissed {
		return &scheduled, StatusMissed, nil
	}
	return &scheduled, lateness(in.AdministeredAt, scheduled, reg.CutoffMinutes), nil
}

// lateness clasifica contra la ventana de gracia: dentro de cutoff es a
// tiempo, hasta el doble es tarde, más allá muy tarde. El lado temprano es
// asimétrico a propósito: cualquier adelanto cuenta ON_TIME, porque la
// clave ya fija a qué slot pertenece la dosis y el estado mide demora.
func lateness(administeredAt, scheduledFor time.Time, cutoffMinutes int) Status {
	cutoff := time.Duration(cutoffMinutes) * time.Minute
	delta := administeredAt.Sub(scheduledFor)
	switch {
	case delta <= cutoff:
		return StatusOnTime
	case delta <= 2*cutoff:
		return StatusLate
	default:
		return StatusVeryLate
	}
}

func (s *Service) Get(ctx context.Context, householdID, id string) (Administration, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Administration{}, ErrInvalidInput
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil || a.HouseholdID != householdID {
		return Administration{}, ErrNotFound
	}
	return a, nil
}

func (s *Service) ListByRegimen(ctx context.Context, householdID, regimenID string, limit int) ([]Administration, error) {
	if _, err := s.regs.Get(ctx, householdID, regimenID); err != nil {
		return nil, ErrNotFound
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByRegimen(ctx, regimenID, limit)
}

// LastGivenAt implementa regimens.DoseLog.
func (s *Service) LastGivenAt(ctx context.Context, regimenID string) (*time.Time, error) {
	return s.repo.LastGivenAt(ctx, regimenID)
}

// WasGiven implementa regimens.DoseLog: reconstruye la clave determinista
// del slot y pregunta si ya existe una administración con ella.
func (s *Service) WasGiven(ctx context.Context, animalID, regimenID, localDay string, slotIndex int) (bool, error) {
	_, err := s.repo.GetByKey(ctx, BuildKey(animalID, regimenID, localDay, slotIndex))
	return err == nil, nil
}

// ComplianceReport es el cumplimiento real del régimen: dosis a tiempo y
// tarde sobre el total de desenlaces programados (PRN queda fuera).
type ComplianceReport struct {
	OnTime   int
	Late     int
	VeryLate int
	Missed   int
	Rate     float64 // (OnTime+Late) / total; 1.0 si no hay historial
}

func (s *Service) Compliance(ctx context.Context, householdID, regimenID string, since time.Time) (ComplianceReport, error) {
	if _, err := s.regs.Get(ctx, householdID, regimenID); err != nil {
		return ComplianceReport{}, ErrNotFound
	}

	items, err := s.repo.ListByRegimen(ctx, regimenID, 0)
	if err != nil {
		return ComplianceReport{}, err
	}

	var rep ComplianceReport
	for _, a := range items {
		if !since.IsZero() && a.RecordedAt.Before(since) {
			continue
		}
		switch a.Status {
		case StatusOnTime:
			rep.OnTime++
		case StatusLate:
			rep.Late++
		case StatusVeryLate:
			rep.VeryLate++
		case StatusMissed:
			rep.Missed++
		}
	}

	total := rep.OnTime + rep.Late + rep.VeryLate + rep.Missed
	if total == 0 {
		rep.Rate = 1.0
		return rep, nil
	}
	rep.Rate = float64(rep.OnTime+rep.Late) / float64(total)
	return rep, nil
}
