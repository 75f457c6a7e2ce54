package regimens

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Regimen
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Regimen{}}
}

func (r *testRepo) Create(ctx context.Context, reg Regimen) error {
	if reg.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[reg.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[reg.ID] = reg
	return nil
}

func (r *testRepo) Update(ctx context.Context, reg Regimen) error {
	if _, ok := r.byID[reg.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[reg.ID] = reg
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Regimen, error) {
	reg, ok := r.byID[id]
	if !ok {
		return Regimen{}, errRepoNotFound
	}
	return reg, nil
}

func (r *testRepo) ListByHousehold(ctx context.Context, householdID string, filter ListFilter) ([]Regimen, error) {
	out := make([]Regimen, 0)
	for _, reg := range r.byID {
		if reg.HouseholdID != householdID {
			continue
		}
		if filter.AnimalID != "" && reg.AnimalID != filter.AnimalID {
			continue
		}
		if !filter.IncludeArchived && !reg.Active {
			continue
		}
		out = append(out, reg)
	}
	return out, nil
}

// -------------------------
// Fakes de colaboradores
// -------------------------

type testAnimals struct {
	household string
	tz        *time.Location
}

func (d testAnimals) TimezoneOf(ctx context.Context, animalID string) (*time.Location, error) {
	return d.tz, nil
}

func (d testAnimals) HouseholdOf(ctx context.Context, animalID string) (string, error) {
	return d.household, nil
}

type testDoseLog struct {
	lastGiven *time.Time
	given     map[string]bool // "regimenID:localDay:slot" -> true
}

func (d testDoseLog) LastGivenAt(ctx context.Context, regimenID string) (*time.Time, error) {
	return d.lastGiven, nil
}

func (d testDoseLog) WasGiven(ctx context.Context, animalID, regimenID, localDay string, slotIndex int) (bool, error) {
	if d.given == nil {
		return false, nil
	}
	key := regimenID + ":" + localDay + ":" + string(rune('0'+slotIndex))
	return d.given[key], nil
}

func newTestService(repo *testRepo, doses testDoseLog) *Service {
	return NewService(repo, testAnimals{household: "house-1", tz: time.UTC}, doses, nil)
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_FixedRequiresTimes(t *testing.T) {
	svc := newTestService(newTestRepo(), testDoseLog{})

	_, err := svc.Create(context.Background(), "house-1", CreateInput{
		AnimalID:       "animal-1",
		MedicationID:   "med-1",
		MedicationName: "Amoxicilina",
		ScheduleType:   ScheduleFixed,
		StartDate:      time.Now(),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Create_SortsTimesAndDefaultsCutoff(t *testing.T) {
	svc := newTestService(newTestRepo(), testDoseLog{})

	r, err := svc.Create(context.Background(), "house-1", CreateInput{
		AnimalID:       "animal-1",
		MedicationID:   "med-1",
		MedicationName: "Amoxicilina",
		ScheduleType:   ScheduleFixed,
		TimesLocal:     []string{"20:00", "08:00"},
		StartDate:      time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.TimesLocal[0] != "08:00" || r.TimesLocal[1] != "20:00" {
		t.Fatalf("expected sorted times, got %v", r.TimesLocal)
	}
	if r.CutoffMinutes != 60 {
		t.Fatalf("expected default cutoff 60, got %d", r.CutoffMinutes)
	}
}

func TestService_Create_HighRiskForcesCoSign(t *testing.T) {
	svc := newTestService(newTestRepo(), testDoseLog{})

	r, err := svc.Create(context.Background(), "house-1", CreateInput{
		AnimalID:       "animal-1",
		MedicationID:   "med-1",
		MedicationName: "Insulina",
		ScheduleType:   SchedulePRN,
		HighRisk:       true,
		StartDate:      time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !r.RequiresCoSign {
		t.Fatal("high risk regimen must require co-sign")
	}
}

func TestService_Create_IntervalRequiresHours(t *testing.T) {
	svc := newTestService(newTestRepo(), testDoseLog{})

	_, err := svc.Create(context.Background(), "house-1", CreateInput{
		AnimalID:       "animal-1",
		MedicationID:   "med-1",
		MedicationName: "Tramadol",
		ScheduleType:   ScheduleInterval,
		StartDate:      time.Now(),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Create_RejectsForeignAnimal(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, testAnimals{household: "other-house", tz: time.UTC}, testDoseLog{}, nil)

	_, err := svc.Create(context.Background(), "house-1", CreateInput{
		AnimalID:       "animal-1",
		MedicationID:   "med-1",
		MedicationName: "Amoxicilina",
		ScheduleType:   SchedulePRN,
		StartDate:      time.Now(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_PauseResume_Idempotent(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testDoseLog{})

	now := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	r, err := svc.Create(context.Background(), "house-1", CreateInput{
		AnimalID:       "animal-1",
		MedicationID:   "med-1",
		MedicationName: "Amoxicilina",
		ScheduleType:   SchedulePRN,
		StartDate:      now.AddDate(0, 0, -1),
	})
	if err != nil {
		t.Fatal(err)
	}

	p1, err := svc.Pause(context.Background(), "house-1", r.ID, "viaje")
	if err != nil {
		t.Fatal(err)
	}
	if p1.PausedAt == nil || p1.PauseReason != "viaje" {
		t.Fatalf("expected paused regimen, got %+v", p1)
	}

	// Segunda pausa: no-op, mismo estado.
	p2, err := svc.Pause(context.Background(), "house-1", r.ID, "otra razon")
	if err != nil {
		t.Fatal(err)
	}
	if p2.PauseReason != "viaje" {
		t.Fatalf("second pause must be a no-op, got reason %q", p2.PauseReason)
	}

	res, err := svc.Resume(context.Background(), "house-1", r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.PausedAt != nil {
		t.Fatal("expected resumed regimen")
	}

	// Reanudar de nuevo tampoco es error.
	if _, err := svc.Resume(context.Background(), "house-1", r.ID); err != nil {
		t.Fatal(err)
	}
}

func TestService_Archive_SoftDelete(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testDoseLog{})

	r, err := svc.Create(context.Background(), "house-1", CreateInput{
		AnimalID:       "animal-1",
		MedicationID:   "med-1",
		MedicationName: "Amoxicilina",
		ScheduleType:   SchedulePRN,
		StartDate:      time.Now().AddDate(0, 0, -1),
	})
	if err != nil {
		t.Fatal(err)
	}

	a, err := svc.Archive(context.Background(), "house-1", r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Active {
		t.Fatal("expected inactive regimen")
	}

	// El registro sigue existiendo (nunca hard delete).
	if _, err := repo.GetByID(context.Background(), r.ID); err != nil {
		t.Fatal("archived regimen must remain readable")
	}
}

func TestService_ListDue_SectionsAndOrder(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testDoseLog{})

	now := time.Date(2026, 6, 10, 8, 15, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	start := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

	mk := func(in CreateInput) Regimen {
		in.AnimalID = "animal-1"
		in.MedicationID = "med-1"
		if in.MedicationName == "" {
			in.MedicationName = "Med"
		}
		in.StartDate = start
		r, err := svc.Create(context.Background(), "house-1", in)
		if err != nil {
			t.Fatal(err)
		}
		return r
	}

	due := mk(CreateInput{ScheduleType: ScheduleFixed, TimesLocal: []string{"08:00"}})
	later := mk(CreateInput{ScheduleType: ScheduleFixed, TimesLocal: []string{"20:00"}})
	prn := mk(CreateInput{ScheduleType: SchedulePRN})

	// Sin includeUpcoming: later queda afuera, PRN siempre visible y al final.
	out, err := svc.ListDue(context.Background(), "house-1", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[0].Regimen.ID != due.ID || out[0].Status.Section != SectionDue {
		t.Fatalf("expected due first, got %+v", out[0])
	}
	if out[1].Regimen.ID != prn.ID || out[1].Status.Section != SectionPRN {
		t.Fatalf("expected prn last, got %+v", out[1])
	}

	// Con includeUpcoming aparece later.
	out, err = svc.ListDue(context.Background(), "house-1", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(out))
	}
	if out[1].Regimen.ID != later.ID || out[1].Status.Section != SectionLater {
		t.Fatalf("expected later in the middle, got %+v", out[1])
	}
}

func TestService_ListDue_SuppressesRecordedOverdue(t *testing.T) {
	repo := newTestRepo()

	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	start := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

	// Primero sin historial: 08:00 está vencida.
	svc := newTestService(repo, testDoseLog{})
	svc.now = func() time.Time { return now }

	r, err := svc.Create(context.Background(), "house-1", CreateInput{
		AnimalID:       "animal-1",
		MedicationID:   "med-1",
		MedicationName: "Amoxicilina",
		ScheduleType:   ScheduleFixed,
		TimesLocal:     []string{"08:00", "20:00"},
		StartDate:      start,
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := svc.ListDue(context.Background(), "house-1", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Status.Section != SectionOverdue {
		t.Fatalf("expected overdue row, got %+v", out)
	}

	// Con la dosis de las 08:00 ya registrada, deja de ser overdue: la fila
	// vuelve a later y (sin includeUpcoming) desaparece de la lista.
	given := map[string]bool{r.ID + ":2026-06-10:0": true}
	svc2 := newTestService(repo, testDoseLog{given: given})
	svc2.now = func() time.Time { return now }

	out, err = svc2.ListDue(context.Background(), "house-1", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("recorded overdue slot must not reappear, got %+v", out)
	}
}

func TestService_ListDue_SkipsPausedAndArchived(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testDoseLog{})

	now := time.Date(2026, 6, 10, 8, 15, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	start := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

	r, err := svc.Create(context.Background(), "house-1", CreateInput{
		AnimalID:       "animal-1",
		MedicationID:   "med-1",
		MedicationName: "Amoxicilina",
		ScheduleType:   ScheduleFixed,
		TimesLocal:     []string{"08:00"},
		StartDate:      start,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Pause(context.Background(), "house-1", r.ID, "vet lo indicó"); err != nil {
		t.Fatal(err)
	}

	out, err := svc.ListDue(context.Background(), "house-1", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("paused regimen must not be listed, got %+v", out)
	}
}

func TestService_Get_HouseholdIsolation(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, testDoseLog{})

	r, err := svc.Create(context.Background(), "house-1", CreateInput{
		AnimalID:       "animal-1",
		MedicationID:   "med-1",
		MedicationName: "Amoxicilina",
		ScheduleType:   SchedulePRN,
		StartDate:      time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(context.Background(), "house-2", r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign household, got %v", err)
	}
}
