package regimens

import (
	"testing"
	"time"
)

func fixedRegimen(times []string, cutoff int, start time.Time) Regimen {
	return Regimen{
		ID:            "reg-1",
		AnimalID:      "animal-1",
		ScheduleType:  ScheduleFixed,
		TimesLocal:    times,
		CutoffMinutes: cutoff,
		Active:        true,
		StartDate:     start,
	}
}

func TestClassify_Fixed_DueWithinWindow(t *testing.T) {
	loc := time.UTC
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, loc)
	r := fixedRegimen([]string{"08:00", "20:00"}, 60, start)

	// 08:15: dentro de la ventana del slot de las 08:00.
	now := time.Date(2026, 6, 10, 8, 15, 0, 0, loc)
	st := Classify(r, loc, nil, now)

	if st.Section != SectionDue {
		t.Fatalf("expected section due, got %s", st.Section)
	}
	if st.NextDueAt == nil {
		t.Fatal("expected NextDueAt")
	}
	want := time.Date(2026, 6, 10, 8, 0, 0, 0, loc)
	if !st.NextDueAt.Equal(want) {
		t.Fatalf("expected NextDueAt %v, got %v", want, *st.NextDueAt)
	}
	if st.SlotIndex != 0 {
		t.Fatalf("expected slot 0, got %d", st.SlotIndex)
	}
	if st.LocalDay != "2026-06-10" {
		t.Fatalf("expected local day 2026-06-10, got %s", st.LocalDay)
	}
}

func TestClassify_Fixed_EarlyWindowIsDue(t *testing.T) {
	loc := time.UTC
	r := fixedRegimen([]string{"08:00"}, 60, time.Date(2026, 5, 1, 0, 0, 0, 0, loc))

	// 07:10: dentro de [slot-cutoff, slot+cutoff] por adelantado.
	now := time.Date(2026, 6, 10, 7, 10, 0, 0, loc)
	st := Classify(r, loc, nil, now)

	if st.Section != SectionDue {
		t.Fatalf("expected due for early window, got %s", st.Section)
	}
}

func TestClassify_Fixed_MidnightRollover(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	r := fixedRegimen([]string{"23:30"}, 60, time.Date(2026, 5, 1, 0, 0, 0, 0, loc))

	// 04:05 UTC del 2 de junio = 00:05 del 2 de junio en NY (EDT). La dosis
	// de las 23:30 del 1 de junio sigue due y pertenece al día local del 1.
	now := time.Date(2026, 6, 2, 4, 5, 0, 0, time.UTC)
	st := Classify(r, loc, nil, now)

	if st.Section != SectionDue {
		t.Fatalf("expected due across midnight, got %s", st.Section)
	}
	want := time.Date(2026, 6, 1, 23, 30, 0, 0, loc)
	if st.NextDueAt == nil || !st.NextDueAt.Equal(want) {
		t.Fatalf("expected NextDueAt %v, got %v", want, st.NextDueAt)
	}
	if st.LocalDay != "2026-06-01" {
		t.Fatalf("expected local day of the slot (2026-06-01), got %s", st.LocalDay)
	}
}

func TestClassify_Fixed_OverdueUntilRecorded(t *testing.T) {
	loc := time.UTC
	r := fixedRegimen([]string{"08:00", "20:00"}, 60, time.Date(2026, 5, 1, 0, 0, 0, 0, loc))

	// 12:00: la de las 08:00 venció hace rato, la de las 20:00 todavía no abre.
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, loc)
	st := Classify(r, loc, nil, now)

	if st.Section != SectionOverdue {
		t.Fatalf("expected overdue, got %s", st.Section)
	}
	if !st.IsOverdue {
		t.Fatal("expected IsOverdue")
	}
	if st.MissedSlot == nil || st.MissedSlotIndex != 0 {
		t.Fatalf("expected missed slot 0, got %v idx=%d", st.MissedSlot, st.MissedSlotIndex)
	}
	// La próxima sigue siendo la de las 20:00.
	want := time.Date(2026, 6, 10, 20, 0, 0, 0, loc)
	if st.NextDueAt == nil || !st.NextDueAt.Equal(want) {
		t.Fatalf("expected next 20:00, got %v", st.NextDueAt)
	}
}

func TestClassify_Fixed_LaterOutsideWindow(t *testing.T) {
	loc := time.UTC
	// StartDate hoy: no existe un slot de ayer que pudiera estar vencido.
	r := fixedRegimen([]string{"20:00"}, 60, time.Date(2026, 6, 10, 0, 0, 0, 0, loc))

	now := time.Date(2026, 6, 10, 9, 0, 0, 0, loc)
	st := Classify(r, loc, nil, now)

	if st.Section != SectionLater {
		t.Fatalf("expected later, got %s", st.Section)
	}
	if st.MinutesUntilDue != 11*60 {
		t.Fatalf("expected 660 minutes until due, got %d", st.MinutesUntilDue)
	}
}

func TestClassify_PRN_NeverScheduled(t *testing.T) {
	r := Regimen{ScheduleType: SchedulePRN, Active: true}
	st := Classify(r, time.UTC, nil, time.Now())

	if st.Section != SectionPRN {
		t.Fatalf("expected prn, got %s", st.Section)
	}
	if st.NextDueAt != nil {
		t.Fatal("prn must not have a next due time")
	}
}

func TestClassify_Interval_AnchorsOnLastGiven(t *testing.T) {
	loc := time.UTC
	r := Regimen{
		ScheduleType:  ScheduleInterval,
		IntervalHours: 8,
		CutoffMinutes: 60,
		Active:        true,
		StartDate:     time.Date(2026, 6, 1, 0, 0, 0, 0, loc),
	}

	last := time.Date(2026, 6, 10, 6, 0, 0, 0, loc)
	now := time.Date(2026, 6, 10, 14, 10, 0, 0, loc)
	st := Classify(r, loc, &last, now)

	want := time.Date(2026, 6, 10, 14, 0, 0, 0, loc)
	if st.NextDueAt == nil || !st.NextDueAt.Equal(want) {
		t.Fatalf("expected next %v, got %v", want, st.NextDueAt)
	}
	if st.Section != SectionDue {
		t.Fatalf("expected due, got %s", st.Section)
	}
}

func TestClassify_Interval_NoHistoryUsesStartDate(t *testing.T) {
	loc := time.UTC
	start := time.Date(2026, 6, 10, 9, 0, 0, 0, loc)
	r := Regimen{
		ScheduleType:  ScheduleInterval,
		IntervalHours: 12,
		CutoffMinutes: 30,
		Active:        true,
		StartDate:     start,
	}

	st := Classify(r, loc, nil, start.Add(5*time.Minute))
	if st.NextDueAt == nil || !st.NextDueAt.Equal(start) {
		t.Fatalf("expected next to be StartDate, got %v", st.NextDueAt)
	}
}

func TestClassify_Interval_SubDailyDosesGetDistinctSlots(t *testing.T) {
	loc := time.UTC
	r := Regimen{
		ScheduleType:  ScheduleInterval,
		IntervalHours: 8,
		CutoffMinutes: 60,
		Active:        true,
		StartDate:     time.Date(2026, 6, 1, 0, 0, 0, 0, loc),
	}

	// Cadena q8h del mismo día: dada a las 00:00 → próxima 08:00 (slot 1)
	// → dada → próxima 16:00 (slot 2). Dosis del mismo día nunca comparten
	// ordinal, así que cada una produce clave de idempotencia propia.
	midnight := time.Date(2026, 6, 10, 0, 0, 0, 0, loc)
	morning := midnight.Add(8 * time.Hour)

	st1 := Classify(r, loc, &midnight, midnight.Add(10*time.Minute))
	if st1.NextDueAt == nil || !st1.NextDueAt.Equal(morning) {
		t.Fatalf("expected next at 08:00, got %v", st1.NextDueAt)
	}
	if st1.SlotIndex != 1 || st1.LocalDay != "2026-06-10" {
		t.Fatalf("expected slot 1 on 2026-06-10, got slot %d on %s", st1.SlotIndex, st1.LocalDay)
	}

	st2 := Classify(r, loc, &morning, morning.Add(10*time.Minute))
	if st2.SlotIndex != 2 || st2.LocalDay != "2026-06-10" {
		t.Fatalf("expected slot 2 on 2026-06-10, got slot %d on %s", st2.SlotIndex, st2.LocalDay)
	}
	if st1.SlotIndex == st2.SlotIndex {
		t.Fatal("same-day interval doses must not share a slot ordinal")
	}

	evening := morning.Add(8 * time.Hour)
	st3 := Classify(r, loc, &evening, evening.Add(10*time.Minute))
	if st3.LocalDay != "2026-06-11" || st3.SlotIndex != 0 {
		t.Fatalf("midnight dose must roll to the next local day at slot 0, got %s slot %d", st3.LocalDay, st3.SlotIndex)
	}
}

func TestIntervalSlot_Ordinals(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		name  string
		at    time.Time
		hours int
		want  int
	}{
		{"q8h first bucket", time.Date(2026, 6, 10, 0, 30, 0, 0, loc), 8, 0},
		{"q8h second bucket", time.Date(2026, 6, 10, 8, 30, 0, 0, loc), 8, 1},
		{"q8h third bucket", time.Date(2026, 6, 10, 16, 30, 0, 0, loc), 8, 2},
		{"q12h evening", time.Date(2026, 6, 10, 21, 0, 0, 0, loc), 12, 1},
		{"q24h always zero", time.Date(2026, 6, 10, 23, 0, 0, 0, loc), 24, 0},
		{"q48h always zero", time.Date(2026, 6, 10, 23, 0, 0, 0, loc), 48, 0},
		{"q7h last bucket", time.Date(2026, 6, 10, 22, 0, 0, 0, loc), 7, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IntervalSlot(tc.at, loc, tc.hours); got != tc.want {
				t.Fatalf("expected slot %d, got %d", tc.want, got)
			}
		})
	}

	if MaxIntervalSlot(8) != 2 {
		t.Fatalf("expected max slot 2 for q8h, got %d", MaxIntervalSlot(8))
	}
	if MaxIntervalSlot(24) != 0 {
		t.Fatalf("expected max slot 0 for q24h, got %d", MaxIntervalSlot(24))
	}
}

func TestClassify_Deterministic(t *testing.T) {
	loc := time.UTC
	r := fixedRegimen([]string{"08:00", "14:00", "20:00"}, 45, time.Date(2026, 5, 1, 0, 0, 0, 0, loc))
	now := time.Date(2026, 6, 10, 13, 40, 0, 0, loc)

	a := Classify(r, loc, nil, now)
	b := Classify(r, loc, nil, now)

	if a.Section != b.Section || a.SlotIndex != b.SlotIndex || a.LocalDay != b.LocalDay {
		t.Fatalf("same inputs must classify identically: %+v vs %+v", a, b)
	}
	if (a.NextDueAt == nil) != (b.NextDueAt == nil) {
		t.Fatal("NextDueAt presence differs between identical calls")
	}
	if a.NextDueAt != nil && !a.NextDueAt.Equal(*b.NextDueAt) {
		t.Fatalf("NextDueAt differs: %v vs %v", a.NextDueAt, b.NextDueAt)
	}
}

func TestClassify_Fixed_RespectsEndDate(t *testing.T) {
	loc := time.UTC
	end := time.Date(2026, 6, 9, 23, 59, 0, 0, loc)
	r := fixedRegimen([]string{"08:00"}, 60, time.Date(2026, 5, 1, 0, 0, 0, 0, loc))
	r.EndDate = &end

	// Pasado EndDate no se generan más horarios.
	now := time.Date(2026, 6, 10, 7, 30, 0, 0, loc)
	st := Classify(r, loc, nil, now)

	if st.NextDueAt != nil && st.NextDueAt.After(end) {
		t.Fatalf("slot beyond EndDate leaked: %v", *st.NextDueAt)
	}
}

func TestSlotInstant_RebuildsKeySlot(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	r := fixedRegimen([]string{"08:00", "23:30"}, 60, time.Date(2026, 5, 1, 0, 0, 0, 0, loc))

	at, err := SlotInstant(r, loc, "2026-06-01", 1)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 6, 1, 23, 30, 0, 0, loc)
	if !at.Equal(want) {
		t.Fatalf("expected %v, got %v", want, at)
	}

	if _, err := SlotInstant(r, loc, "2026-06-01", 5); err == nil {
		t.Fatal("expected error for slot index out of range")
	}
}

func TestLocalDay_UsesAnimalZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}

	// 03:00 UTC es todavía el día anterior en NY.
	at := time.Date(2026, 6, 2, 3, 0, 0, 0, time.UTC)
	if got := LocalDay(at, loc); got != "2026-06-01" {
		t.Fatalf("expected 2026-06-01, got %s", got)
	}
}
