package regimens

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DoseStatus es el resultado del cálculo de horarios para un régimen.
type DoseStatus struct {
	Section         Section
	NextDueAt       *time.Time
	MinutesUntilDue int
	IsOverdue       bool

	// SlotIndex identifica qué horario del día corresponde a NextDueAt.
	// Para FIXED/TAPER es la posición dentro de TimesLocal; para INTERVAL
	// es el ordinal IntervalSlot de NextDueAt dentro de su día local. -1
	// para PRN.
	SlotIndex int
	// LocalDay es el día calendario (zona del animal) al que pertenece
	// NextDueAt, en formato ISO. Es el día que usa la clave de idempotencia.
	LocalDay string

	// MissedSlot es el horario vencido más reciente cuando Section=overdue.
	// Quien consume el cálculo decide si ya fue registrado (el cálculo es
	// puro y no conoce las administraciones).
	MissedSlot      *time.Time
	MissedSlotIndex int
	MissedLocalDay  string
}

// Classify calcula la sección (due/later/overdue/prn) y la próxima dosis de
// un régimen. Es una función pura: recibe now y la zona del animal de forma
// explícita y no lee reloj global ni estado compartido.
//
// lastGivenAt solo aplica a INTERVAL (ancla del próximo intervalo); para el
// resto de tipos se ignora.
//
// Toda la aritmética se hace sobre instantes convertidos a la zona del
// animal; nunca se comparan strings "HH:MM" entre sí, de modo que los
// horarios pegados a medianoche ruedan correctamente de día calendario.
func Classify(r Regimen, loc *time.Location, lastGivenAt *time.Time, now time.Time) DoseStatus {
	switch r.ScheduleType {
	case SchedulePRN:
		// A demanda: nunca hay próxima dosis programada.
		return DoseStatus{Section: SectionPRN, SlotIndex: -1, MissedSlotIndex: -1}
	case ScheduleInterval:
		return classifyInterval(r, loc, lastGivenAt, now)
	case ScheduleFixed, ScheduleTaper:
		// TAPER se agenda igual que FIXED: la cantidad por día varía pero
		// eso es presentación (TaperNotes), no cálculo de horarios.
		return classifyFixed(r, loc, now)
	default:
		// Tipo desconocido: lo tratamos como PRN visible, nunca lo ocultamos.
		return DoseStatus{Section: SectionPRN, SlotIndex: -1, MissedSlotIndex: -1}
	}
}

type slotInstant struct {
	at       time.Time
	index    int
	localDay string
}

// slotsAround genera los horarios FIXED de ayer/hoy/mañana en la zona dada,
// acotados por StartDate/EndDate. Tres días bastan: la ventana de gracia es
// de minutos, nunca cruza más de un límite de día.
func slotsAround(r Regimen, loc *time.Location, now time.Time) []slotInstant {
	nowLoc := now.In(loc)

	out := make([]slotInstant, 0, len(r.TimesLocal)*3)
	for dayOffset := -1; dayOffset <= 1; dayOffset++ {
		day := nowLoc.AddDate(0, 0, dayOffset)
		for i, hhmm := range r.TimesLocal {
			hh, mm, err := parseHHMM(hhmm)
			if err != nil {
				continue
			}
			at := time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, loc)
			if at.Before(r.StartDate) {
				continue
			}
			if r.EndDate != nil && at.After(*r.EndDate) {
				continue
			}
			out = append(out, slotInstant{
				at:       at,
				index:    i,
				localDay: at.In(loc).Format("2006-01-02"),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	return out
}

func classifyFixed(r Regimen, loc *time.Location, now time.Time) DoseStatus {
	cutoff := time.Duration(r.CutoffMinutes) * time.Minute
	slots := slotsAround(r, loc, now)

	// next: el horario más temprano que aún no venció (slot+cutoff > now).
	// prev: el horario pasado más reciente.
	var next, prev *slotInstant
	for i := range slots {
		s := &slots[i]
		if next == nil && s.at.Add(cutoff).After(now) {
			next = s
		}
		if !s.at.After(now) {
			prev = s
		}
	}

	st := DoseStatus{Section: SectionLater, SlotIndex: -1, MissedSlotIndex: -1}
	if next != nil {
		at := next.at
		st.NextDueAt = &at
		st.MinutesUntilDue = int(at.Sub(now) / time.Minute)
		st.SlotIndex = next.index
		st.LocalDay = next.localDay
	}

	// Dentro de la ventana [slot-cutoff, slot+cutoff] la dosis está due.
	if next != nil && !now.Before(next.at.Add(-cutoff)) {
		st.Section = SectionDue
		return st
	}

	// Un horario pasado fuera de ventana queda vencido hasta registrarse.
	if prev != nil && now.After(prev.at.Add(cutoff)) {
		at := prev.at
		st.Section = SectionOverdue
		st.IsOverdue = true
		st.MissedSlot = &at
		st.MissedSlotIndex = prev.index
		st.MissedLocalDay = prev.localDay
		return st
	}

	return st
}

func classifyInterval(r Regimen, loc *time.Location, lastGivenAt *time.Time, now time.Time) DoseStatus {
	next := NextIntervalDose(r, lastGivenAt)
	cutoff := time.Duration(r.CutoffMinutes) * time.Minute

	st := DoseStatus{
		NextDueAt:       &next,
		MinutesUntilDue: int(next.Sub(now) / time.Minute),
		SlotIndex:       IntervalSlot(next, loc, r.IntervalHours),
		MissedSlotIndex: -1,
		LocalDay:        next.In(loc).Format("2006-01-02"),
	}

	switch {
	case now.After(next.Add(cutoff)):
		st.Section = SectionOverdue
		st.IsOverdue = true
		at := next
		st.MissedSlot = &at
		st.MissedSlotIndex = st.SlotIndex
		st.MissedLocalDay = st.LocalDay
	case !now.Before(next.Add(-cutoff)):
		st.Section = SectionDue
	default:
		st.Section = SectionLater
	}
	return st
}

// NextIntervalDose devuelve el ancla de la próxima dosis INTERVAL:
// última administración + IntervalHours, o StartDate si no hay historial.
func NextIntervalDose(r Regimen, lastGivenAt *time.Time) time.Time {
	if lastGivenAt == nil {
		return r.StartDate
	}
	return lastGivenAt.Add(time.Duration(r.IntervalHours) * time.Hour)
}

// IntervalSlot devuelve el ordinal de una dosis INTERVAL dentro de su día
// local: el bucket de ancho IntervalHours en el que cae el horario. Dos
// dosis consecutivas del mismo día caen en buckets distintos (están a
// IntervalHours o más de distancia), así que cada una produce una clave
// de idempotencia determinista propia; un reintento de la misma dosis
// reproduce el mismo ordinal.
func IntervalSlot(t time.Time, loc *time.Location, intervalHours int) int {
	width := intervalHours * 60
	if intervalHours <= 0 || width >= 24*60 {
		return 0
	}
	lt := t.In(loc)
	return (lt.Hour()*60 + lt.Minute()) / width
}

// MaxIntervalSlot es el ordinal más alto que IntervalSlot puede producir
// para el intervalo dado; acota el slot que viaja en la clave.
func MaxIntervalSlot(intervalHours int) int {
	width := intervalHours * 60
	if intervalHours <= 0 || width >= 24*60 {
		return 0
	}
	return (24*60 - 1) / width
}

// LocalDay devuelve el día calendario ISO de t en la zona del animal.
// La clave de idempotencia siempre usa este día, nunca el del dispositivo
// del cuidador ni el de UTC.
func LocalDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// SlotInstant reconstruye el instante de un horario FIXED/TAPER a partir del
// día local y el slotIndex que viajan en la clave de idempotencia.
func SlotInstant(r Regimen, loc *time.Location, localDay string, slotIndex int) (time.Time, error) {
	if slotIndex < 0 || slotIndex >= len(r.TimesLocal) {
		return time.Time{}, fmt.Errorf("slot index %d out of range", slotIndex)
	}
	day, err := time.ParseInLocation("2006-01-02", localDay, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid local day: %w", err)
	}
	hh, mm, err := parseHHMM(r.TimesLocal[slotIndex])
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, loc), nil
}

func parseHHMM(s string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, errors.New("time must be HH:MM")
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, 0, errors.New("invalid hour")
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, 0, errors.New("invalid minute")
	}
	return hh, mm, nil
}
