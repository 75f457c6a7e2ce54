package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"pet-med-tracker/internal/domain/regimens"
)

type RegimensRepo struct {
	db *sql.DB
}

func NewRegimensRepo(db *sql.DB) *RegimensRepo {
	return &RegimensRepo{db: db}
}

const regimenColumns = `
	id, household_id, animal_id,
	medication_id, medication_name, dose,
	schedule_type, times_local, interval_hours, cutoff_minutes,
	high_risk, requires_cosign, taper_notes,
	active, paused_at, pause_reason,
	start_date, end_date,
	created_at, updated_at
`

func (r *RegimensRepo) Create(ctx context.Context, reg regimens.Regimen) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO regimens (`+regimenColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		reg.ID,
		reg.HouseholdID,
		reg.AnimalID,
		reg.MedicationID,
		reg.MedicationName,
		reg.Dose,
		string(reg.ScheduleType),
		jsonStrings(reg.TimesLocal),
		reg.IntervalHours,
		reg.CutoffMinutes,
		reg.HighRisk,
		reg.RequiresCoSign,
		reg.TaperNotes,
		reg.Active,
		toNullTime(reg.PausedAt),
		reg.PauseReason,
		reg.StartDate,
		toNullTime(reg.EndDate),
		reg.CreatedAt,
		reg.UpdatedAt,
	)
	return err
}

func (r *RegimensRepo) Update(ctx context.Context, reg regimens.Regimen) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE regimens
		SET
			medication_name = $2,
			dose = $3,
			times_local = $4,
			interval_hours = $5,
			cutoff_minutes = $6,
			high_risk = $7,
			requires_cosign = $8,
			taper_notes = $9,
			active = $10,
			paused_at = $11,
			pause_reason = $12,
			end_date = $13,
			updated_at = $14
		WHERE id = $1
	`,
		reg.ID,
		reg.MedicationName,
		reg.Dose,
		jsonStrings(reg.TimesLocal),
		reg.IntervalHours,
		reg.CutoffMinutes,
		reg.HighRisk,
		reg.RequiresCoSign,
		reg.TaperNotes,
		reg.Active,
		toNullTime(reg.PausedAt),
		reg.PauseReason,
		toNullTime(reg.EndDate),
		reg.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RegimensRepo) GetByID(ctx context.Context, id string) (regimens.Regimen, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return regimens.Regimen{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+regimenColumns+` FROM regimens WHERE id = $1`, id)
	reg, err := scanRegimen(row)
	if err == sql.ErrNoRows {
		return regimens.Regimen{}, ErrNotFound
	}
	return reg, err
}

func (r *RegimensRepo) ListByHousehold(ctx context.Context, householdID string, filter regimens.ListFilter) ([]regimens.Regimen, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + regimenColumns + ` FROM regimens WHERE household_id = $1`)

	args := []any{householdID}

	if filter.AnimalID != "" {
		sb.WriteString(` AND animal_id = $2`)
		args = append(args, filter.AnimalID)
	}
	if !filter.IncludeArchived {
		sb.WriteString(` AND active = TRUE`)
	}
	sb.WriteString(` ORDER BY created_at`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]regimens.Regimen, 0)
	for rows.Next() {
		reg, err := scanRegimen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegimen(row rowScanner) (regimens.Regimen, error) {
	var reg regimens.Regimen
	var scheduleType string
	var times []byte
	var pausedAt, endDate sql.NullTime

	if err := row.Scan(
		&reg.ID,
		&reg.HouseholdID,
		&reg.AnimalID,
		&reg.MedicationID,
		&reg.MedicationName,
		&reg.Dose,
		&scheduleType,
		&times,
		&reg.IntervalHours,
		&reg.CutoffMinutes,
		&reg.HighRisk,
		&reg.RequiresCoSign,
		&reg.TaperNotes,
		&reg.Active,
		&pausedAt,
		&reg.PauseReason,
		&reg.StartDate,
		&endDate,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	); err != nil {
		return regimens.Regimen{}, err
	}

	reg.ScheduleType = regimens.ScheduleType(scheduleType)
	reg.TimesLocal = parseStrings(times)
	reg.PausedAt = fromNullTime(pausedAt)
	reg.EndDate = fromNullTime(endDate)
	return reg, nil
}

// Las listas de texto viajan como JSONB: database/sql con el driver stdlib
// de pgx no sabe escanear arrays de Postgres en []string.
func jsonStrings(in []string) []byte {
	if in == nil {
		in = []string{}
	}
	b, _ := json.Marshal(in)
	return b
}

func parseStrings(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	_ = json.Unmarshal(raw, &out)
	return out
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
