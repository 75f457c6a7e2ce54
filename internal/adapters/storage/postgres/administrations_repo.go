package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"pet-med-tracker/internal/domain/administrations"
	"pet-med-tracker/internal/domain/inventory"
)

type AdministrationsRepo struct {
	db *sql.DB
}

func NewAdministrationsRepo(db *sql.DB) *AdministrationsRepo {
	return &AdministrationsRepo{db: db}
}

const administrationColumns = `
	id, household_id, regimen_id, animal_id, caregiver_id,
	scheduled_for, recorded_at, status,
	source_inventory_item_id, idempotency_key,
	notes, site, condition_tags, media_urls,
	pending_cosign
`

// Record corre en una sola transacción: insert de la administración (la
// clave de idempotencia tiene UNIQUE), descuento de inventario con guarda
// units_remaining >= 1 y alta de la solicitud de co-firma. Un crash entre
// pasos es imposible: o se confirma todo o nada.
//
// Si el insert pierde contra un envío concurrente con la misma clave, la
// violación de unicidad se traduce en leer la fila ganadora y devolver
// created=false, sin duplicado ni deadlock.
func (r *AdministrationsRepo) Record(ctx context.Context, a administrations.Administration, side administrations.SideEffects) (administrations.Administration, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return administrations.Administration{}, false, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO administrations (`+administrationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		a.ID,
		a.HouseholdID,
		a.RegimenID,
		a.AnimalID,
		a.CaregiverID,
		toNullTime(a.ScheduledFor),
		a.RecordedAt,
		string(a.Status),
		a.SourceInventoryItemID,
		a.IdempotencyKey,
		a.Notes,
		a.Site,
		jsonStrings(a.ConditionTags),
		jsonStrings(a.MediaURLs),
		a.PendingCoSign,
	)
	if err != nil {
		if isUniqueViolation(err) {
			existing, gerr := r.GetByKey(ctx, a.IdempotencyKey)
			if gerr != nil {
				return administrations.Administration{}, false, gerr
			}
			return existing, false, nil
		}
		return administrations.Administration{}, false, err
	}

	if side.InventoryItemID != "" {
		res, err := tx.ExecContext(ctx, `
			UPDATE inventory_items
			SET units_remaining = units_remaining - 1, updated_at = NOW()
			WHERE id = $1 AND units_remaining >= 1
		`, side.InventoryItemID)
		if err != nil {
			return administrations.Administration{}, false, err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return administrations.Administration{}, false, inventory.ErrDepleted
		}
	}

	if side.CoSign != nil {
		cs := side.CoSign
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cosign_requests (`+cosignColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			cs.AdministrationID,
			cs.HouseholdID,
			cs.RecordedBy,
			cs.RequiredAt,
			cs.ExpiresAt,
			cs.CoSignerID,
			string(cs.Status),
			toNullTime(cs.CompletedAt),
		)
		if err != nil {
			return administrations.Administration{}, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return administrations.Administration{}, false, err
	}
	return a, true, nil
}

func (r *AdministrationsRepo) GetByID(ctx context.Context, id string) (administrations.Administration, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return administrations.Administration{}, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+administrationColumns+` FROM administrations WHERE id = $1`, id)
	return scanAdministration(row)
}

func (r *AdministrationsRepo) GetByKey(ctx context.Context, key string) (administrations.Administration, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return administrations.Administration{}, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+administrationColumns+` FROM administrations WHERE idempotency_key = $1`, key)
	return scanAdministration(row)
}

func (r *AdministrationsRepo) ListByRegimen(ctx context.Context, regimenID string, limit int) ([]administrations.Administration, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + administrationColumns + ` FROM administrations WHERE regimen_id = $1 ORDER BY recorded_at DESC`)

	args := []any{regimenID}
	if limit > 0 {
		sb.WriteString(` LIMIT $2`)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]administrations.Administration, 0)
	for rows.Next() {
		a, err := scanAdministration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AdministrationsRepo) LastGivenAt(ctx context.Context, regimenID string) (*time.Time, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT MAX(recorded_at)
		FROM administrations
		WHERE regimen_id = $1 AND status <> 'MISSED'
	`, regimenID)

	var last sql.NullTime
	if err := row.Scan(&last); err != nil {
		return nil, err
	}
	return fromNullTime(last), nil
}

func scanAdministration(row rowScanner) (administrations.Administration, error) {
	var a administrations.Administration
	var scheduledFor sql.NullTime
	var status string
	var tags, urls []byte

	if err := row.Scan(
		&a.ID,
		&a.HouseholdID,
		&a.RegimenID,
		&a.AnimalID,
		&a.CaregiverID,
		&scheduledFor,
		&a.RecordedAt,
		&status,
		&a.SourceInventoryItemID,
		&a.IdempotencyKey,
		&a.Notes,
		&a.Site,
		&tags,
		&urls,
		&a.PendingCoSign,
	); err != nil {
		if err == sql.ErrNoRows {
			return administrations.Administration{}, ErrNotFound
		}
		return administrations.Administration{}, err
	}

	a.ScheduledFor = fromNullTime(scheduledFor)
	a.Status = administrations.Status(status)
	a.ConditionTags = parseStrings(tags)
	a.MediaURLs = parseStrings(urls)
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
