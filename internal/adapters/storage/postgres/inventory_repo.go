package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pet-med-tracker/internal/domain/inventory"
)

type InventoryRepo struct {
	db *sql.DB
}

func NewInventoryRepo(db *sql.DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

const inventoryColumns = `
	id, household_id, medication_id,
	lot, expires_on,
	units_remaining, quantity_total,
	assigned_animal_id, in_use,
	created_at, updated_at
`

func (r *InventoryRepo) Create(ctx context.Context, it inventory.Item) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory_items (`+inventoryColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		it.ID,
		it.HouseholdID,
		it.MedicationID,
		it.Lot,
		toNullTime(it.ExpiresOn),
		it.UnitsRemaining,
		it.QuantityTotal,
		it.AssignedAnimalID,
		it.InUse,
		it.CreatedAt,
		it.UpdatedAt,
	)
	return err
}

func (r *InventoryRepo) GetByID(ctx context.Context, id string) (inventory.Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return inventory.Item{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = $1`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return inventory.Item{}, ErrNotFound
	}
	return it, err
}

func (r *InventoryRepo) ListSources(ctx context.Context, householdID string, filter inventory.SourceFilter) ([]inventory.Item, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + inventoryColumns + ` FROM inventory_items WHERE household_id = $1`)

	args := []any{householdID}
	argN := 2

	if filter.MedicationID != "" {
		sb.WriteString(` AND medication_id = $2`)
		args = append(args, filter.MedicationID)
		argN++
	}
	if !filter.IncludeExpired {
		sb.WriteString(` AND (expires_on IS NULL OR expires_on >= NOW())`)
	}
	if filter.AnimalID != "" {
		sb.WriteString(fmt.Sprintf(` AND (assigned_animal_id = '' OR assigned_animal_id = $%d)`, argN))
		args = append(args, filter.AnimalID)
	}

	// Primero lo que vence antes.
	sb.WriteString(` ORDER BY expires_on ASC NULLS LAST`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]inventory.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Adjust aplica delta con guarda contra negativos en el propio UPDATE.
func (r *InventoryRepo) Adjust(ctx context.Context, id string, delta int) (inventory.Item, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET units_remaining = units_remaining + $2, updated_at = NOW()
		WHERE id = $1 AND units_remaining + $2 >= 0
	`, id, delta)
	if err != nil {
		return inventory.Item{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// O no existe, o quedaría negativo.
		if _, err := r.GetByID(ctx, id); err != nil {
			return inventory.Item{}, ErrNotFound
		}
		return inventory.Item{}, inventory.ErrDepleted
	}
	return r.GetByID(ctx, id)
}

func scanItem(row rowScanner) (inventory.Item, error) {
	var it inventory.Item
	var expires sql.NullTime

	if err := row.Scan(
		&it.ID,
		&it.HouseholdID,
		&it.MedicationID,
		&it.Lot,
		&expires,
		&it.UnitsRemaining,
		&it.QuantityTotal,
		&it.AssignedAnimalID,
		&it.InUse,
		&it.CreatedAt,
		&it.UpdatedAt,
	); err != nil {
		return inventory.Item{}, err
	}

	it.ExpiresOn = fromNullTime(expires)
	return it, nil
}
