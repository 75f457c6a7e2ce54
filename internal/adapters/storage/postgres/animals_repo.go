package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-med-tracker/internal/domain/animals"
)

type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animals (
			id, household_id,
			name, species, timezone,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		a.ID,
		a.HouseholdID,
		a.Name,
		a.Species,
		a.Timezone,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.Animal{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, household_id, name, species, timezone, created_at, updated_at
		FROM animals
		WHERE id = $1
	`, id)

	var a animals.Animal
	if err := row.Scan(&a.ID, &a.HouseholdID, &a.Name, &a.Species, &a.Timezone, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return animals.Animal{}, ErrNotFound
		}
		return animals.Animal{}, err
	}
	return a, nil
}

func (r *AnimalsRepo) ListByHousehold(ctx context.Context, householdID string) ([]animals.Animal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, household_id, name, species, timezone, created_at, updated_at
		FROM animals
		WHERE household_id = $1
		ORDER BY name
	`, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		var a animals.Animal
		if err := rows.Scan(&a.ID, &a.HouseholdID, &a.Name, &a.Species, &a.Timezone, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
