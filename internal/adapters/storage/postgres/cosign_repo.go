package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-med-tracker/internal/domain/cosign"
)

type CoSignRepo struct {
	db *sql.DB
}

func NewCoSignRepo(db *sql.DB) *CoSignRepo {
	return &CoSignRepo{db: db}
}

const cosignColumns = `
	administration_id, household_id, recorded_by,
	required_at, expires_at,
	cosigner_id, status, completed_at
`

func (r *CoSignRepo) GetByAdministration(ctx context.Context, administrationID string) (cosign.Request, error) {
	administrationID = strings.TrimSpace(administrationID)
	if administrationID == "" {
		return cosign.Request{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+cosignColumns+`
		FROM cosign_requests
		WHERE administration_id = $1
	`, administrationID)

	var req cosign.Request
	var status string
	var completedAt sql.NullTime
	if err := row.Scan(
		&req.AdministrationID,
		&req.HouseholdID,
		&req.RecordedBy,
		&req.RequiredAt,
		&req.ExpiresAt,
		&req.CoSignerID,
		&status,
		&completedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return cosign.Request{}, ErrNotFound
		}
		return cosign.Request{}, err
	}

	req.Status = cosign.Status(status)
	req.CompletedAt = fromNullTime(completedAt)
	return req, nil
}

func (r *CoSignRepo) Update(ctx context.Context, req cosign.Request) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cosign_requests
		SET cosigner_id = $2, status = $3, completed_at = $4
		WHERE administration_id = $1
	`,
		req.AdministrationID,
		req.CoSignerID,
		string(req.Status),
		toNullTime(req.CompletedAt),
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
