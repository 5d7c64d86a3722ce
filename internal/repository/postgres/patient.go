package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/medcohort/eligibility-api/internal/model"
	"github.com/medcohort/eligibility-api/internal/repository"
	apperrors "github.com/medcohort/eligibility-api/pkg/errors"
)

type patientStore struct {
	db *sqlx.DB
}

func NewPatientStore(db *sqlx.DB) repository.PatientStore {
	return &patientStore{db: db}
}

func (r *patientStore) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientStore) ListPatients(ctx context.Context, page, pageSize int, search string) ([]model.Patient, int, error) {
	where := ``
	args := []interface{}{}
	if search != "" {
		where = `WHERE family_name ILIKE $1 OR given_name ILIKE $1 OR id ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM patients ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	offset := (page - 1) * pageSize
	listQuery := fmt.Sprintf(`
		SELECT * FROM patients %s
		ORDER BY family_name NULLS LAST, given_name NULLS LAST, id
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, offset)

	var patients []model.Patient
	if err := r.db.SelectContext(ctx, &patients, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}
