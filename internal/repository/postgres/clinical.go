package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/medcohort/eligibility-api/internal/model"
	"github.com/medcohort/eligibility-api/internal/repository"
)

type recordStore struct {
	db *sqlx.DB
}

func NewRecordStore(db *sqlx.DB) repository.RecordStore {
	return &recordStore{db: db}
}

func (r *recordStore) ListPatientIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM patients ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list patient ids: %w", err)
	}
	return ids, nil
}

// PatientRecord loads everything the eligibility engine reads for one
// patient. ORDER BY seq replays ingestion order so date ties break the same
// way on every run.
func (r *recordStore) PatientRecord(ctx context.Context, patientID string) (*model.PatientRecord, error) {
	rec := &model.PatientRecord{PatientID: patientID}

	conditionQuery := `
		SELECT id, patient_id, encounter_id, clinical_status, verification_status,
		       code_system, code, display, semantic_tag, onset_date_time,
		       abatement_date_time, recorded_date
		FROM conditions WHERE patient_id = $1 ORDER BY seq
	`
	if err := r.db.SelectContext(ctx, &rec.Conditions, conditionQuery, patientID); err != nil {
		return nil, fmt.Errorf("failed to load conditions: %w", err)
	}

	observationQuery := `
		SELECT id, patient_id, encounter_id, status, category, code_system,
		       code, display, effective_date_time, value_quantity, value_unit,
		       value_code, value_display, component_json
		FROM observations WHERE patient_id = $1 ORDER BY seq
	`
	if err := r.db.SelectContext(ctx, &rec.Observations, observationQuery, patientID); err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}

	procedureQuery := `
		SELECT id, patient_id, encounter_id, status, code_system, code, display,
		       performed_start, performed_end, reason_code, reason_display
		FROM procedures WHERE patient_id = $1 ORDER BY seq
	`
	if err := r.db.SelectContext(ctx, &rec.Procedures, procedureQuery, patientID); err != nil {
		return nil, fmt.Errorf("failed to load procedures: %w", err)
	}

	return rec, nil
}

type medicationStore struct {
	db *sqlx.DB
}

func NewMedicationStore(db *sqlx.DB) repository.MedicationStore {
	return &medicationStore{db: db}
}

func (r *medicationStore) ListMedicationRequests(ctx context.Context, patientID string) ([]model.MedicationRequest, error) {
	query := `
		SELECT * FROM medication_requests
		WHERE patient_id = $1
		ORDER BY authored_on DESC NULLS LAST, id
	`
	var meds []model.MedicationRequest
	if err := r.db.SelectContext(ctx, &meds, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list medication requests: %w", err)
	}
	return meds, nil
}
