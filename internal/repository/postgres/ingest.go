package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/medcohort/eligibility-api/internal/model"
	"github.com/medcohort/eligibility-api/internal/repository"
)

type ingestStore struct {
	db *sqlx.DB
}

func NewIngestStore(db *sqlx.DB) repository.IngestStore {
	return &ingestStore{db: db}
}

// BeginRebuild creates a fresh staging table set. Any staging leftovers from
// an earlier aborted run are discarded first.
func (r *ingestStore) BeginRebuild(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DROP SCHEMA IF EXISTS staging CASCADE`); err != nil {
		return fmt.Errorf("failed to drop stale staging schema: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `CREATE SCHEMA staging`); err != nil {
		return fmt.Errorf("failed to create staging schema: %w", err)
	}
	for _, ddl := range stagingDDL {
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create staging table: %w", err)
		}
	}
	return nil
}

// CommitRebuild swaps the staging tables live in one transaction. Postgres
// DDL is transactional, so a reader sees either the complete previous table
// set or the complete new one, never a mix.
func (r *ingestStore) CommitRebuild(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin swap transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range swapTables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS public.%s CASCADE`, table)); err != nil {
			return fmt.Errorf("failed to drop live table %s: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE staging.%s SET SCHEMA public`, table)); err != nil {
			return fmt.Errorf("failed to swap table %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DROP SCHEMA staging CASCADE`); err != nil {
		return fmt.Errorf("failed to drop staging schema: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit swap: %w", err)
	}
	return nil
}

// AbortRebuild discards the staging tables, leaving the live set untouched.
func (r *ingestStore) AbortRebuild(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DROP SCHEMA IF EXISTS staging CASCADE`); err != nil {
		return fmt.Errorf("failed to discard staging schema: %w", err)
	}
	return nil
}

// dedupePatients keeps the last row per id. A multi-row upsert that touches
// the same row twice is an error in Postgres; the last occurrence wins,
// matching what sequential upserts would leave behind.
func dedupePatients(rows []model.Patient) []model.Patient {
	index := make(map[string]int, len(rows))
	out := make([]model.Patient, 0, len(rows))
	for _, row := range rows {
		if i, ok := index[row.ID]; ok {
			out[i] = row
			continue
		}
		index[row.ID] = len(out)
		out = append(out, row)
	}
	return out
}

func (r *ingestStore) InsertPatients(ctx context.Context, rows []model.Patient) error {
	rows = dedupePatients(rows)
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.patients (
			id, family_name, given_name, prefix, gender, birth_date,
			deceased_date_time, race, ethnicity, address_city, address_state,
			marital_status, raw_json
		) VALUES (
			:id, :family_name, :given_name, :prefix, :gender, :birth_date,
			:deceased_date_time, :race, :ethnicity, :address_city, :address_state,
			:marital_status, :raw_json
		)
		ON CONFLICT (id) DO UPDATE SET
			family_name = EXCLUDED.family_name,
			given_name = EXCLUDED.given_name,
			prefix = EXCLUDED.prefix,
			gender = EXCLUDED.gender,
			birth_date = EXCLUDED.birth_date,
			deceased_date_time = EXCLUDED.deceased_date_time,
			race = EXCLUDED.race,
			ethnicity = EXCLUDED.ethnicity,
			address_city = EXCLUDED.address_city,
			address_state = EXCLUDED.address_state,
			marital_status = EXCLUDED.marital_status,
			raw_json = EXCLUDED.raw_json
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert patients: %w", err)
	}
	return nil
}

func (r *ingestStore) InsertConditions(ctx context.Context, rows []model.Condition) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.conditions (
			id, patient_id, encounter_id, clinical_status, verification_status,
			code_system, code, display, semantic_tag, onset_date_time,
			abatement_date_time, recorded_date
		) VALUES (
			:id, :patient_id, :encounter_id, :clinical_status, :verification_status,
			:code_system, :code, :display, :semantic_tag, :onset_date_time,
			:abatement_date_time, :recorded_date
		)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert conditions: %w", err)
	}
	return nil
}

// CopyObservations bulk-loads one batch through the COPY protocol.
// Observations are an order of magnitude more numerous than any other
// resource type, so they skip per-statement overhead entirely.
func (r *ingestStore) CopyObservations(ctx context.Context, rows []model.Observation) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin copy transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema("staging", "observations",
		"id", "patient_id", "encounter_id", "status", "category",
		"code_system", "code", "display", "effective_date_time",
		"value_quantity", "value_unit", "value_code", "value_display",
		"component_json",
	))
	if err != nil {
		return fmt.Errorf("failed to prepare observation copy: %w", err)
	}

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.ID, row.PatientID, row.EncounterID, row.Status, row.Category,
			row.CodeSystem, row.Code, row.Display, row.EffectiveDateTime,
			row.ValueQuantity, row.ValueUnit, row.ValueCode, row.ValueDisplay,
			row.ComponentJSON,
		); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to buffer observation %s: %w", row.ID, err)
		}
	}
	// Final empty Exec flushes the COPY stream.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush observation copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close observation copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit observation copy: %w", err)
	}
	return nil
}

func (r *ingestStore) InsertProcedures(ctx context.Context, rows []model.Procedure) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.procedures (
			id, patient_id, encounter_id, status, code_system, code, display,
			performed_start, performed_end, reason_code, reason_display
		) VALUES (
			:id, :patient_id, :encounter_id, :status, :code_system, :code, :display,
			:performed_start, :performed_end, :reason_code, :reason_display
		)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert procedures: %w", err)
	}
	return nil
}

func (r *ingestStore) InsertEncounters(ctx context.Context, rows []model.Encounter) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.encounters (
			id, patient_id, status, encounter_class, type_code, type_display,
			period_start, period_end, practitioner_display, location_display,
			organization_display
		) VALUES (
			:id, :patient_id, :status, :encounter_class, :type_code, :type_display,
			:period_start, :period_end, :practitioner_display, :location_display,
			:organization_display
		)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert encounters: %w", err)
	}
	return nil
}

func (r *ingestStore) InsertMedicationRequests(ctx context.Context, rows []model.MedicationRequest) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.medication_requests (
			id, patient_id, encounter_id, status, intent, medication_code,
			medication_display, authored_on, reason_code, reason_display
		) VALUES (
			:id, :patient_id, :encounter_id, :status, :intent, :medication_code,
			:medication_display, :authored_on, :reason_code, :reason_display
		)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert medication requests: %w", err)
	}
	return nil
}

func (r *ingestStore) InsertDocumentReferences(ctx context.Context, rows []model.DocumentReference) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.document_references (
			id, patient_id, status, type_code, type_display, date,
			content_text, author_display
		) VALUES (
			:id, :patient_id, :status, :type_code, :type_display, :date,
			:content_text, :author_display
		)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert document references: %w", err)
	}
	return nil
}

func (r *ingestStore) InsertAllergyIntolerances(ctx context.Context, rows []model.AllergyIntolerance) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.allergy_intolerances (
			id, patient_id, clinical_status, verification_status, allergy_type,
			category, criticality, code, display, recorded_date
		) VALUES (
			:id, :patient_id, :clinical_status, :verification_status, :allergy_type,
			:category, :criticality, :code, :display, :recorded_date
		)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert allergy intolerances: %w", err)
	}
	return nil
}

func (r *ingestStore) InsertDevices(ctx context.Context, rows []model.Device) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.devices (
			id, patient_id, status, device_name, type_code, type_display,
			manufacture_date, expiration_date
		) VALUES (
			:id, :patient_id, :status, :device_name, :type_code, :type_display,
			:manufacture_date, :expiration_date
		)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert devices: %w", err)
	}
	return nil
}

func (r *ingestStore) InsertImmunizations(ctx context.Context, rows []model.Immunization) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.immunizations (
			id, patient_id, encounter_id, status, vaccine_code, vaccine_display,
			occurrence_date_time, location_display
		) VALUES (
			:id, :patient_id, :encounter_id, :status, :vaccine_code, :vaccine_display,
			:occurrence_date_time, :location_display
		)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert immunizations: %w", err)
	}
	return nil
}

func (r *ingestStore) InsertPractitioners(ctx context.Context, rows []model.Practitioner) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.practitioners (id, npi, family_name, given_name, prefix)
		VALUES (:id, :npi, :family_name, :given_name, :prefix)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert practitioners: %w", err)
	}
	return nil
}

func (r *ingestStore) InsertOrganizations(ctx context.Context, rows []model.Organization) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.organizations (id, identifier_value, name)
		VALUES (:id, :identifier_value, :name)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert organizations: %w", err)
	}
	return nil
}

func (r *ingestStore) InsertLocations(ctx context.Context, rows []model.Location) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO staging.locations (
			id, identifier_value, status, name, address_city, address_state,
			phone, managing_org_display
		) VALUES (
			:id, :identifier_value, :status, :name, :address_city, :address_state,
			:phone, :managing_org_display
		)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to insert locations: %w", err)
	}
	return nil
}
