package repository

import (
	"context"

	"github.com/medcohort/eligibility-api/internal/model"
)

// IngestStore is the write path used by the ingestion pipeline. Rows are
// written into a staging table set; CommitRebuild atomically points reads at
// the freshly built tables so a concurrent reader never observes a partial
// load.
type IngestStore interface {
	BeginRebuild(ctx context.Context) error
	CommitRebuild(ctx context.Context) error
	AbortRebuild(ctx context.Context) error

	InsertPatients(ctx context.Context, rows []model.Patient) error
	InsertConditions(ctx context.Context, rows []model.Condition) error
	// CopyObservations bulk-loads via COPY, bypassing per-row statement
	// overhead; observations are the highest-volume resource type.
	CopyObservations(ctx context.Context, rows []model.Observation) error
	InsertProcedures(ctx context.Context, rows []model.Procedure) error
	InsertEncounters(ctx context.Context, rows []model.Encounter) error
	InsertMedicationRequests(ctx context.Context, rows []model.MedicationRequest) error
	InsertDocumentReferences(ctx context.Context, rows []model.DocumentReference) error
	InsertAllergyIntolerances(ctx context.Context, rows []model.AllergyIntolerance) error
	InsertDevices(ctx context.Context, rows []model.Device) error
	InsertImmunizations(ctx context.Context, rows []model.Immunization) error
	InsertPractitioners(ctx context.Context, rows []model.Practitioner) error
	InsertOrganizations(ctx context.Context, rows []model.Organization) error
	InsertLocations(ctx context.Context, rows []model.Location) error
}

// PatientStore is the read path for patient demographics.
type PatientStore interface {
	GetPatient(ctx context.Context, id string) (*model.Patient, error)
	ListPatients(ctx context.Context, page, pageSize int, search string) ([]model.Patient, int, error)
}

// RecordStore loads full per-patient clinical records. Reads are safe to run
// concurrently; rows come back in ingestion order so date ties break the
// same way on every run.
type RecordStore interface {
	ListPatientIDs(ctx context.Context) ([]string, error)
	PatientRecord(ctx context.Context, patientID string) (*model.PatientRecord, error)
}

// MedicationStore feeds the review collaborator's patient context.
type MedicationStore interface {
	ListMedicationRequests(ctx context.Context, patientID string) ([]model.MedicationRequest, error)
}
