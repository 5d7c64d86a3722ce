package postgres

// Table DDL for the staging table set. Every rebuild creates these from
// scratch under the staging schema and swaps them live on commit, so the
// schema needs no migration tooling.
//
// Date and timestamp columns are TEXT holding the verbatim ISO-8601 source
// strings; ISO-8601 compares correctly as text and round-trips exactly.
// The seq column on the three clinical tables preserves ingestion order for
// deterministic date-tie-breaking on read.

// swapTables is the swap order on commit. Order matters only for reading
// the report, not for correctness: the whole swap is one transaction.
var swapTables = []string{
	"patients",
	"conditions",
	"observations",
	"procedures",
	"encounters",
	"medication_requests",
	"document_references",
	"allergy_intolerances",
	"devices",
	"immunizations",
	"practitioners",
	"organizations",
	"locations",
}

var stagingDDL = []string{
	`CREATE TABLE staging.patients (
		id                  TEXT PRIMARY KEY,
		family_name         TEXT,
		given_name          TEXT,
		prefix              TEXT,
		gender              TEXT,
		birth_date          TEXT,
		deceased_date_time  TEXT,
		race                TEXT,
		ethnicity           TEXT,
		address_city        TEXT,
		address_state       TEXT,
		marital_status      TEXT,
		raw_json            TEXT
	)`,

	`CREATE TABLE staging.conditions (
		seq                  BIGSERIAL,
		id                   TEXT PRIMARY KEY,
		patient_id           TEXT NOT NULL,
		encounter_id         TEXT,
		clinical_status      TEXT,
		verification_status  TEXT,
		code_system          TEXT,
		code                 TEXT,
		display              TEXT,
		semantic_tag         TEXT,
		onset_date_time      TEXT,
		abatement_date_time  TEXT,
		recorded_date        TEXT
	)`,
	`CREATE INDEX idx_conditions_patient ON staging.conditions (patient_id)`,

	`CREATE TABLE staging.observations (
		seq                  BIGSERIAL,
		id                   TEXT PRIMARY KEY,
		patient_id           TEXT NOT NULL,
		encounter_id         TEXT,
		status               TEXT,
		category             TEXT,
		code_system          TEXT,
		code                 TEXT,
		display              TEXT,
		effective_date_time  TEXT,
		value_quantity       DOUBLE PRECISION,
		value_unit           TEXT,
		value_code           TEXT,
		value_display        TEXT,
		component_json       TEXT
	)`,
	`CREATE INDEX idx_observations_patient ON staging.observations (patient_id)`,
	`CREATE INDEX idx_observations_code ON staging.observations (code)`,

	`CREATE TABLE staging.procedures (
		seq              BIGSERIAL,
		id               TEXT PRIMARY KEY,
		patient_id       TEXT NOT NULL,
		encounter_id     TEXT,
		status           TEXT,
		code_system      TEXT,
		code             TEXT,
		display          TEXT,
		performed_start  TEXT,
		performed_end    TEXT,
		reason_code      TEXT,
		reason_display   TEXT
	)`,
	`CREATE INDEX idx_procedures_patient ON staging.procedures (patient_id)`,

	`CREATE TABLE staging.encounters (
		id                    TEXT PRIMARY KEY,
		patient_id            TEXT NOT NULL,
		status                TEXT,
		encounter_class       TEXT,
		type_code             TEXT,
		type_display          TEXT,
		period_start          TEXT,
		period_end            TEXT,
		practitioner_display  TEXT,
		location_display      TEXT,
		organization_display  TEXT
	)`,
	`CREATE INDEX idx_encounters_patient ON staging.encounters (patient_id)`,

	`CREATE TABLE staging.medication_requests (
		id                  TEXT PRIMARY KEY,
		patient_id          TEXT NOT NULL,
		encounter_id        TEXT,
		status              TEXT,
		intent              TEXT,
		medication_code     TEXT,
		medication_display  TEXT,
		authored_on         TEXT,
		reason_code         TEXT,
		reason_display      TEXT
	)`,
	`CREATE INDEX idx_medication_requests_patient ON staging.medication_requests (patient_id)`,

	`CREATE TABLE staging.document_references (
		id              TEXT PRIMARY KEY,
		patient_id      TEXT NOT NULL,
		status          TEXT,
		type_code       TEXT,
		type_display    TEXT,
		date            TEXT,
		content_text    TEXT,
		author_display  TEXT
	)`,
	`CREATE INDEX idx_document_references_patient ON staging.document_references (patient_id)`,

	`CREATE TABLE staging.allergy_intolerances (
		id                   TEXT PRIMARY KEY,
		patient_id           TEXT NOT NULL,
		clinical_status      TEXT,
		verification_status  TEXT,
		allergy_type         TEXT,
		category             TEXT,
		criticality          TEXT,
		code                 TEXT,
		display              TEXT,
		recorded_date        TEXT
	)`,
	`CREATE INDEX idx_allergy_intolerances_patient ON staging.allergy_intolerances (patient_id)`,

	`CREATE TABLE staging.devices (
		id                TEXT PRIMARY KEY,
		patient_id        TEXT NOT NULL,
		status            TEXT,
		device_name       TEXT,
		type_code         TEXT,
		type_display      TEXT,
		manufacture_date  TEXT,
		expiration_date   TEXT
	)`,
	`CREATE INDEX idx_devices_patient ON staging.devices (patient_id)`,

	`CREATE TABLE staging.immunizations (
		id                    TEXT PRIMARY KEY,
		patient_id            TEXT NOT NULL,
		encounter_id          TEXT,
		status                TEXT,
		vaccine_code          TEXT,
		vaccine_display       TEXT,
		occurrence_date_time  TEXT,
		location_display      TEXT
	)`,
	`CREATE INDEX idx_immunizations_patient ON staging.immunizations (patient_id)`,

	`CREATE TABLE staging.practitioners (
		id           TEXT PRIMARY KEY,
		npi          TEXT,
		family_name  TEXT,
		given_name   TEXT,
		prefix       TEXT
	)`,

	`CREATE TABLE staging.organizations (
		id                TEXT PRIMARY KEY,
		identifier_value  TEXT,
		name              TEXT
	)`,

	`CREATE TABLE staging.locations (
		id                    TEXT PRIMARY KEY,
		identifier_value      TEXT,
		status                TEXT,
		name                  TEXT,
		address_city          TEXT,
		address_state         TEXT,
		phone                 TEXT,
		managing_org_display  TEXT
	)`,
}
