package model

// Normalized rows for the three resource types the eligibility engine reads.
// Code and display always travel together on the same row.

type Condition struct {
	ID                 string  `db:"id" json:"id"`
	PatientID          string  `db:"patient_id" json:"patient_id"`
	EncounterID        *string `db:"encounter_id" json:"encounter_id"`
	ClinicalStatus     *string `db:"clinical_status" json:"clinical_status"`
	VerificationStatus *string `db:"verification_status" json:"verification_status"`
	CodeSystem         *string `db:"code_system" json:"code_system"`
	Code               *string `db:"code" json:"code"`
	Display            *string `db:"display" json:"display"`
	SemanticTag        *string `db:"semantic_tag" json:"semantic_tag"`
	OnsetDateTime      *string `db:"onset_date_time" json:"onset_date_time"`
	AbatementDateTime  *string `db:"abatement_date_time" json:"abatement_date_time"`
	RecordedDate       *string `db:"recorded_date" json:"recorded_date"`
}

type Observation struct {
	ID                string   `db:"id" json:"id"`
	PatientID         string   `db:"patient_id" json:"patient_id"`
	EncounterID       *string  `db:"encounter_id" json:"encounter_id"`
	Status            *string  `db:"status" json:"status"`
	Category          *string  `db:"category" json:"category"`
	CodeSystem        *string  `db:"code_system" json:"code_system"`
	Code              *string  `db:"code" json:"code"`
	Display           *string  `db:"display" json:"display"`
	EffectiveDateTime *string  `db:"effective_date_time" json:"effective_date_time"`
	ValueQuantity     *float64 `db:"value_quantity" json:"value_quantity"`
	ValueUnit         *string  `db:"value_unit" json:"value_unit"`
	ValueCode         *string  `db:"value_code" json:"value_code"`
	ValueDisplay      *string  `db:"value_display" json:"value_display"`
	ComponentJSON     *string  `db:"component_json" json:"component_json"`
}

type Procedure struct {
	ID             string  `db:"id" json:"id"`
	PatientID      string  `db:"patient_id" json:"patient_id"`
	EncounterID    *string `db:"encounter_id" json:"encounter_id"`
	Status         *string `db:"status" json:"status"`
	CodeSystem     *string `db:"code_system" json:"code_system"`
	Code           *string `db:"code" json:"code"`
	Display        *string `db:"display" json:"display"`
	PerformedStart *string `db:"performed_start" json:"performed_start"`
	PerformedEnd   *string `db:"performed_end" json:"performed_end"`
	ReasonCode     *string `db:"reason_code" json:"reason_code"`
	ReasonDisplay  *string `db:"reason_display" json:"reason_display"`
}

// PatientRecord is everything the eligibility engine needs for one patient,
// loaded in one pass so the engine itself performs no I/O. Slices keep the
// store's insertion order, which breaks date ties deterministically.
type PatientRecord struct {
	PatientID    string
	Conditions   []Condition
	Observations []Observation
	Procedures   []Procedure
}
