package model

// Remaining normalized resource rows. These are outside the eligibility
// logic but feed the snapshot and timeline collaborators.

type Encounter struct {
	ID                  string  `db:"id" json:"id"`
	PatientID           string  `db:"patient_id" json:"patient_id"`
	Status              *string `db:"status" json:"status"`
	EncounterClass      *string `db:"encounter_class" json:"encounter_class"`
	TypeCode            *string `db:"type_code" json:"type_code"`
	TypeDisplay         *string `db:"type_display" json:"type_display"`
	PeriodStart         *string `db:"period_start" json:"period_start"`
	PeriodEnd           *string `db:"period_end" json:"period_end"`
	PractitionerDisplay *string `db:"practitioner_display" json:"practitioner_display"`
	LocationDisplay     *string `db:"location_display" json:"location_display"`
	OrganizationDisplay *string `db:"organization_display" json:"organization_display"`
}

type MedicationRequest struct {
	ID                string  `db:"id" json:"id"`
	PatientID         string  `db:"patient_id" json:"patient_id"`
	EncounterID       *string `db:"encounter_id" json:"encounter_id"`
	Status            *string `db:"status" json:"status"`
	Intent            *string `db:"intent" json:"intent"`
	MedicationCode    *string `db:"medication_code" json:"medication_code"`
	MedicationDisplay *string `db:"medication_display" json:"medication_display"`
	AuthoredOn        *string `db:"authored_on" json:"authored_on"`
	ReasonCode        *string `db:"reason_code" json:"reason_code"`
	ReasonDisplay     *string `db:"reason_display" json:"reason_display"`
}

type DocumentReference struct {
	ID            string  `db:"id" json:"id"`
	PatientID     string  `db:"patient_id" json:"patient_id"`
	Status        *string `db:"status" json:"status"`
	TypeCode      *string `db:"type_code" json:"type_code"`
	TypeDisplay   *string `db:"type_display" json:"type_display"`
	Date          *string `db:"date" json:"date"`
	ContentText   *string `db:"content_text" json:"content_text"`
	AuthorDisplay *string `db:"author_display" json:"author_display"`
}

type AllergyIntolerance struct {
	ID                 string  `db:"id" json:"id"`
	PatientID          string  `db:"patient_id" json:"patient_id"`
	ClinicalStatus     *string `db:"clinical_status" json:"clinical_status"`
	VerificationStatus *string `db:"verification_status" json:"verification_status"`
	AllergyType        *string `db:"allergy_type" json:"allergy_type"`
	Category           *string `db:"category" json:"category"`
	Criticality        *string `db:"criticality" json:"criticality"`
	Code               *string `db:"code" json:"code"`
	Display            *string `db:"display" json:"display"`
	RecordedDate       *string `db:"recorded_date" json:"recorded_date"`
}

type Device struct {
	ID              string  `db:"id" json:"id"`
	PatientID       string  `db:"patient_id" json:"patient_id"`
	Status          *string `db:"status" json:"status"`
	DeviceName      *string `db:"device_name" json:"device_name"`
	TypeCode        *string `db:"type_code" json:"type_code"`
	TypeDisplay     *string `db:"type_display" json:"type_display"`
	ManufactureDate *string `db:"manufacture_date" json:"manufacture_date"`
	ExpirationDate  *string `db:"expiration_date" json:"expiration_date"`
}

type Immunization struct {
	ID                 string  `db:"id" json:"id"`
	PatientID          string  `db:"patient_id" json:"patient_id"`
	EncounterID        *string `db:"encounter_id" json:"encounter_id"`
	Status             *string `db:"status" json:"status"`
	VaccineCode        *string `db:"vaccine_code" json:"vaccine_code"`
	VaccineDisplay     *string `db:"vaccine_display" json:"vaccine_display"`
	OccurrenceDateTime *string `db:"occurrence_date_time" json:"occurrence_date_time"`
	LocationDisplay    *string `db:"location_display" json:"location_display"`
}

type Practitioner struct {
	ID         string  `db:"id" json:"id"`
	NPI        *string `db:"npi" json:"npi"`
	FamilyName *string `db:"family_name" json:"family_name"`
	GivenName  *string `db:"given_name" json:"given_name"`
	Prefix     *string `db:"prefix" json:"prefix"`
}

type Organization struct {
	ID              string  `db:"id" json:"id"`
	IdentifierValue *string `db:"identifier_value" json:"identifier_value"`
	Name            *string `db:"name" json:"name"`
}

type Location struct {
	ID                 string  `db:"id" json:"id"`
	IdentifierValue    *string `db:"identifier_value" json:"identifier_value"`
	Status             *string `db:"status" json:"status"`
	Name               *string `db:"name" json:"name"`
	AddressCity        *string `db:"address_city" json:"address_city"`
	AddressState       *string `db:"address_state" json:"address_state"`
	Phone              *string `db:"phone" json:"phone"`
	ManagingOrgDisplay *string `db:"managing_org_display" json:"managing_org_display"`
}
