package model

// API projections for the snapshot and timeline collaborators.

type ConditionSummary struct {
	ID             string  `json:"id"`
	Code           *string `json:"code"`
	Display        string  `json:"display"`
	ClinicalStatus *string `json:"clinical_status"`
	OnsetDate      *string `json:"onset_date"`
}

type ObservationSummary struct {
	ID           string   `json:"id"`
	Code         *string  `json:"code"`
	Display      string   `json:"display"`
	Value        *string  `json:"value"`
	ValueNumeric *float64 `json:"value_numeric"`
	Date         *string  `json:"date"`
	Category     *string  `json:"category"`
}

type ProcedureSummary struct {
	ID            string  `json:"id"`
	Code          *string `json:"code"`
	Display       string  `json:"display"`
	Status        *string `json:"status"`
	PerformedDate *string `json:"performed_date"`
}

// KeyObservations are the vitals the snapshot always reports on, each nil
// when the patient has no matching observation.
type KeyObservations struct {
	BMI         *ObservationSummary `json:"bmi"`
	SystolicBP  *ObservationSummary `json:"systolic_bp"`
	DiastolicBP *ObservationSummary `json:"diastolic_bp"`
	Weight      *ObservationSummary `json:"weight"`
	Height      *ObservationSummary `json:"height"`
}

type ClinicalSnapshot struct {
	Patient          PatientSummary     `json:"patient"`
	ActiveConditions []ConditionSummary `json:"active_conditions"`
	RecentProcedures []ProcedureSummary `json:"recent_procedures"`
	KeyObservations  KeyObservations    `json:"key_observations"`
	MissingData      []string           `json:"missing_data"`
}

type TimelineEntry struct {
	ResourceType string  `json:"resource_type"`
	ResourceID   string  `json:"resource_id"`
	DisplayName  string  `json:"display_name"`
	Date         *string `json:"date"`
	Detail       *string `json:"detail"`
}

type TimelineResponse struct {
	Entries []TimelineEntry `json:"entries"`
	Total   int             `json:"total"`
}

// AIChecklistItem mirrors one criterion in the generated review.
type AIChecklistItem struct {
	Criterion   string         `json:"criterion"`
	Status      string         `json:"status"`
	Evidence    []EvidenceItem `json:"evidence"`
	Explanation string         `json:"explanation"`
}

// AIReview is the generative review layered over the deterministic result.
// DeterministicStatus is copied from the engine after the model call and is
// never taken from model output.
type AIReview struct {
	PatientID             string            `json:"patient_id"`
	DeterministicStatus   EligibilityStatus `json:"deterministic_status"`
	ClinicalSummary       string            `json:"clinical_summary"`
	EligibilityAssessment string            `json:"eligibility_assessment"`
	Checklist             []AIChecklistItem `json:"checklist"`
	RecommendedNextSteps  []string          `json:"recommended_next_steps"`
}
