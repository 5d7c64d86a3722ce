package model

// EligibilityStatus is the deterministic classification. It is always one of
// the three values below and never empty.
type EligibilityStatus string

const (
	StatusEligible    EligibilityStatus = "eligible"
	StatusNotEligible EligibilityStatus = "not_eligible"
	StatusUnknown     EligibilityStatus = "unknown"
)

// EvidenceItem cites one source resource backing a criterion determination.
// The fields are sufficient for an auditor to locate the exact record.
type EvidenceItem struct {
	ResourceType string  `json:"resource_type"`
	ResourceID   string  `json:"resource_id"`
	Display      *string `json:"display"`
	Code         *string `json:"code"`
	Date         *string `json:"date"`
}

// CriterionResult is one evaluated criterion. A met criterion has evidence
// and a nil reason; an unmet one has an empty evidence list and a reason
// explaining the gap.
type CriterionResult struct {
	Name     string         `json:"name"`
	Met      bool           `json:"met"`
	Evidence []EvidenceItem `json:"evidence"`
	Reason   *string        `json:"reason,omitempty"`
}

type EligibilityResult struct {
	PatientID string            `json:"patient_id"`
	Status    EligibilityStatus `json:"status"`
	Reasons   []string          `json:"reasons"`
	Criteria  []CriterionResult `json:"criteria"`
	BMIValue  *float64          `json:"bmi_value"`
}

type CohortCategory struct {
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
	PatientIDs []string `json:"patient_ids"`
}

type UnknownReason struct {
	Reason     string  `json:"reason"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type CohortReport struct {
	TotalPatients     int             `json:"total_patients"`
	Eligible          CohortCategory  `json:"eligible"`
	NotEligible       CohortCategory  `json:"not_eligible"`
	Unknown           CohortCategory  `json:"unknown"`
	TopUnknownReasons []UnknownReason `json:"top_unknown_reasons"`
}
