package model

// Patient is one row of the normalized patients table. All date columns hold
// the verbatim ISO-8601 source string, offset included; RawJSON keeps the
// original NDJSON line so name normalization destroys no information.
type Patient struct {
	ID               string  `db:"id" json:"id"`
	FamilyName       *string `db:"family_name" json:"family_name"`
	GivenName        *string `db:"given_name" json:"given_name"`
	Prefix           *string `db:"prefix" json:"prefix"`
	Gender           *string `db:"gender" json:"gender"`
	BirthDate        *string `db:"birth_date" json:"birth_date"`
	DeceasedDateTime *string `db:"deceased_date_time" json:"deceased_date_time"`
	Race             *string `db:"race" json:"race"`
	Ethnicity        *string `db:"ethnicity" json:"ethnicity"`
	AddressCity      *string `db:"address_city" json:"address_city"`
	AddressState     *string `db:"address_state" json:"address_state"`
	MaritalStatus    *string `db:"marital_status" json:"marital_status"`
	RawJSON          *string `db:"raw_json" json:"-"`
}

// PatientSummary is the list/detail projection returned by the API.
type PatientSummary struct {
	ID         string  `json:"id"`
	FullName   string  `json:"full_name"`
	Gender     *string `json:"gender"`
	BirthDate  *string `json:"birth_date"`
	Age        *int    `json:"age"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	IsDeceased bool    `json:"is_deceased"`
}

type PatientListResponse struct {
	Patients []PatientSummary `json:"patients"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
