package model

// Wire-format structs for the subset of FHIR R4 fields this system reads
// from bulk NDJSON exports. Unknown fields are ignored by encoding/json.

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// FirstCoding returns the code, system and display of the first coding,
// falling back to the concept text for display when the coding has none.
func (c *CodeableConcept) FirstCoding() (code, system, display string) {
	if c == nil {
		return "", "", ""
	}
	if len(c.Coding) > 0 {
		code = c.Coding[0].Code
		system = c.Coding[0].System
		display = c.Coding[0].Display
	}
	if display == "" {
		display = c.Text
	}
	return code, system, display
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type Quantity struct {
	Value *float64 `json:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"`
}

type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
	Prefix []string `json:"prefix,omitempty"`
}

type Address struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

type Attachment struct {
	ContentType string `json:"contentType,omitempty"`
	Data        string `json:"data,omitempty"`
}

type Content struct {
	Attachment *Attachment `json:"attachment,omitempty"`
}

type Extension struct {
	URL         string      `json:"url,omitempty"`
	ValueString string      `json:"valueString,omitempty"`
	ValueCode   string      `json:"valueCode,omitempty"`
	Extension   []Extension `json:"extension,omitempty"`
}

type Identifier struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

type Component struct {
	Code          *CodeableConcept `json:"code,omitempty"`
	ValueQuantity *Quantity        `json:"valueQuantity,omitempty"`
}

type Telecom struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

type DeviceName struct {
	Name string `json:"name,omitempty"`
}

type Participant struct {
	Individual *Reference `json:"individual,omitempty"`
}

type EncounterLocation struct {
	Location *Reference `json:"location,omitempty"`
}

// Top-level resource shapes.

type FHIRPatient struct {
	ResourceType     string           `json:"resourceType"`
	ID               string           `json:"id"`
	Name             []HumanName      `json:"name,omitempty"`
	Gender           string           `json:"gender,omitempty"`
	BirthDate        string           `json:"birthDate,omitempty"`
	DeceasedDateTime string           `json:"deceasedDateTime,omitempty"`
	Address          []Address        `json:"address,omitempty"`
	MaritalStatus    *CodeableConcept `json:"maritalStatus,omitempty"`
	Extension        []Extension      `json:"extension,omitempty"`
	Identifier       []Identifier     `json:"identifier,omitempty"`
}

type FHIRCondition struct {
	ResourceType       string           `json:"resourceType"`
	ID                 string           `json:"id"`
	ClinicalStatus     *CodeableConcept `json:"clinicalStatus,omitempty"`
	VerificationStatus *CodeableConcept `json:"verificationStatus,omitempty"`
	Code               *CodeableConcept `json:"code,omitempty"`
	Subject            *Reference       `json:"subject,omitempty"`
	Encounter          *Reference       `json:"encounter,omitempty"`
	OnsetDateTime      string           `json:"onsetDateTime,omitempty"`
	AbatementDateTime  string           `json:"abatementDateTime,omitempty"`
	RecordedDate       string           `json:"recordedDate,omitempty"`
}

type FHIRObservation struct {
	ResourceType         string            `json:"resourceType"`
	ID                   string            `json:"id"`
	Status               string            `json:"status,omitempty"`
	Category             []CodeableConcept `json:"category,omitempty"`
	Code                 *CodeableConcept  `json:"code,omitempty"`
	Subject              *Reference        `json:"subject,omitempty"`
	Encounter            *Reference        `json:"encounter,omitempty"`
	EffectiveDateTime    string            `json:"effectiveDateTime,omitempty"`
	ValueQuantity        *Quantity         `json:"valueQuantity,omitempty"`
	ValueCodeableConcept *CodeableConcept  `json:"valueCodeableConcept,omitempty"`
	Component            []Component       `json:"component,omitempty"`
}

type FHIRProcedure struct {
	ResourceType      string            `json:"resourceType"`
	ID                string            `json:"id"`
	Status            string            `json:"status,omitempty"`
	Code              *CodeableConcept  `json:"code,omitempty"`
	Subject           *Reference        `json:"subject,omitempty"`
	Encounter         *Reference        `json:"encounter,omitempty"`
	PerformedDateTime string            `json:"performedDateTime,omitempty"`
	PerformedPeriod   *Period           `json:"performedPeriod,omitempty"`
	ReasonCode        []CodeableConcept `json:"reasonCode,omitempty"`
	ReasonReference   []Reference       `json:"reasonReference,omitempty"`
}

type FHIREncounter struct {
	ResourceType    string              `json:"resourceType"`
	ID              string              `json:"id"`
	Status          string              `json:"status,omitempty"`
	Class           *Coding             `json:"class,omitempty"`
	Type            []CodeableConcept   `json:"type,omitempty"`
	Subject         *Reference          `json:"subject,omitempty"`
	Participant     []Participant       `json:"participant,omitempty"`
	Period          *Period             `json:"period,omitempty"`
	Location        []EncounterLocation `json:"location,omitempty"`
	ServiceProvider *Reference          `json:"serviceProvider,omitempty"`
}

type FHIRMedicationRequest struct {
	ResourceType              string            `json:"resourceType"`
	ID                        string            `json:"id"`
	Status                    string            `json:"status,omitempty"`
	Intent                    string            `json:"intent,omitempty"`
	MedicationCodeableConcept *CodeableConcept  `json:"medicationCodeableConcept,omitempty"`
	Subject                   *Reference        `json:"subject,omitempty"`
	Encounter                 *Reference        `json:"encounter,omitempty"`
	AuthoredOn                string            `json:"authoredOn,omitempty"`
	ReasonCode                []CodeableConcept `json:"reasonCode,omitempty"`
}

type FHIRDocumentReference struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id"`
	Status       string           `json:"status,omitempty"`
	Type         *CodeableConcept `json:"type,omitempty"`
	Subject      *Reference       `json:"subject,omitempty"`
	Date         string           `json:"date,omitempty"`
	Author       []Reference      `json:"author,omitempty"`
	Content      []Content        `json:"content,omitempty"`
}

type FHIRAllergyIntolerance struct {
	ResourceType       string           `json:"resourceType"`
	ID                 string           `json:"id"`
	ClinicalStatus     *CodeableConcept `json:"clinicalStatus,omitempty"`
	VerificationStatus *CodeableConcept `json:"verificationStatus,omitempty"`
	Type               string           `json:"type,omitempty"`
	Category           []string         `json:"category,omitempty"`
	Criticality        string           `json:"criticality,omitempty"`
	Code               *CodeableConcept `json:"code,omitempty"`
	Patient            *Reference       `json:"patient,omitempty"`
	RecordedDate       string           `json:"recordedDate,omitempty"`
}

type FHIRDevice struct {
	ResourceType    string           `json:"resourceType"`
	ID              string           `json:"id"`
	Status          string           `json:"status,omitempty"`
	Patient         *Reference       `json:"patient,omitempty"`
	Type            *CodeableConcept `json:"type,omitempty"`
	DeviceName      []DeviceName     `json:"deviceName,omitempty"`
	ManufactureDate string           `json:"manufactureDate,omitempty"`
	ExpirationDate  string           `json:"expirationDate,omitempty"`
}

type FHIRImmunization struct {
	ResourceType       string           `json:"resourceType"`
	ID                 string           `json:"id"`
	Status             string           `json:"status,omitempty"`
	VaccineCode        *CodeableConcept `json:"vaccineCode,omitempty"`
	Patient            *Reference       `json:"patient,omitempty"`
	Encounter          *Reference       `json:"encounter,omitempty"`
	OccurrenceDateTime string           `json:"occurrenceDateTime,omitempty"`
	Location           *Reference       `json:"location,omitempty"`
}

type FHIRLocation struct {
	ResourceType         string       `json:"resourceType"`
	ID                   string       `json:"id"`
	Status               string       `json:"status,omitempty"`
	Name                 string       `json:"name,omitempty"`
	Identifier           []Identifier `json:"identifier,omitempty"`
	Address              *Address     `json:"address,omitempty"`
	Telecom              []Telecom    `json:"telecom,omitempty"`
	ManagingOrganization *Reference   `json:"managingOrganization,omitempty"`
}

type FHIRPractitioner struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Name         []HumanName  `json:"name,omitempty"`
}

type FHIROrganization struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Name         string       `json:"name,omitempty"`
}

// RawResource is the minimal shape used to pre-validate a line before the
// typed decode: every resource must carry a non-empty id.
type RawResource struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
}
