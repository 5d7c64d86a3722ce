package eligibility

// LOINC codes for the key observations read during evaluation.
const (
	BMICode         = "39156-5"
	BodyWeightCode  = "29463-7"
	BodyHeightCode  = "8302-2"
	BPPanelCode     = "85354-9"
	BPSystolicCode  = "8480-6"
	BPDiastolicCode = "8462-4"
)

// CodeSet is a fixed reference set of clinical codes. Matching always runs
// on the raw coded value, never on display text.
type CodeSet map[string]struct{}

func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports whether the (possibly absent) code is in the set.
func (s CodeSet) Contains(code *string) bool {
	if code == nil {
		return false
	}
	_, ok := s[*code]
	return ok
}

// ComorbidityCodes are the SNOMED conditions that qualify a patient in the
// BMI 35-39.9 band, per NIH/CMS bariatric surgery guidelines: hypertension,
// type 2 diabetes and its complications, and the obesity-related
// comorbidities.
var ComorbidityCodes = NewCodeSet(
	// Hypertension
	"59621000", // Essential hypertension
	"38341003", // Hypertensive disorder

	// Type 2 diabetes and complications
	"44054006",        // Diabetes mellitus type 2
	"127013003",       // Disorder of kidney due to diabetes mellitus
	"90781000119102",  // Microalbuminuria due to type 2 diabetes mellitus
	"157141000119108", // Proteinuria due to type 2 diabetes mellitus
	"422034002",       // Retinopathy due to type 2 diabetes mellitus
	"368581000119106", // Neuropathy due to type 2 diabetes mellitus
	"1551000119108",   // Nonproliferative diabetic retinopathy due to T2DM
	"97331000119101",  // Macular edema and retinopathy due to T2DM
	"1501000119109",   // Proliferative diabetic retinopathy due to T2DM

	// Other obesity-related comorbidities
	"237602007", // Metabolic syndrome X
	"55822004",  // Hyperlipidemia
	"370992007", // Dyslipidemia
	"239873007", // Osteoarthritis of knee
	"396275006", // Osteoarthritis
	"78275009",  // Obstructive sleep apnea
	"73430006",  // Sleep apnea
	"39898005",  // Sleep disorder
	"235595009", // Gastroesophageal reflux disease
	"197315008", // Non-alcoholic fatty liver disease
	"442685003", // Nonalcoholic steatohepatitis
	"414545008", // Ischemic heart disease
	"53741008",  // Coronary arteriosclerosis
	"68267002",  // Benign intracranial hypertension
	"237055002", // Polycystic ovary syndrome
	"190966007", // Obesity hypoventilation syndrome
)

// WeightLossCodes mark documented weight-loss attempts: dietary counseling,
// exercise and physical therapy, weight management programs, and behavioral
// interventions.
var WeightLossCodes = NewCodeSet(
	// Behavioral / counseling
	"228557008", // Cognitive and behavioral therapy
	"408919008", // Psychosocial care
	"409066002", // Education, guidance and counseling

	// Exercise / physical activity
	"229095001", // Exercise class
	"229064008", // Movement therapy
	"229065009", // Exercise therapy
	"91251008",  // Physical therapy procedure
	"52052004",  // Rehabilitation therapy
	"304507003", // Exercise education

	// Dietary counseling
	"11816003",  // Diet education
	"103699006", // Referral to dietitian
	"424753004", // Dietary management education, guidance, and counseling
	"266724001", // Weight-reducing diet education
	"284352003", // Obesity diet education
	"443288003", // Lifestyle education regarding diet

	// Weight management programs
	"408289007", // Refer to weight management program
	"388976009", // Weight reduction regimen
	"718361005", // Weight management program
	"386516004", // Anticipatory guidance
)

// PsychEvalCodes mark psychological evaluation evidence: psychiatric
// interviews, mental health assessments, and depression/anxiety screenings.
var PsychEvalCodes = NewCodeSet(
	"385892002",       // Mental health screening
	"408919008",       // Psychosocial care
	"228557008",       // Cognitive and behavioral therapy
	"10197000",        // Psychiatric interview and evaluation
	"79094001",        // Initial psychiatric interview with mental status
	"410223002",       // Mental health care assessment
	"391281002",       // Mental health assessment
	"171207006",       // Depression screening
	"454711000124102", // Depression screening using PHQ-2
	"715252007",       // Depression screening using PHQ-9
	"710841007",       // Assessment of anxiety
)
