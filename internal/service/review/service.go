package review

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/medcohort/eligibility-api/internal/model"
	"github.com/medcohort/eligibility-api/internal/repository"
	"github.com/medcohort/eligibility-api/internal/service/eligibility"
	"github.com/medcohort/eligibility-api/pkg/circuitbreaker"
	"github.com/medcohort/eligibility-api/pkg/errors"
	"github.com/medcohort/eligibility-api/pkg/logger"
)

const (
	contextObservationLimit = 30
	contextProcedureLimit   = 20
	contextMedicationLimit  = 15
)

const systemPrompt = `You are a clinical prior authorization reviewer for bariatric surgery eligibility.

You will receive structured patient data from a FHIR-based system including demographics, active conditions, recent observations, procedures, medications, and a deterministic eligibility assessment.

Your task is to produce a structured JSON review that helps a clinician understand the patient's bariatric surgery eligibility. You must follow these rules strictly:

HARD RULES:
1. GROUNDING: Every clinical claim you make MUST reference specific FHIR resource IDs from the provided data. If you cannot ground a claim in provided evidence, explicitly state "No supporting evidence in record" - never infer or assume.
2. DETERMINISM BOUNDARY: The "deterministic_status" field is computed by a rule-based engine and is FINAL. You must NOT override, contradict, or reinterpret this status. Your role is to EXPLAIN it, not change it.
3. NO SILENT INFERENCE: Do not use phrases like "likely", "probably", or "suggests" without citing a specific FHIR resource. If evidence is ambiguous or missing, say so explicitly.
4. FAILURE TRANSPARENCY: If you lack sufficient data to assess a criterion, mark it as "unknown" with a clear explanation of what's missing.

OUTPUT FORMAT (strict JSON):
{
  "clinical_summary": "2-4 sentence summary of the patient's clinical picture relevant to bariatric surgery, referencing FHIR resource IDs",
  "eligibility_assessment": "1-2 sentence explanation of WHY the deterministic status was reached, grounded in evidence",
  "checklist": [
    {
      "criterion": "Name of criterion (e.g., BMI >= 40)",
      "status": "met" | "not_met" | "unknown",
      "evidence": [
        {
          "resource_type": "Observation|Condition|Procedure",
          "resource_id": "the FHIR resource ID",
          "display": "human-readable description",
          "code": "SNOMED/LOINC code",
          "date": "ISO date or null"
        }
      ],
      "explanation": "Why this criterion is met/not_met/unknown, referencing resource IDs"
    }
  ],
  "recommended_next_steps": ["Actionable next step 1", "Actionable next step 2"]
}

Return ONLY valid JSON. No markdown fences, no commentary outside the JSON object.`

// Completer is the narrow model-call surface, so tests swap in a fake.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type openaiCompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter builds the production completer.
func NewOpenAICompleter(apiKey, model string) Completer {
	return &openaiCompleter{client: openai.NewClient(apiKey), model: model}
}

func (c *openaiCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// breakerCompleter short-circuits model calls after repeated upstream
// failures so a degraded model API fails fast instead of tying up request
// slots until the timeout.
type breakerCompleter struct {
	inner   Completer
	breaker *circuitbreaker.CircuitBreaker
}

func NewBreakerCompleter(inner Completer, breaker *circuitbreaker.CircuitBreaker) Completer {
	return &breakerCompleter{inner: inner, breaker: breaker}
}

func (b *breakerCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	var out string
	err := b.breaker.Execute(func() error {
		var err error
		out, err = b.inner.Complete(ctx, system, user)
		return err
	})
	return out, err
}

// Service layers a generated narrative over the deterministic result. The
// engine's status is the source of truth throughout: it is injected into the
// prompt and copied onto the response after the model call, so model output
// can never change a classification.
type Service struct {
	eligibility *eligibility.Service
	patients    repository.PatientStore
	records     repository.RecordStore
	medications repository.MedicationStore
	completer   Completer
	log         *logger.Logger
}

func NewService(
	elig *eligibility.Service,
	patients repository.PatientStore,
	records repository.RecordStore,
	medications repository.MedicationStore,
	completer Completer,
	log *logger.Logger,
) *Service {
	return &Service{
		eligibility: elig,
		patients:    patients,
		records:     records,
		medications: medications,
		completer:   completer,
		log:         log,
	}
}

// Generate produces the review for one patient.
func (s *Service) Generate(ctx context.Context, patientID string) (*model.AIReview, error) {
	result, err := s.eligibility.ForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	userMessage, err := s.buildUserMessage(ctx, patientID, result)
	if err != nil {
		return nil, err
	}

	raw, err := s.completer.Complete(ctx, systemPrompt, userMessage)
	if err != nil {
		s.log.Error(err, "review generation failed", "patient_id", patientID)
		return nil, errors.Unavailable("review generation failed", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, errors.Unavailable("review model returned an empty response", nil)
	}

	review, err := parseReview(raw)
	if err != nil {
		s.log.Error(err, "review response was not valid JSON", "patient_id", patientID)
		return nil, errors.Unavailable("review response was not valid JSON", err)
	}

	review.PatientID = patientID
	review.DeterministicStatus = result.Status
	return review, nil
}

func (s *Service) buildUserMessage(ctx context.Context, patientID string, result *model.EligibilityResult) (string, error) {
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return "", err
	}
	rec, err := s.records.PatientRecord(ctx, patientID)
	if err != nil {
		return "", fmt.Errorf("failed to load patient record: %w", err)
	}
	meds, err := s.medications.ListMedicationRequests(ctx, patientID)
	if err != nil {
		return "", fmt.Errorf("failed to load medications: %w", err)
	}

	bmi := "Not recorded"
	if result.BMIValue != nil {
		bmi = strconv.FormatFloat(*result.BMIValue, 'f', -1, 64)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "DETERMINISTIC ELIGIBILITY STATUS: %s\n", result.Status)
	fmt.Fprintf(&b, "DETERMINISTIC REASONS: %s\n", strings.Join(result.Reasons, "; "))
	fmt.Fprintf(&b, "BMI VALUE: %s\n\n", bmi)
	b.WriteString(patientContext(p, rec, meds))
	return b.String(), nil
}

// patientContext renders the structured data block the prompt grounds on.
func patientContext(p *model.Patient, rec *model.PatientRecord, meds []model.MedicationRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PATIENT: %s %s (ID: %s)\n", deref(p.GivenName), deref(p.FamilyName), p.ID)
	fmt.Fprintf(&b, "Gender: %s\n", orUnknown(p.Gender))
	fmt.Fprintf(&b, "DOB: %s\n", orUnknown(p.BirthDate))
	if p.DeceasedDateTime != nil {
		fmt.Fprintf(&b, "Deceased: %s\n", *p.DeceasedDateTime)
	}
	b.WriteString("\n")

	var active []*model.Condition
	for i := range rec.Conditions {
		if deref(rec.Conditions[i].ClinicalStatus) == "active" {
			active = append(active, &rec.Conditions[i])
		}
	}
	fmt.Fprintf(&b, "ACTIVE CONDITIONS (%d):\n", len(active))
	for _, c := range active {
		fmt.Fprintf(&b, "  - %s | Code: %s | Onset: %s | FHIR ID: %s\n",
			deref(c.Display), deref(c.Code), orUnknown(c.OnsetDateTime), c.ID)
	}
	b.WriteString("\n")

	observations := recentObservations(rec, contextObservationLimit)
	fmt.Fprintf(&b, "RECENT OBSERVATIONS (%d):\n", len(observations))
	for _, o := range observations {
		value := ""
		if o.ValueQuantity != nil {
			value = strings.TrimSpace(strconv.FormatFloat(*o.ValueQuantity, 'f', -1, 64) + " " + deref(o.ValueUnit))
		} else if o.ValueDisplay != nil {
			value = *o.ValueDisplay
		}
		fmt.Fprintf(&b, "  - %s | Value: %s | Code: %s | Date: %s | FHIR ID: %s\n",
			deref(o.Display), value, deref(o.Code), orUnknown(o.EffectiveDateTime), o.ID)
	}
	b.WriteString("\n")

	procedures := recentProcedures(rec, contextProcedureLimit)
	fmt.Fprintf(&b, "RECENT PROCEDURES (%d):\n", len(procedures))
	for _, p := range procedures {
		fmt.Fprintf(&b, "  - %s | Code: %s | Status: %s | Date: %s | FHIR ID: %s\n",
			deref(p.Display), deref(p.Code), deref(p.Status), orUnknown(p.PerformedStart), p.ID)
	}
	b.WriteString("\n")

	if len(meds) > contextMedicationLimit {
		meds = meds[:contextMedicationLimit]
	}
	if len(meds) > 0 {
		fmt.Fprintf(&b, "MEDICATIONS (%d):\n", len(meds))
		for i := range meds {
			m := &meds[i]
			fmt.Fprintf(&b, "  - %s | Status: %s | Date: %s | FHIR ID: %s\n",
				deref(m.MedicationDisplay), deref(m.Status), orUnknown(m.AuthoredOn), m.ID)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func recentObservations(rec *model.PatientRecord, limit int) []*model.Observation {
	obs := make([]*model.Observation, 0, len(rec.Observations))
	for i := range rec.Observations {
		obs = append(obs, &rec.Observations[i])
	}
	sort.SliceStable(obs, func(i, j int) bool {
		return deref(obs[i].EffectiveDateTime) > deref(obs[j].EffectiveDateTime)
	})
	if len(obs) > limit {
		obs = obs[:limit]
	}
	return obs
}

func recentProcedures(rec *model.PatientRecord, limit int) []*model.Procedure {
	procs := make([]*model.Procedure, 0, len(rec.Procedures))
	for i := range rec.Procedures {
		procs = append(procs, &rec.Procedures[i])
	}
	sort.SliceStable(procs, func(i, j int) bool {
		return deref(procs[i].PerformedStart) > deref(procs[j].PerformedStart)
	})
	if len(procs) > limit {
		procs = procs[:limit]
	}
	return procs
}

func parseReview(raw string) (*model.AIReview, error) {
	var review model.AIReview
	if err := json.Unmarshal([]byte(raw), &review); err != nil {
		return nil, err
	}
	if review.Checklist == nil {
		review.Checklist = []model.AIChecklistItem{}
	}
	for i := range review.Checklist {
		if review.Checklist[i].Evidence == nil {
			review.Checklist[i].Evidence = []model.EvidenceItem{}
		}
	}
	if review.RecommendedNextSteps == nil {
		review.RecommendedNextSteps = []string{}
	}
	return &review, nil
}

func orUnknown(s *string) string {
	if s == nil || *s == "" {
		return "Unknown"
	}
	return *s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
