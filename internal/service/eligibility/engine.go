package eligibility

import (
	"fmt"

	"github.com/medcohort/eligibility-api/internal/model"
)

// Criterion names as they appear in results. Stable strings: downstream
// consumers and the review prompt key off them.
const (
	criterionBMIRecorded = "BMI observation recorded"
	criterionBMI40       = "BMI >= 40"
	criterionBMI35       = "BMI >= 35"
	criterionComorbidity = "Comorbidity present (e.g., hypertension, type 2 diabetes, sleep apnea, hyperlipidemia)"
	criterionWeightLoss  = "Evidence of prior weight-loss attempts"
	criterionPsychEval   = "Psychological evaluation"
)

// Evaluate classifies one patient for bariatric surgery candidacy. It is a
// pure function over the pre-loaded record: no I/O, no shared state, safe to
// call concurrently across a cohort.
//
// Only two outcomes are terminal: no BMI observation at all (unknown) and
// BMI below 35 (not_eligible). Every later criterion is evaluated even when
// an earlier one failed, so an unknown result carries the complete list of
// documentation gaps rather than just the first one found. Absence of
// documentation is never treated as proof of ineligibility.
func Evaluate(rec *model.PatientRecord) *model.EligibilityResult {
	result := &model.EligibilityResult{PatientID: rec.PatientID}

	bmiObs := latestBMI(rec)
	if bmiObs == nil {
		result.Status = model.StatusUnknown
		result.Reasons = []string{"No BMI observation recorded"}
		result.Criteria = []model.CriterionResult{{
			Name:     criterionBMIRecorded,
			Met:      false,
			Evidence: []model.EvidenceItem{},
			Reason:   strptr("No BMI observation found in patient record"),
		}}
		return result
	}

	bmi := *bmiObs.ValueQuantity
	result.BMIValue = &bmi
	bmiEvidence := []model.EvidenceItem{observationEvidence(bmiObs)}

	if bmi < 35 {
		result.Status = model.StatusNotEligible
		result.Reasons = []string{fmt.Sprintf("BMI %.1f is below 35", bmi)}
		result.Criteria = []model.CriterionResult{{
			Name:     criterionBMI35,
			Met:      false,
			Evidence: bmiEvidence,
			Reason:   strptr(fmt.Sprintf("BMI is %.1f, below threshold of 35", bmi)),
		}}
		return result
	}

	var (
		criteria []model.CriterionResult
		gaps     []string
	)

	if bmi >= 40 {
		criteria = append(criteria, model.CriterionResult{
			Name:     criterionBMI40,
			Met:      true,
			Evidence: bmiEvidence,
		})
	} else {
		criteria = append(criteria, model.CriterionResult{
			Name:     criterionBMI35,
			Met:      true,
			Evidence: bmiEvidence,
		})

		comorbidities := activeComorbidities(rec)
		if len(comorbidities) == 0 {
			criteria = append(criteria, model.CriterionResult{
				Name:     criterionComorbidity,
				Met:      false,
				Evidence: []model.EvidenceItem{},
				Reason:   strptr("No qualifying active comorbidity found"),
			})
			gaps = append(gaps, fmt.Sprintf("BMI %.1f (35-39.9) without documented qualifying comorbidity", bmi))
		} else {
			criteria = append(criteria, model.CriterionResult{
				Name:     criterionComorbidity,
				Met:      true,
				Evidence: comorbidities,
			})
		}
	}

	if wl := documentationEvidence(rec, WeightLossCodes); len(wl) == 0 {
		criteria = append(criteria, model.CriterionResult{
			Name:     criterionWeightLoss,
			Met:      false,
			Evidence: []model.EvidenceItem{},
			Reason:   strptr("No weight-loss attempt documentation found (e.g., CBT, counseling, exercise program)"),
		})
		gaps = append(gaps, "No documented prior weight-loss attempt")
	} else {
		criteria = append(criteria, model.CriterionResult{
			Name:     criterionWeightLoss,
			Met:      true,
			Evidence: wl,
		})
	}

	if psych := documentationEvidence(rec, PsychEvalCodes); len(psych) == 0 {
		criteria = append(criteria, model.CriterionResult{
			Name:     criterionPsychEval,
			Met:      false,
			Evidence: []model.EvidenceItem{},
			Reason:   strptr("No psychological evaluation found (e.g., mental health screening, psychosocial care)"),
		})
		gaps = append(gaps, "No psychological evaluation documented")
	} else {
		criteria = append(criteria, model.CriterionResult{
			Name:     criterionPsychEval,
			Met:      true,
			Evidence: psych,
		})
	}

	result.Criteria = criteria
	if len(gaps) == 0 {
		result.Status = model.StatusEligible
		result.Reasons = []string{"All eligibility criteria met"}
	} else {
		result.Status = model.StatusUnknown
		result.Reasons = gaps
	}
	return result
}

// latestBMI picks the most recent BMI observation with a numeric value.
// Dates compare as ISO-8601 strings; a strictly later date replaces the
// current pick, so equal dates resolve to the earliest ingested row.
func latestBMI(rec *model.PatientRecord) *model.Observation {
	var best *model.Observation
	for i := range rec.Observations {
		o := &rec.Observations[i]
		if o.Code == nil || *o.Code != BMICode || o.ValueQuantity == nil {
			continue
		}
		if best == nil || deref(o.EffectiveDateTime) > deref(best.EffectiveDateTime) {
			best = o
		}
	}
	return best
}

// activeComorbidities returns evidence for every active condition whose code
// is in the qualifying set.
func activeComorbidities(rec *model.PatientRecord) []model.EvidenceItem {
	var evidence []model.EvidenceItem
	for i := range rec.Conditions {
		c := &rec.Conditions[i]
		if deref(c.ClinicalStatus) != "active" || !ComorbidityCodes.Contains(c.Code) {
			continue
		}
		evidence = append(evidence, conditionEvidence(c))
	}
	return evidence
}

// documentationEvidence scans the whole record for entries matching the code
// set, in the fixed order observations, procedures, conditions, so evidence
// lists come out identical on every run.
func documentationEvidence(rec *model.PatientRecord, codes CodeSet) []model.EvidenceItem {
	var evidence []model.EvidenceItem
	for i := range rec.Observations {
		if codes.Contains(rec.Observations[i].Code) {
			evidence = append(evidence, observationEvidence(&rec.Observations[i]))
		}
	}
	for i := range rec.Procedures {
		if codes.Contains(rec.Procedures[i].Code) {
			evidence = append(evidence, procedureEvidence(&rec.Procedures[i]))
		}
	}
	for i := range rec.Conditions {
		if codes.Contains(rec.Conditions[i].Code) {
			evidence = append(evidence, conditionEvidence(&rec.Conditions[i]))
		}
	}
	return evidence
}

func observationEvidence(o *model.Observation) model.EvidenceItem {
	return model.EvidenceItem{
		ResourceType: "Observation",
		ResourceID:   o.ID,
		Display:      o.Display,
		Code:         o.Code,
		Date:         o.EffectiveDateTime,
	}
}

func conditionEvidence(c *model.Condition) model.EvidenceItem {
	return model.EvidenceItem{
		ResourceType: "Condition",
		ResourceID:   c.ID,
		Display:      c.Display,
		Code:         c.Code,
		Date:         c.OnsetDateTime,
	}
}

func procedureEvidence(p *model.Procedure) model.EvidenceItem {
	return model.EvidenceItem{
		ResourceType: "Procedure",
		ResourceID:   p.ID,
		Display:      p.Display,
		Code:         p.Code,
		Date:         p.PerformedStart,
	}
}

func strptr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
