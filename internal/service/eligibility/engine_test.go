package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcohort/eligibility-api/internal/model"
)

func bmiObs(id string, value float64, date string) model.Observation {
	return model.Observation{
		ID:                id,
		PatientID:         "p1",
		Code:              strptr(BMICode),
		Display:           strptr("Body mass index"),
		ValueQuantity:     &value,
		EffectiveDateTime: strptr(date),
	}
}

func codedCondition(id, code, status string) model.Condition {
	return model.Condition{
		ID:             id,
		PatientID:      "p1",
		Code:           strptr(code),
		ClinicalStatus: strptr(status),
		OnsetDateTime:  strptr("2018-06-01"),
	}
}

func codedProcedure(id, code string) model.Procedure {
	return model.Procedure{
		ID:             id,
		PatientID:      "p1",
		Code:           strptr(code),
		PerformedStart: strptr("2022-02-10"),
	}
}

func criterionByName(t *testing.T, result *model.EligibilityResult, name string) model.CriterionResult {
	t.Helper()
	for _, c := range result.Criteria {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("criterion %q not in result", name)
	return model.CriterionResult{}
}

func TestEvaluateNoBMI(t *testing.T) {
	rec := &model.PatientRecord{PatientID: "p1"}

	result := Evaluate(rec)

	assert.Equal(t, model.StatusUnknown, result.Status)
	assert.Equal(t, []string{"No BMI observation recorded"}, result.Reasons)
	assert.Nil(t, result.BMIValue)
	require.Len(t, result.Criteria, 1)
	assert.False(t, result.Criteria[0].Met)
	assert.Empty(t, result.Criteria[0].Evidence)
	require.NotNil(t, result.Criteria[0].Reason)
}

func TestEvaluateBMIBelow35(t *testing.T) {
	rec := &model.PatientRecord{
		PatientID:    "p1",
		Observations: []model.Observation{bmiObs("o1", 30, "2023-01-01")},
		// documentation gaps are irrelevant below 35
	}

	result := Evaluate(rec)

	assert.Equal(t, model.StatusNotEligible, result.Status)
	assert.Equal(t, []string{"BMI 30.0 is below 35"}, result.Reasons)
	require.NotNil(t, result.BMIValue)
	assert.Equal(t, 30.0, *result.BMIValue)
	require.Len(t, result.Criteria, 1)
	assert.Equal(t, "o1", result.Criteria[0].Evidence[0].ResourceID)
}

func TestEvaluateEligibleMidBand(t *testing.T) {
	rec := &model.PatientRecord{
		PatientID:    "p1",
		Observations: []model.Observation{bmiObs("o1", 39.9, "2023-01-01")},
		Conditions:   []model.Condition{codedCondition("c1", "59621000", "active")},
		Procedures: []model.Procedure{
			codedProcedure("pr1", "11816003"),  // diet education
			codedProcedure("pr2", "171207006"), // depression screening
		},
	}

	result := Evaluate(rec)

	assert.Equal(t, model.StatusEligible, result.Status)
	assert.Equal(t, []string{"All eligibility criteria met"}, result.Reasons)
	require.Len(t, result.Criteria, 4)

	comorbidity := criterionByName(t, result, criterionComorbidity)
	assert.True(t, comorbidity.Met)
	assert.Nil(t, comorbidity.Reason)
	require.Len(t, comorbidity.Evidence, 1)
	assert.Equal(t, "c1", comorbidity.Evidence[0].ResourceID)
	assert.Equal(t, "Condition", comorbidity.Evidence[0].ResourceType)
}

// A mid-band BMI without a qualifying comorbidity is a documentation gap,
// not a denial, and the later criteria are still evaluated.
func TestEvaluateMidBandWithoutComorbidity(t *testing.T) {
	rec := &model.PatientRecord{
		PatientID:    "p1",
		Observations: []model.Observation{bmiObs("o1", 36.5, "2023-01-01")},
		Procedures: []model.Procedure{
			codedProcedure("pr1", "11816003"),
			codedProcedure("pr2", "171207006"),
		},
	}

	result := Evaluate(rec)

	assert.Equal(t, model.StatusUnknown, result.Status)
	assert.Equal(t, []string{"BMI 36.5 (35-39.9) without documented qualifying comorbidity"}, result.Reasons)

	assert.True(t, criterionByName(t, result, criterionBMI35).Met)
	assert.False(t, criterionByName(t, result, criterionComorbidity).Met)
	assert.True(t, criterionByName(t, result, criterionWeightLoss).Met)
	assert.True(t, criterionByName(t, result, criterionPsychEval).Met)
}

func TestEvaluateHighBMIWithoutDocumentation(t *testing.T) {
	rec := &model.PatientRecord{
		PatientID:    "p1",
		Observations: []model.Observation{bmiObs("o1", 41, "2023-01-01")},
	}

	result := Evaluate(rec)

	assert.Equal(t, model.StatusUnknown, result.Status)
	assert.Equal(t, []string{
		"No documented prior weight-loss attempt",
		"No psychological evaluation documented",
	}, result.Reasons)

	bmi40 := criterionByName(t, result, criterionBMI40)
	assert.True(t, bmi40.Met)
	wl := criterionByName(t, result, criterionWeightLoss)
	assert.False(t, wl.Met)
	assert.Empty(t, wl.Evidence)
	require.NotNil(t, wl.Reason)
}

func TestEvaluateHighBMIFullyDocumented(t *testing.T) {
	rec := &model.PatientRecord{
		PatientID:    "p1",
		Observations: []model.Observation{bmiObs("o1", 44.2, "2023-01-01")},
		Procedures: []model.Procedure{
			// CBT counts as both a weight-loss attempt and a psych evaluation
			codedProcedure("pr1", "228557008"),
		},
	}

	result := Evaluate(rec)

	assert.Equal(t, model.StatusEligible, result.Status)
	require.Len(t, result.Criteria, 3)
	assert.Equal(t, "pr1", criterionByName(t, result, criterionWeightLoss).Evidence[0].ResourceID)
	assert.Equal(t, "pr1", criterionByName(t, result, criterionPsychEval).Evidence[0].ResourceID)
}

func TestEvaluateInactiveComorbidityIgnored(t *testing.T) {
	rec := &model.PatientRecord{
		PatientID:    "p1",
		Observations: []model.Observation{bmiObs("o1", 37, "2023-01-01")},
		Conditions:   []model.Condition{codedCondition("c1", "44054006", "resolved")},
	}

	result := Evaluate(rec)

	assert.Equal(t, model.StatusUnknown, result.Status)
	assert.False(t, criterionByName(t, result, criterionComorbidity).Met)
}

func TestLatestBMISelection(t *testing.T) {
	t.Run("later date wins regardless of order", func(t *testing.T) {
		rec := &model.PatientRecord{
			PatientID: "p1",
			Observations: []model.Observation{
				bmiObs("new", 42, "2024-05-01"),
				bmiObs("old", 33, "2020-05-01"),
			},
		}
		result := Evaluate(rec)
		assert.Equal(t, 42.0, *result.BMIValue)
	})

	t.Run("equal dates keep the first row", func(t *testing.T) {
		rec := &model.PatientRecord{
			PatientID: "p1",
			Observations: []model.Observation{
				bmiObs("first", 36, "2023-01-01"),
				bmiObs("second", 41, "2023-01-01"),
			},
		}
		result := Evaluate(rec)
		assert.Equal(t, 36.0, *result.BMIValue)
	})

	t.Run("non-numeric BMI rows are skipped", func(t *testing.T) {
		rec := &model.PatientRecord{
			PatientID: "p1",
			Observations: []model.Observation{
				{ID: "o1", PatientID: "p1", Code: strptr(BMICode), EffectiveDateTime: strptr("2024-01-01")},
				bmiObs("o2", 38, "2020-01-01"),
			},
		}
		result := Evaluate(rec)
		assert.Equal(t, 38.0, *result.BMIValue)
	})
}

func TestCodeSetContains(t *testing.T) {
	s := NewCodeSet("a", "b")
	assert.True(t, s.Contains(strptr("a")))
	assert.False(t, s.Contains(strptr("c")))
	assert.False(t, s.Contains(nil))
}
