package review

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcohort/eligibility-api/internal/model"
	"github.com/medcohort/eligibility-api/internal/service/eligibility"
	apperrors "github.com/medcohort/eligibility-api/pkg/errors"
	"github.com/medcohort/eligibility-api/pkg/logger"
)

type fakePatientStore struct{}

func (fakePatientStore) GetPatient(_ context.Context, id string) (*model.Patient, error) {
	if id != "p1" {
		return nil, apperrors.NotFound("patient", nil)
	}
	given, family := "Ada", "Stone"
	return &model.Patient{ID: id, GivenName: &given, FamilyName: &family}, nil
}

func (fakePatientStore) ListPatients(context.Context, int, int, string) ([]model.Patient, int, error) {
	return nil, 0, nil
}

type fakeRecordStore struct {
	record *model.PatientRecord
}

func (f fakeRecordStore) ListPatientIDs(context.Context) ([]string, error) { return nil, nil }

func (f fakeRecordStore) PatientRecord(_ context.Context, id string) (*model.PatientRecord, error) {
	if f.record != nil {
		return f.record, nil
	}
	return &model.PatientRecord{PatientID: id}, nil
}

type fakeMedicationStore struct{}

func (fakeMedicationStore) ListMedicationRequests(context.Context, string) ([]model.MedicationRequest, error) {
	return nil, nil
}

type fakeCompleter struct {
	response string
	err      error
	system   string
	user     string
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system = system
	f.user = user
	return f.response, f.err
}

func newTestService(rec *model.PatientRecord, completer Completer) *Service {
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	records := fakeRecordStore{record: rec}
	elig := eligibility.NewService(fakePatientStore{}, records, log, nil, 1)
	return NewService(elig, fakePatientStore{}, records, fakeMedicationStore{}, completer, log)
}

func bmiRecord(value float64) *model.PatientRecord {
	code := "39156-5"
	display := "Body mass index"
	date := "2023-04-01"
	return &model.PatientRecord{
		PatientID: "p1",
		Observations: []model.Observation{{
			ID:                "obs-bmi",
			PatientID:         "p1",
			Code:              &code,
			Display:           &display,
			ValueQuantity:     &value,
			EffectiveDateTime: &date,
		}},
	}
}

func TestGenerateCopiesDeterministicStatus(t *testing.T) {
	// the model claims eligible; the engine says not_eligible and wins
	completer := &fakeCompleter{response: `{
		"deterministic_status": "eligible",
		"clinical_summary": "Patient p1 has BMI 28 (obs-bmi).",
		"eligibility_assessment": "BMI below surgical threshold.",
		"checklist": [{"criterion": "BMI >= 35", "status": "not_met", "explanation": "obs-bmi shows 28"}],
		"recommended_next_steps": ["Routine weight monitoring"]
	}`}
	svc := newTestService(bmiRecord(28), completer)

	review, err := svc.Generate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "p1", review.PatientID)
	assert.Equal(t, model.StatusNotEligible, review.DeterministicStatus)
	require.Len(t, review.Checklist, 1)
	assert.NotNil(t, review.Checklist[0].Evidence)
}

func TestGeneratePromptCarriesDeterministicResult(t *testing.T) {
	completer := &fakeCompleter{response: `{"clinical_summary": "ok"}`}
	svc := newTestService(bmiRecord(28), completer)

	_, err := svc.Generate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, completer.calls)
	assert.Contains(t, completer.system, "DETERMINISM BOUNDARY")
	assert.Contains(t, completer.user, "DETERMINISTIC ELIGIBILITY STATUS: not_eligible")
	assert.Contains(t, completer.user, "BMI 28.0 is below 35")
	assert.Contains(t, completer.user, "BMI VALUE: 28")
	assert.Contains(t, completer.user, "Ada Stone")
}

func TestGenerateUnknownPatient(t *testing.T) {
	svc := newTestService(nil, &fakeCompleter{response: "{}"})

	_, err := svc.Generate(context.Background(), "nope")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestGenerateModelFailure(t *testing.T) {
	svc := newTestService(bmiRecord(28), &fakeCompleter{err: errors.New("rate limited")})

	_, err := svc.Generate(context.Background(), "p1")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUnavailable, appErr.Code)
}

func TestGenerateInvalidJSON(t *testing.T) {
	for _, response := range []string{"not json at all", "", "   "} {
		svc := newTestService(bmiRecord(28), &fakeCompleter{response: response})

		_, err := svc.Generate(context.Background(), "p1")
		require.Error(t, err)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrUnavailable, appErr.Code)
	}
}

func TestParseReviewNormalizesNilSlices(t *testing.T) {
	review, err := parseReview(`{"clinical_summary": "s"}`)
	require.NoError(t, err)
	assert.NotNil(t, review.Checklist)
	assert.NotNil(t, review.RecommendedNextSteps)
}
