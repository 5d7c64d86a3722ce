package clinical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcohort/eligibility-api/internal/model"
	apperrors "github.com/medcohort/eligibility-api/pkg/errors"
)

type fakePatientStore struct {
	patient *model.Patient
}

func (f *fakePatientStore) GetPatient(_ context.Context, id string) (*model.Patient, error) {
	if f.patient == nil || f.patient.ID != id {
		return nil, apperrors.NotFound("patient", nil)
	}
	return f.patient, nil
}

func (f *fakePatientStore) ListPatients(context.Context, int, int, string) ([]model.Patient, int, error) {
	return nil, 0, nil
}

type fakeRecordStore struct {
	record *model.PatientRecord
}

func (f *fakeRecordStore) ListPatientIDs(context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeRecordStore) PatientRecord(_ context.Context, patientID string) (*model.PatientRecord, error) {
	if f.record != nil {
		return f.record, nil
	}
	return &model.PatientRecord{PatientID: patientID}, nil
}

func newTestService(rec *model.PatientRecord) *Service {
	return NewService(
		&fakePatientStore{patient: &model.Patient{ID: "p1", GivenName: strptr("Ada"), FamilyName: strptr("Stone")}},
		&fakeRecordStore{record: rec},
	)
}

func obs(id, code, display string, value float64, unit, date string) model.Observation {
	return model.Observation{
		ID:                id,
		PatientID:         "p1",
		Code:              strptr(code),
		Display:           strptr(display),
		ValueQuantity:     &value,
		ValueUnit:         strptr(unit),
		EffectiveDateTime: strptr(date),
	}
}

func TestSnapshotUnknownPatient(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Snapshot(context.Background(), "nope")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestSnapshotEmptyRecordListsAllMissing(t *testing.T) {
	svc := newTestService(nil)

	snap, err := svc.Snapshot(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "Ada Stone", snap.Patient.FullName)
	assert.Empty(t, snap.ActiveConditions)
	assert.Equal(t, []string{
		"No BMI observation recorded",
		"No blood pressure data available",
		"No body weight recorded",
		"No body height recorded",
	}, snap.MissingData)
}

func TestSnapshotKeyObservations(t *testing.T) {
	bpJSON := `[
		{"code":{"coding":[{"code":"8480-6"}]},"valueQuantity":{"value":128,"unit":"mm[Hg]"}},
		{"code":{"coding":[{"code":"8462-4"}]},"valueQuantity":{"value":82,"unit":"mm[Hg]"}}
	]`
	rec := &model.PatientRecord{
		PatientID: "p1",
		Observations: []model.Observation{
			obs("bmi-old", "39156-5", "Body mass index", 33, "kg/m2", "2019-01-01"),
			obs("bmi-new", "39156-5", "Body mass index", 38.5, "kg/m2", "2023-06-01"),
			obs("wt", "29463-7", "Body weight", 110.4, "kg", "2023-06-01"),
			{
				ID:                "bp",
				PatientID:         "p1",
				Code:              strptr("85354-9"),
				Display:           strptr("Blood pressure panel"),
				EffectiveDateTime: strptr("2023-06-01"),
				ComponentJSON:     strptr(bpJSON),
			},
		},
	}
	svc := newTestService(rec)

	snap, err := svc.Snapshot(context.Background(), "p1")
	require.NoError(t, err)

	require.NotNil(t, snap.KeyObservations.BMI)
	assert.Equal(t, "bmi-new", snap.KeyObservations.BMI.ID)
	assert.Equal(t, "38.5 kg/m2", *snap.KeyObservations.BMI.Value)

	require.NotNil(t, snap.KeyObservations.SystolicBP)
	assert.Equal(t, "bp", snap.KeyObservations.SystolicBP.ID)
	assert.Equal(t, "Systolic Blood Pressure", snap.KeyObservations.SystolicBP.Display)
	assert.Equal(t, "128 mm[Hg]", *snap.KeyObservations.SystolicBP.Value)
	require.NotNil(t, snap.KeyObservations.DiastolicBP)
	assert.Equal(t, 82.0, *snap.KeyObservations.DiastolicBP.ValueNumeric)

	assert.Equal(t, []string{"No body height recorded"}, snap.MissingData)
}

func TestSnapshotActiveConditions(t *testing.T) {
	rec := &model.PatientRecord{
		PatientID: "p1",
		Conditions: []model.Condition{
			{ID: "c1", PatientID: "p1", ClinicalStatus: strptr("active"), Display: strptr("Essential hypertension"), SemanticTag: strptr("disorder"), OnsetDateTime: strptr("2015-01-01")},
			{ID: "c2", PatientID: "p1", ClinicalStatus: strptr("active"), Display: strptr("Received higher education"), SemanticTag: strptr("finding"), OnsetDateTime: strptr("2010-01-01")},
			{ID: "c3", PatientID: "p1", ClinicalStatus: strptr("resolved"), Display: strptr("Acute bronchitis"), SemanticTag: strptr("disorder"), OnsetDateTime: strptr("2021-01-01")},
			{ID: "c4", PatientID: "p1", ClinicalStatus: strptr("active"), Display: strptr("Obstructive sleep apnea"), SemanticTag: strptr("disorder"), OnsetDateTime: strptr("2020-01-01")},
		},
	}
	svc := newTestService(rec)

	snap, err := svc.Snapshot(context.Background(), "p1")
	require.NoError(t, err)

	// findings and resolved conditions stay out; newest onset first
	require.Len(t, snap.ActiveConditions, 2)
	assert.Equal(t, "c4", snap.ActiveConditions[0].ID)
	assert.Equal(t, "c1", snap.ActiveConditions[1].ID)
}

func TestTimelineMergeAndPaginate(t *testing.T) {
	rec := &model.PatientRecord{
		PatientID: "p1",
		Observations: []model.Observation{
			obs("o1", "29463-7", "Body weight", 100, "kg", "2021-01-01"),
			obs("o2", "29463-7", "Body weight", 104, "kg", "2023-01-01"),
		},
		Procedures: []model.Procedure{
			{ID: "pr1", PatientID: "p1", Display: strptr("Depression screening"), Status: strptr("completed"), PerformedStart: strptr("2022-01-01")},
			{ID: "pr2", PatientID: "p1", Display: strptr("Old procedure"), Status: strptr("completed")},
		},
	}
	svc := newTestService(rec)

	page1, err := svc.Timeline(context.Background(), "p1", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, page1.Total)
	require.Len(t, page1.Entries, 3)
	assert.Equal(t, "o2", page1.Entries[0].ResourceID)
	assert.Equal(t, "pr1", page1.Entries[1].ResourceID)
	assert.Equal(t, "o1", page1.Entries[2].ResourceID)

	// undated entries sort last
	page2, err := svc.Timeline(context.Background(), "p1", 2, 3)
	require.NoError(t, err)
	require.Len(t, page2.Entries, 1)
	assert.Equal(t, "pr2", page2.Entries[0].ResourceID)

	// past the end is an empty page, not an error
	page3, err := svc.Timeline(context.Background(), "p1", 9, 3)
	require.NoError(t, err)
	assert.Empty(t, page3.Entries)
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "38.5 kg/m2", formatQuantity(38.5, "kg/m2"))
	assert.Equal(t, "120", formatQuantity(120, ""))
	assert.Equal(t, "0.25 g", formatQuantity(0.25, "g"))
}
