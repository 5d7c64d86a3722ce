package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcohort/eligibility-api/internal/model"
	"github.com/medcohort/eligibility-api/pkg/logger"
)

type fakeIngestStore struct {
	mu        sync.Mutex
	began     bool
	committed bool
	aborted   bool
	failOn    string

	patients     []model.Patient
	conditions   []model.Condition
	observations []model.Observation
	procedures   []model.Procedure
	encounters   []model.Encounter
	medications  []model.MedicationRequest
	documents    []model.DocumentReference
	allergies    []model.AllergyIntolerance
	devices      []model.Device
	immunization []model.Immunization
	practitioner []model.Practitioner
	organization []model.Organization
	locations    []model.Location
}

func (f *fakeIngestStore) BeginRebuild(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.began = true
	return nil
}

func (f *fakeIngestStore) CommitRebuild(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = true
	return nil
}

func (f *fakeIngestStore) AbortRebuild(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted = true
	return nil
}

func (f *fakeIngestStore) check(table string) error {
	if f.failOn == table {
		return errors.New("storage write failed")
	}
	return nil
}

func (f *fakeIngestStore) InsertPatients(_ context.Context, rows []model.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patients = append(f.patients, rows...)
	return f.check("patients")
}

func (f *fakeIngestStore) InsertConditions(_ context.Context, rows []model.Condition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conditions = append(f.conditions, rows...)
	return f.check("conditions")
}

func (f *fakeIngestStore) CopyObservations(_ context.Context, rows []model.Observation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observations = append(f.observations, rows...)
	return f.check("observations")
}

func (f *fakeIngestStore) InsertProcedures(_ context.Context, rows []model.Procedure) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procedures = append(f.procedures, rows...)
	return f.check("procedures")
}

func (f *fakeIngestStore) InsertEncounters(_ context.Context, rows []model.Encounter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.encounters = append(f.encounters, rows...)
	return f.check("encounters")
}

func (f *fakeIngestStore) InsertMedicationRequests(_ context.Context, rows []model.MedicationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.medications = append(f.medications, rows...)
	return f.check("medication_requests")
}

func (f *fakeIngestStore) InsertDocumentReferences(_ context.Context, rows []model.DocumentReference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, rows...)
	return f.check("document_references")
}

func (f *fakeIngestStore) InsertAllergyIntolerances(_ context.Context, rows []model.AllergyIntolerance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allergies = append(f.allergies, rows...)
	return f.check("allergy_intolerances")
}

func (f *fakeIngestStore) InsertDevices(_ context.Context, rows []model.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = append(f.devices, rows...)
	return f.check("devices")
}

func (f *fakeIngestStore) InsertImmunizations(_ context.Context, rows []model.Immunization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.immunization = append(f.immunization, rows...)
	return f.check("immunizations")
}

func (f *fakeIngestStore) InsertPractitioners(_ context.Context, rows []model.Practitioner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.practitioner = append(f.practitioner, rows...)
	return f.check("practitioners")
}

func (f *fakeIngestStore) InsertOrganizations(_ context.Context, rows []model.Organization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.organization = append(f.organization, rows...)
	return f.check("organizations")
}

func (f *fakeIngestStore) InsertLocations(_ context.Context, rows []model.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations = append(f.locations, rows...)
	return f.check("locations")
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Output: io.Discard})
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Patient.ndjson", "")
	writeFile(t, dir, "Observation.0001.ndjson", "")
	writeFile(t, dir, "Observation.0002.ndjson", "")
	writeFile(t, dir, "log.ndjson", "")
	writeFile(t, dir, "notes.txt", "")

	files, err := DiscoverFiles(dir)
	require.NoError(t, err)

	assert.Len(t, files, 2)
	assert.Len(t, files["Patient"], 1)
	require.Len(t, files["Observation"], 2)
	assert.Equal(t, filepath.Join(dir, "Observation.0001.ndjson"), files["Observation"][0])
}

func TestDiscoverFilesMissingDir(t *testing.T) {
	_, err := DiscoverFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Patient.ndjson",
		`{"resourceType":"Patient","id":"p1","name":[{"family":"Mills423","given":["Kieth891"],"prefix":["Mr."]}],"gender":"male","birthDate":"1980-04-01","address":[{"city":"Boston","state":"MA"}]}
{"resourceType":"Patient","id":"p2","gender":"female"}
`)
	writeFile(t, dir, "Condition.ndjson",
		`{"resourceType":"Condition","id":"c1","subject":{"reference":"Patient/p1"},"clinicalStatus":{"coding":[{"code":"active"}]},"code":{"coding":[{"system":"http://snomed.info/sct","code":"59621000","display":"Essential hypertension (disorder)"}]},"onsetDateTime":"2015-03-01"}
{"resourceType":"Condition","id":"c2","subject":{"reference":"Practitioner/x"},"code":{"coding":[{"code":"1"}]}}
{"resourceType":"Condition","id":"c3","code":{"coding":[{"code":"2"}]}}
not even json
`)
	writeFile(t, dir, "Observation.ndjson",
		`{"resourceType":"Observation","id":"o1","subject":{"reference":"urn:uuid:p1"},"code":{"coding":[{"code":"39156-5","display":"Body mass index"}]},"valueQuantity":{"value":38.2,"unit":"kg/m2"},"effectiveDateTime":"2023-01-15"}
`)

	store := &fakeIngestStore{}
	p := NewPipeline(store, testLogger(), nil, 1)

	report, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, store.began)
	assert.True(t, store.committed)
	assert.False(t, store.aborted)
	assert.NotEmpty(t, report.RunID)

	// patients: name digits stripped, prefix kept separately
	require.Len(t, store.patients, 2)
	assert.Equal(t, "Mills", *store.patients[0].FamilyName)
	assert.Equal(t, "Kieth", *store.patients[0].GivenName)
	assert.Equal(t, "Mr.", *store.patients[0].Prefix)
	assert.NotNil(t, store.patients[0].RawJSON)

	// conditions: good row loaded, bad reference and bad line dropped
	require.Len(t, store.conditions, 1)
	assert.Equal(t, "p1", store.conditions[0].PatientID)
	assert.Equal(t, "Essential hypertension", *store.conditions[0].Display)
	assert.Equal(t, "disorder", *store.conditions[0].SemanticTag)

	condStats := report.Types["Condition"]
	assert.Equal(t, 1, condStats.Loaded)
	assert.Equal(t, 1, condStats.ParseErrors)
	assert.Equal(t, 1, condStats.MissingRefs)
	assert.Equal(t, 1, condStats.MalformedRefs)

	// observations: urn reference resolved, value captured
	require.Len(t, store.observations, 1)
	assert.Equal(t, "p1", store.observations[0].PatientID)
	assert.Equal(t, 38.2, *store.observations[0].ValueQuantity)

	// a malformed condition line never affects other types
	assert.Equal(t, 2, report.Types["Patient"].Loaded)
	assert.Equal(t, 0, report.Types["Patient"].ParseErrors)
}

// A resource type with no files still reports; the rest load normally.
func TestPipelineRunMissingType(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Patient.ndjson", `{"resourceType":"Patient","id":"p1"}`+"\n")

	store := &fakeIngestStore{}
	p := NewPipeline(store, testLogger(), nil, 10)

	report, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, store.committed)
	assert.Equal(t, 1, report.Types["Patient"].Loaded)
	assert.Equal(t, 0, report.Types["Procedure"].Files)
	assert.Equal(t, 0, report.Types["Procedure"].Loaded)
}

// A file that fails mid-read (here, a line over the size cap) is skipped and
// reported like an unopenable one; the rest of the run still commits.
func TestPipelineRunSkipsFileWithUnreadableLine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Patient.ndjson", `{"resourceType":"Patient","id":"p1"}`+"\n")
	writeFile(t, dir, "Condition.ndjson",
		`{"resourceType":"Condition","id":"c1","subject":{"reference":"Patient/p1"},"code":{"coding":[{"code":"1"}]}}`+"\n"+
			strings.Repeat("x", maxLineBytes+1)+"\n")

	store := &fakeIngestStore{}
	p := NewPipeline(store, testLogger(), nil, 10)

	report, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, store.committed)
	assert.False(t, store.aborted)

	// the healthy type and the rows read before the failure survive
	assert.Equal(t, 1, report.Types["Patient"].Loaded)
	require.Len(t, store.conditions, 1)
	condStats := report.Types["Condition"]
	assert.Equal(t, 1, condStats.Loaded)
	require.Len(t, condStats.SkippedFiles, 1)
	assert.Equal(t, filepath.Join(dir, "Condition.ndjson"), condStats.SkippedFiles[0])
}

// Loading the same export twice produces identical rows and statistics.
func TestPipelineRunRepeatable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Patient.ndjson",
		`{"resourceType":"Patient","id":"p1","name":[{"family":"Mills423","given":["Kieth891"]}]}
{"resourceType":"Patient","id":"p2","gender":"female"}
`)
	writeFile(t, dir, "Condition.ndjson",
		`{"resourceType":"Condition","id":"c1","subject":{"reference":"Patient/p1"},"code":{"coding":[{"code":"59621000"}]}}
not even json
`)
	writeFile(t, dir, "Observation.0001.ndjson",
		`{"resourceType":"Observation","id":"o1","subject":{"reference":"Patient/p1"},"code":{"coding":[{"code":"39156-5"}]},"valueQuantity":{"value":38.2,"unit":"kg/m2"},"effectiveDateTime":"2023-01-15"}
`)
	writeFile(t, dir, "Observation.0002.ndjson",
		`{"resourceType":"Observation","id":"o2","subject":{"reference":"Patient/p2"},"code":{"coding":[{"code":"29463-7"}]},"valueQuantity":{"value":88,"unit":"kg"}}
`)

	run := func() (*fakeIngestStore, *RunReport) {
		store := &fakeIngestStore{}
		report, err := NewPipeline(store, testLogger(), nil, 2).Run(context.Background(), dir)
		require.NoError(t, err)
		require.True(t, store.began)
		require.True(t, store.committed)
		return store, report
	}

	firstStore, firstReport := run()
	secondStore, secondReport := run()

	assert.Equal(t, firstReport.Types, secondReport.Types)
	assert.Equal(t, firstStore.patients, secondStore.patients)
	assert.Equal(t, firstStore.conditions, secondStore.conditions)
	assert.Equal(t, firstStore.observations, secondStore.observations)
}

func TestPipelineRunAbortsOnStorageError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Patient.ndjson", `{"resourceType":"Patient","id":"p1"}`+"\n")

	store := &fakeIngestStore{failOn: "patients"}
	p := NewPipeline(store, testLogger(), nil, 1)

	_, err := p.Run(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, store.aborted)
	assert.False(t, store.committed)
}
