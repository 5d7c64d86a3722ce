package ingest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medcohort/eligibility-api/internal/model"
	"github.com/medcohort/eligibility-api/internal/repository"
	"github.com/medcohort/eligibility-api/pkg/logger"
	"github.com/medcohort/eligibility-api/pkg/metrics"
)

// DefaultBatchSize bounds memory per resource-type stream and amortizes
// write overhead on the high-volume types.
const DefaultBatchSize = 5000

// TypeStats is the per-resource-type accounting surfaced after a run.
type TypeStats struct {
	ResourceType  string   `json:"resource_type"`
	Files         int      `json:"files"`
	SkippedFiles  []string `json:"skipped_files,omitempty"`
	Loaded        int      `json:"loaded"`
	ParseErrors   int      `json:"parse_errors"`
	MissingRefs   int      `json:"missing_refs"`
	MalformedRefs int      `json:"malformed_refs"`
}

// RunReport summarizes one batch ingestion run.
type RunReport struct {
	RunID   string                `json:"run_id"`
	Elapsed time.Duration         `json:"elapsed"`
	Types   map[string]*TypeStats `json:"types"`
}

// Pipeline drives one batch load: for every resource type it streams the
// NDJSON files, resolves ownership, normalizes, and writes into the staging
// table set, which is swapped live on commit. Resource types load in
// parallel; they share nothing but the store.
type Pipeline struct {
	store     repository.IngestStore
	log       *logger.Logger
	metrics   *metrics.Metrics
	batchSize int
}

// NewPipeline creates a pipeline. Metrics may be nil (e.g. in tests).
func NewPipeline(store repository.IngestStore, log *logger.Logger, m *metrics.Metrics, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{store: store, log: log, metrics: m, batchSize: batchSize}
}

// DiscoverFiles scans dataDir and groups NDJSON files by the resource-type
// prefix of their file name ("Observation.0001.ndjson" -> "Observation").
func DiscoverFiles(dataDir string) (map[string][]string, error) {
	if _, err := os.Stat(dataDir); err != nil {
		return nil, fmt.Errorf("data directory %s: %w", dataDir, err)
	}
	paths, err := filepath.Glob(filepath.Join(dataDir, "*.ndjson"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dataDir, err)
	}
	sort.Strings(paths)

	files := make(map[string][]string)
	for _, path := range paths {
		name := filepath.Base(path)
		if name == "log.ndjson" {
			continue
		}
		resourceType := strings.SplitN(name, ".", 2)[0]
		files[resourceType] = append(files[resourceType], path)
	}
	return files, nil
}

// Run executes one full rebuild. A malformed line or unresolvable reference
// never aborts a load; a missing or unreadable file skips that file only.
// Anything that does fail (storage errors mid-flush) aborts the rebuild and
// the staging tables are discarded, leaving the live table set untouched.
func (p *Pipeline) Run(ctx context.Context, dataDir string) (*RunReport, error) {
	files, err := DiscoverFiles(dataDir)
	if err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID: uuid.New().String(),
		Types: make(map[string]*TypeStats),
	}
	start := time.Now()

	p.log.ZL.Info().
		Str("run_id", report.RunID).
		Int("resource_types", len(files)).
		Msg("starting ingestion rebuild")

	if err := p.store.BeginRebuild(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin rebuild: %w", err)
	}

	type loaderFn func(context.Context, []string, *TypeStats) error
	loaders := []struct {
		resourceType string
		load         loaderFn
	}{
		{"Patient", p.loadPatients},
		{"Condition", p.loadConditions},
		{"Observation", p.loadObservations},
		{"Procedure", p.loadProcedures},
		{"Encounter", p.loadEncounters},
		{"MedicationRequest", p.loadMedicationRequests},
		{"DocumentReference", p.loadDocumentReferences},
		{"AllergyIntolerance", p.loadAllergyIntolerances},
		{"Device", p.loadDevices},
		{"Immunization", p.loadImmunizations},
		{"Practitioner", p.loadPractitioners},
		{"Organization", p.loadOrganizations},
		{"Location", p.loadLocations},
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, l := range loaders {
		st := &TypeStats{ResourceType: l.resourceType, Files: len(files[l.resourceType])}
		report.Types[l.resourceType] = st

		wg.Add(1)
		go func(resourceType string, paths []string, load loaderFn, st *TypeStats) {
			defer wg.Done()
			typeStart := time.Now()
			if err := load(ctx, paths, st); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s load failed: %w", resourceType, err)
				}
				mu.Unlock()
				return
			}
			p.observeType(resourceType, st, time.Since(typeStart))
		}(l.resourceType, files[l.resourceType], l.load, st)
	}
	wg.Wait()

	if firstErr != nil {
		if err := p.store.AbortRebuild(ctx); err != nil {
			p.log.Error(err, "failed to discard staging tables")
		}
		return report, firstErr
	}

	if err := p.store.CommitRebuild(ctx); err != nil {
		return report, fmt.Errorf("failed to commit rebuild: %w", err)
	}

	report.Elapsed = time.Since(start)
	p.log.ZL.Info().
		Str("run_id", report.RunID).
		Dur("elapsed", report.Elapsed).
		Msg("ingestion rebuild complete")
	return report, nil
}

func (p *Pipeline) observeType(resourceType string, st *TypeStats, elapsed time.Duration) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordsLoaded.WithLabelValues(resourceType).Add(float64(st.Loaded))
	p.metrics.RecordsSkipped.WithLabelValues(resourceType, "parse_error").Add(float64(st.ParseErrors))
	p.metrics.ResolverFailures.WithLabelValues(resourceType, string(RefMissing)).Add(float64(st.MissingRefs))
	p.metrics.ResolverFailures.WithLabelValues(resourceType, string(RefMalformed)).Add(float64(st.MalformedRefs))
	p.metrics.IngestDuration.WithLabelValues(resourceType).Observe(elapsed.Seconds())
}

func (p *Pipeline) countFlush(resourceType string) {
	if p.metrics != nil {
		p.metrics.BatchFlushes.WithLabelValues(resourceType).Inc()
	}
}

// recordDiagnostics folds one file's reader diagnostics into the type stats.
func (p *Pipeline) recordDiagnostics(st *TypeStats, path string, diags []Diagnostic) {
	st.ParseErrors += len(diags)
	for _, d := range diags {
		p.log.ZL.Warn().
			Str("file", path).
			Int("line", d.Line).
			Str("kind", string(d.Kind)).
			Str("detail", d.Detail).
			Msg("skipping line")
	}
}

// recordRefFailure drops one resource whose owning patient could not be
// resolved. The resource is never attached to a guessed patient.
func (p *Pipeline) recordRefFailure(st *TypeStats, resourceType, resourceID string, fail *RefFailure) {
	switch fail.Kind {
	case RefMissing:
		st.MissingRefs++
	case RefMalformed:
		st.MalformedRefs++
	}
	p.log.ZL.Warn().
		Str("resource_type", resourceType).
		Str("resource_id", resourceID).
		Str("kind", string(fail.Kind)).
		Str("ref", fail.Ref).
		Msg("dropping resource with unresolvable patient reference")
}

// skipFile records a missing or unreadable file; the rest of the type's
// files and all other types still load.
func (p *Pipeline) skipFile(st *TypeStats, path string, err error) {
	st.SkippedFiles = append(st.SkippedFiles, path)
	p.log.ZL.Warn().Str("file", path).Err(err).Msg("skipping unreadable file")
}

// finishFile folds one file's outcome into the type stats. A stream read
// failure (oversized line, I/O error) skips that file the same way an
// unopenable one is skipped; an emit error carries a storage failure and
// stays fatal to the rebuild.
func (p *Pipeline) finishFile(st *TypeStats, path string, diags []Diagnostic, err error) error {
	p.recordDiagnostics(st, path, diags)
	if err == nil {
		return nil
	}
	var re *readError
	if errors.As(err, &re) {
		p.skipFile(st, path, err)
		return nil
	}
	return err
}

// batcher accumulates rows and flushes them in fixed-size chunks.
type batcher[T any] struct {
	size  int
	rows  []T
	flush func(context.Context, []T) error
}

func newBatcher[T any](size int, flush func(context.Context, []T) error) *batcher[T] {
	return &batcher[T]{size: size, rows: make([]T, 0, size), flush: flush}
}

func (b *batcher[T]) add(ctx context.Context, row T) error {
	b.rows = append(b.rows, row)
	if len(b.rows) >= b.size {
		return b.fire(ctx)
	}
	return nil
}

func (b *batcher[T]) fire(ctx context.Context) error {
	if len(b.rows) == 0 {
		return nil
	}
	if err := b.flush(ctx, b.rows); err != nil {
		return err
	}
	b.rows = b.rows[:0]
	return nil
}

func (b *batcher[T]) close(ctx context.Context) error {
	return b.fire(ctx)
}

func strp(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// extensionText digs the text value out of a FHIR extension whose URL
// contains fragment (us-core-race, us-core-ethnicity).
func extensionText(exts []model.Extension, fragment string) string {
	for _, ext := range exts {
		if ext.URL == "" || !strings.Contains(ext.URL, fragment) {
			continue
		}
		for _, sub := range ext.Extension {
			if sub.URL == "text" && sub.ValueString != "" {
				return sub.ValueString
			}
		}
	}
	return ""
}

func conceptCode(c *model.CodeableConcept) string {
	code, _, _ := c.FirstCoding()
	return code
}

func (p *Pipeline) loadPatients(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.Patient) error {
		p.countFlush("Patient")
		return p.store.InsertPatients(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIRPatient) string { return r.ID },
			func(rec *model.FHIRPatient, raw []byte) error {
				row := model.Patient{
					ID:               rec.ID,
					Gender:           strp(rec.Gender),
					BirthDate:        strp(rec.BirthDate),
					DeceasedDateTime: strp(rec.DeceasedDateTime),
					Race:             strp(extensionText(rec.Extension, "us-core-race")),
					Ethnicity:        strp(extensionText(rec.Extension, "us-core-ethnicity")),
					RawJSON:          strp(string(raw)),
				}
				if len(rec.Name) > 0 {
					name := rec.Name[0]
					row.FamilyName = strp(StripSyntheticDigits(name.Family))
					row.GivenName = strp(StripSyntheticDigits(strings.Join(name.Given, " ")))
					if len(name.Prefix) > 0 {
						row.Prefix = strp(name.Prefix[0])
					}
				}
				if len(rec.Address) > 0 {
					row.AddressCity = strp(rec.Address[0].City)
					row.AddressState = strp(rec.Address[0].State)
				}
				if rec.MaritalStatus != nil {
					row.MaritalStatus = strp(rec.MaritalStatus.Text)
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadConditions(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.Condition) error {
		p.countFlush("Condition")
		return p.store.InsertConditions(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIRCondition) string { return r.ID },
			func(rec *model.FHIRCondition, _ []byte) error {
				patientID, fail := ResolvePatientID(rec.Subject)
				if fail != nil {
					p.recordRefFailure(st, "Condition", rec.ID, fail)
					return nil
				}
				code, system, display := rec.Code.FirstCoding()
				clean, tag := SplitDisplayTag(display)
				row := model.Condition{
					ID:                 rec.ID,
					PatientID:          patientID,
					ClinicalStatus:     strp(conceptCode(rec.ClinicalStatus)),
					VerificationStatus: strp(conceptCode(rec.VerificationStatus)),
					CodeSystem:         strp(system),
					Code:               strp(code),
					Display:            strp(clean),
					SemanticTag:        strp(tag),
					OnsetDateTime:      strp(rec.OnsetDateTime),
					AbatementDateTime:  strp(rec.AbatementDateTime),
					RecordedDate:       strp(rec.RecordedDate),
				}
				if encID, fail := ResolveEncounterID(rec.Encounter); fail == nil {
					row.EncounterID = strp(encID)
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadObservations(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.Observation) error {
		p.countFlush("Observation")
		return p.store.CopyObservations(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIRObservation) string { return r.ID },
			func(rec *model.FHIRObservation, _ []byte) error {
				patientID, fail := ResolvePatientID(rec.Subject)
				if fail != nil {
					p.recordRefFailure(st, "Observation", rec.ID, fail)
					return nil
				}
				code, system, display := rec.Code.FirstCoding()
				clean, _ := SplitDisplayTag(display)
				row := model.Observation{
					ID:                rec.ID,
					PatientID:         patientID,
					Status:            strp(rec.Status),
					CodeSystem:        strp(system),
					Code:              strp(code),
					Display:           strp(clean),
					EffectiveDateTime: strp(rec.EffectiveDateTime),
				}
				if encID, fail := ResolveEncounterID(rec.Encounter); fail == nil {
					row.EncounterID = strp(encID)
				}
				if len(rec.Category) > 0 {
					row.Category = strp(conceptCode(&rec.Category[0]))
				}
				if rec.ValueQuantity != nil && rec.ValueQuantity.Value != nil {
					row.ValueQuantity = rec.ValueQuantity.Value
					row.ValueUnit = strp(rec.ValueQuantity.Unit)
				} else if rec.ValueCodeableConcept != nil {
					vc, _, vd := rec.ValueCodeableConcept.FirstCoding()
					row.ValueCode = strp(vc)
					row.ValueDisplay = strp(vd)
				}
				if len(rec.Component) > 0 {
					if cj, err := json.Marshal(rec.Component); err == nil {
						row.ComponentJSON = strp(string(cj))
					}
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadProcedures(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.Procedure) error {
		p.countFlush("Procedure")
		return p.store.InsertProcedures(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIRProcedure) string { return r.ID },
			func(rec *model.FHIRProcedure, _ []byte) error {
				patientID, fail := ResolvePatientID(rec.Subject)
				if fail != nil {
					p.recordRefFailure(st, "Procedure", rec.ID, fail)
					return nil
				}
				code, system, display := rec.Code.FirstCoding()
				clean, _ := SplitDisplayTag(display)
				row := model.Procedure{
					ID:         rec.ID,
					PatientID:  patientID,
					Status:     strp(rec.Status),
					CodeSystem: strp(system),
					Code:       strp(code),
					Display:    strp(clean),
				}
				if encID, fail := ResolveEncounterID(rec.Encounter); fail == nil {
					row.EncounterID = strp(encID)
				}
				if rec.PerformedPeriod != nil {
					row.PerformedStart = strp(rec.PerformedPeriod.Start)
					row.PerformedEnd = strp(rec.PerformedPeriod.End)
				} else if rec.PerformedDateTime != "" {
					row.PerformedStart = strp(rec.PerformedDateTime)
				}
				if len(rec.ReasonCode) > 0 {
					rc, _, rd := rec.ReasonCode[0].FirstCoding()
					row.ReasonCode = strp(rc)
					row.ReasonDisplay = strp(rd)
				} else if len(rec.ReasonReference) > 0 {
					row.ReasonDisplay = strp(rec.ReasonReference[0].Display)
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadEncounters(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.Encounter) error {
		p.countFlush("Encounter")
		return p.store.InsertEncounters(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIREncounter) string { return r.ID },
			func(rec *model.FHIREncounter, _ []byte) error {
				patientID, fail := ResolvePatientID(rec.Subject)
				if fail != nil {
					p.recordRefFailure(st, "Encounter", rec.ID, fail)
					return nil
				}
				row := model.Encounter{
					ID:        rec.ID,
					PatientID: patientID,
					Status:    strp(rec.Status),
				}
				if rec.Class != nil {
					row.EncounterClass = strp(rec.Class.Code)
				}
				if len(rec.Type) > 0 {
					tc, _, td := rec.Type[0].FirstCoding()
					clean, _ := SplitDisplayTag(td)
					row.TypeCode = strp(tc)
					row.TypeDisplay = strp(clean)
				}
				if rec.Period != nil {
					row.PeriodStart = strp(rec.Period.Start)
					row.PeriodEnd = strp(rec.Period.End)
				}
				for _, part := range rec.Participant {
					if part.Individual != nil && part.Individual.Display != "" {
						row.PractitionerDisplay = strp(part.Individual.Display)
						break
					}
				}
				for _, loc := range rec.Location {
					if loc.Location != nil && loc.Location.Display != "" {
						row.LocationDisplay = strp(loc.Location.Display)
						break
					}
				}
				if rec.ServiceProvider != nil {
					row.OrganizationDisplay = strp(rec.ServiceProvider.Display)
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadMedicationRequests(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.MedicationRequest) error {
		p.countFlush("MedicationRequest")
		return p.store.InsertMedicationRequests(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIRMedicationRequest) string { return r.ID },
			func(rec *model.FHIRMedicationRequest, _ []byte) error {
				patientID, fail := ResolvePatientID(rec.Subject)
				if fail != nil {
					p.recordRefFailure(st, "MedicationRequest", rec.ID, fail)
					return nil
				}
				medCode, _, medDisplay := rec.MedicationCodeableConcept.FirstCoding()
				row := model.MedicationRequest{
					ID:                rec.ID,
					PatientID:         patientID,
					Status:            strp(rec.Status),
					Intent:            strp(rec.Intent),
					MedicationCode:    strp(medCode),
					MedicationDisplay: strp(medDisplay),
					AuthoredOn:        strp(rec.AuthoredOn),
				}
				if encID, fail := ResolveEncounterID(rec.Encounter); fail == nil {
					row.EncounterID = strp(encID)
				}
				if len(rec.ReasonCode) > 0 {
					rc, _, rd := rec.ReasonCode[0].FirstCoding()
					row.ReasonCode = strp(rc)
					row.ReasonDisplay = strp(rd)
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadDocumentReferences(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.DocumentReference) error {
		p.countFlush("DocumentReference")
		return p.store.InsertDocumentReferences(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIRDocumentReference) string { return r.ID },
			func(rec *model.FHIRDocumentReference, _ []byte) error {
				patientID, fail := ResolvePatientID(rec.Subject)
				if fail != nil {
					p.recordRefFailure(st, "DocumentReference", rec.ID, fail)
					return nil
				}
				typeCode, _, typeDisplay := rec.Type.FirstCoding()
				row := model.DocumentReference{
					ID:          rec.ID,
					PatientID:   patientID,
					Status:      strp(rec.Status),
					TypeCode:    strp(typeCode),
					TypeDisplay: strp(typeDisplay),
					Date:        strp(rec.Date),
				}
				if len(rec.Content) > 0 && rec.Content[0].Attachment != nil {
					if data := rec.Content[0].Attachment.Data; data != "" {
						if text, err := base64.StdEncoding.DecodeString(data); err == nil {
							row.ContentText = strp(string(text))
						}
					}
				}
				if len(rec.Author) > 0 {
					row.AuthorDisplay = strp(rec.Author[0].Display)
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadAllergyIntolerances(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.AllergyIntolerance) error {
		p.countFlush("AllergyIntolerance")
		return p.store.InsertAllergyIntolerances(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIRAllergyIntolerance) string { return r.ID },
			func(rec *model.FHIRAllergyIntolerance, _ []byte) error {
				patientID, fail := ResolvePatientID(rec.Patient)
				if fail != nil {
					p.recordRefFailure(st, "AllergyIntolerance", rec.ID, fail)
					return nil
				}
				code, _, display := rec.Code.FirstCoding()
				clean, _ := SplitDisplayTag(display)
				row := model.AllergyIntolerance{
					ID:                 rec.ID,
					PatientID:          patientID,
					ClinicalStatus:     strp(conceptCode(rec.ClinicalStatus)),
					VerificationStatus: strp(conceptCode(rec.VerificationStatus)),
					AllergyType:        strp(rec.Type),
					Criticality:        strp(rec.Criticality),
					Code:               strp(code),
					Display:            strp(clean),
					RecordedDate:       strp(rec.RecordedDate),
				}
				if len(rec.Category) > 0 {
					row.Category = strp(rec.Category[0])
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadDevices(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.Device) error {
		p.countFlush("Device")
		return p.store.InsertDevices(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIRDevice) string { return r.ID },
			func(rec *model.FHIRDevice, _ []byte) error {
				patientID, fail := ResolvePatientID(rec.Patient)
				if fail != nil {
					p.recordRefFailure(st, "Device", rec.ID, fail)
					return nil
				}
				typeCode, _, typeDisplay := rec.Type.FirstCoding()
				clean, _ := SplitDisplayTag(typeDisplay)
				row := model.Device{
					ID:              rec.ID,
					PatientID:       patientID,
					Status:          strp(rec.Status),
					TypeCode:        strp(typeCode),
					TypeDisplay:     strp(clean),
					ManufactureDate: strp(rec.ManufactureDate),
					ExpirationDate:  strp(rec.ExpirationDate),
				}
				if len(rec.DeviceName) > 0 && rec.DeviceName[0].Name != "" {
					row.DeviceName = strp(rec.DeviceName[0].Name)
				} else {
					row.DeviceName = strp(clean)
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadImmunizations(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.Immunization) error {
		p.countFlush("Immunization")
		return p.store.InsertImmunizations(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIRImmunization) string { return r.ID },
			func(rec *model.FHIRImmunization, _ []byte) error {
				patientID, fail := ResolvePatientID(rec.Patient)
				if fail != nil {
					p.recordRefFailure(st, "Immunization", rec.ID, fail)
					return nil
				}
				vaccineCode, _, vaccineDisplay := rec.VaccineCode.FirstCoding()
				row := model.Immunization{
					ID:                 rec.ID,
					PatientID:          patientID,
					Status:             strp(rec.Status),
					VaccineCode:        strp(vaccineCode),
					VaccineDisplay:     strp(vaccineDisplay),
					OccurrenceDateTime: strp(rec.OccurrenceDateTime),
				}
				if encID, fail := ResolveEncounterID(rec.Encounter); fail == nil {
					row.EncounterID = strp(encID)
				}
				if rec.Location != nil {
					row.LocationDisplay = strp(rec.Location.Display)
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadPractitioners(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.Practitioner) error {
		p.countFlush("Practitioner")
		return p.store.InsertPractitioners(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIRPractitioner) string { return r.ID },
			func(rec *model.FHIRPractitioner, _ []byte) error {
				row := model.Practitioner{ID: rec.ID}
				for _, ident := range rec.Identifier {
					if strings.Contains(ident.System, "us-npi") {
						row.NPI = strp(ident.Value)
						break
					}
				}
				if len(rec.Name) > 0 {
					name := rec.Name[0]
					row.FamilyName = strp(name.Family)
					if len(name.Given) > 0 {
						row.GivenName = strp(name.Given[0])
					}
					if len(name.Prefix) > 0 {
						row.Prefix = strp(name.Prefix[0])
					}
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadOrganizations(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.Organization) error {
		p.countFlush("Organization")
		return p.store.InsertOrganizations(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIROrganization) string { return r.ID },
			func(rec *model.FHIROrganization, _ []byte) error {
				row := model.Organization{ID: rec.ID, Name: strp(rec.Name)}
				for _, ident := range rec.Identifier {
					if strings.Contains(ident.System, "synthea") {
						row.IdentifierValue = strp(ident.Value)
						break
					}
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}

func (p *Pipeline) loadLocations(ctx context.Context, paths []string, st *TypeStats) error {
	b := newBatcher(p.batchSize, func(ctx context.Context, rows []model.Location) error {
		p.countFlush("Location")
		return p.store.InsertLocations(ctx, rows)
	})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			p.skipFile(st, path, err)
			continue
		}
		_, diags, err := decodeNDJSON(f,
			func(r *model.FHIRLocation) string { return r.ID },
			func(rec *model.FHIRLocation, _ []byte) error {
				row := model.Location{
					ID:     rec.ID,
					Status: strp(rec.Status),
					Name:   strp(rec.Name),
				}
				for _, ident := range rec.Identifier {
					if strings.Contains(ident.System, "synthea") {
						row.IdentifierValue = strp(ident.Value)
						break
					}
				}
				if rec.Address != nil {
					row.AddressCity = strp(rec.Address.City)
					row.AddressState = strp(rec.Address.State)
				}
				for _, t := range rec.Telecom {
					if t.System == "phone" {
						row.Phone = strp(t.Value)
						break
					}
				}
				if rec.ManagingOrganization != nil {
					row.ManagingOrgDisplay = strp(rec.ManagingOrganization.Display)
				}
				st.Loaded++
				return b.add(ctx, row)
			})
		f.Close()
		if err := p.finishFile(st, path, diags, err); err != nil {
			return err
		}
	}
	return b.close(ctx)
}
