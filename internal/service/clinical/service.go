package clinical

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/medcohort/eligibility-api/internal/model"
	"github.com/medcohort/eligibility-api/internal/repository"
	"github.com/medcohort/eligibility-api/internal/service/eligibility"
	"github.com/medcohort/eligibility-api/internal/service/patient"
)

const (
	recentProcedureLimit = 10
	defaultTimelinePage  = 50
)

// Semantic tags marking entries that are not clinical conditions; the
// snapshot's active-condition list excludes them.
var excludedConditionTags = map[string]struct{}{
	"finding":   {},
	"person":    {},
	"situation": {},
}

// Service builds the clinical snapshot and timeline views from stored
// records.
type Service struct {
	patients repository.PatientStore
	records  repository.RecordStore
}

func NewService(patients repository.PatientStore, records repository.RecordStore) *Service {
	return &Service{patients: patients, records: records}
}

// Snapshot assembles the clinician-facing overview: demographics, active
// conditions, recent procedures, latest key vitals, and an explicit list of
// what is missing.
func (s *Service) Snapshot(ctx context.Context, patientID string) (*model.ClinicalSnapshot, error) {
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	rec, err := s.records.PatientRecord(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient record: %w", err)
	}

	snapshot := &model.ClinicalSnapshot{
		Patient:          patient.ToSummary(p),
		ActiveConditions: activeConditions(rec),
		RecentProcedures: recentProcedures(rec),
		MissingData:      []string{},
	}

	if bmi := latestByCode(rec, eligibility.BMICode); bmi != nil {
		snapshot.KeyObservations.BMI = observationSummary(bmi)
	} else {
		snapshot.MissingData = append(snapshot.MissingData, "No BMI observation recorded")
	}

	if bp := latestByCode(rec, eligibility.BPPanelCode); bp != nil {
		snapshot.KeyObservations.SystolicBP, snapshot.KeyObservations.DiastolicBP = bpComponents(bp)
	}
	if snapshot.KeyObservations.SystolicBP == nil {
		snapshot.MissingData = append(snapshot.MissingData, "No blood pressure data available")
	}

	if weight := latestByCode(rec, eligibility.BodyWeightCode); weight != nil {
		snapshot.KeyObservations.Weight = observationSummary(weight)
	} else {
		snapshot.MissingData = append(snapshot.MissingData, "No body weight recorded")
	}

	if height := latestByCode(rec, eligibility.BodyHeightCode); height != nil {
		snapshot.KeyObservations.Height = observationSummary(height)
	} else {
		snapshot.MissingData = append(snapshot.MissingData, "No body height recorded")
	}

	return snapshot, nil
}

// Timeline merges the patient's observations and procedures into one
// date-descending page. Undated entries sort to the end.
func (s *Service) Timeline(ctx context.Context, patientID string, page, pageSize int) (*model.TimelineResponse, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, err
	}
	rec, err := s.records.PatientRecord(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient record: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultTimelinePage
	}

	entries := make([]model.TimelineEntry, 0, len(rec.Observations)+len(rec.Procedures))
	for i := range rec.Observations {
		o := &rec.Observations[i]
		entries = append(entries, model.TimelineEntry{
			ResourceType: "Observation",
			ResourceID:   o.ID,
			DisplayName:  displayOrUnknown(o.Display),
			Date:         o.EffectiveDateTime,
			Detail:       formatValue(o),
		})
	}
	for i := range rec.Procedures {
		p := &rec.Procedures[i]
		entries = append(entries, model.TimelineEntry{
			ResourceType: "Procedure",
			ResourceID:   p.ID,
			DisplayName:  displayOrUnknown(p.Display),
			Date:         p.PerformedStart,
			Detail:       p.Status,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return deref(entries[i].Date) > deref(entries[j].Date)
	})

	total := len(entries)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &model.TimelineResponse{Entries: entries[start:end], Total: total}, nil
}

func activeConditions(rec *model.PatientRecord) []model.ConditionSummary {
	var active []model.ConditionSummary
	for i := range rec.Conditions {
		c := &rec.Conditions[i]
		if deref(c.ClinicalStatus) != "active" {
			continue
		}
		if c.SemanticTag != nil {
			if _, excluded := excludedConditionTags[*c.SemanticTag]; excluded {
				continue
			}
		}
		active = append(active, model.ConditionSummary{
			ID:             c.ID,
			Code:           c.Code,
			Display:        displayOrUnknown(c.Display),
			ClinicalStatus: c.ClinicalStatus,
			OnsetDate:      c.OnsetDateTime,
		})
	}
	sort.SliceStable(active, func(i, j int) bool {
		return deref(active[i].OnsetDate) > deref(active[j].OnsetDate)
	})
	return active
}

func recentProcedures(rec *model.PatientRecord) []model.ProcedureSummary {
	procs := make([]model.ProcedureSummary, 0, len(rec.Procedures))
	for i := range rec.Procedures {
		p := &rec.Procedures[i]
		procs = append(procs, model.ProcedureSummary{
			ID:            p.ID,
			Code:          p.Code,
			Display:       displayOrUnknown(p.Display),
			Status:        p.Status,
			PerformedDate: p.PerformedStart,
		})
	}
	sort.SliceStable(procs, func(i, j int) bool {
		return deref(procs[i].PerformedDate) > deref(procs[j].PerformedDate)
	})
	if len(procs) > recentProcedureLimit {
		procs = procs[:recentProcedureLimit]
	}
	return procs
}

// latestByCode picks the most recent observation with the given code, equal
// dates resolving to the earliest ingested row.
func latestByCode(rec *model.PatientRecord, code string) *model.Observation {
	var best *model.Observation
	for i := range rec.Observations {
		o := &rec.Observations[i]
		if o.Code == nil || *o.Code != code {
			continue
		}
		if best == nil || deref(o.EffectiveDateTime) > deref(best.EffectiveDateTime) {
			best = o
		}
	}
	return best
}

func observationSummary(o *model.Observation) *model.ObservationSummary {
	return &model.ObservationSummary{
		ID:           o.ID,
		Code:         o.Code,
		Display:      displayOrUnknown(o.Display),
		Value:        formatValue(o),
		ValueNumeric: o.ValueQuantity,
		Date:         o.EffectiveDateTime,
		Category:     o.Category,
	}
}

// bpComponents pulls the systolic and diastolic readings out of a blood
// pressure panel's component JSON. Both summaries cite the panel resource.
func bpComponents(o *model.Observation) (systolic, diastolic *model.ObservationSummary) {
	if o.ComponentJSON == nil {
		return nil, nil
	}
	var components []model.Component
	if err := json.Unmarshal([]byte(*o.ComponentJSON), &components); err != nil {
		return nil, nil
	}

	for _, comp := range components {
		code, _, _ := comp.Code.FirstCoding()
		if comp.ValueQuantity == nil || comp.ValueQuantity.Value == nil {
			continue
		}
		summary := &model.ObservationSummary{
			ID:           o.ID,
			Code:         strptr(code),
			Value:        strptr(formatQuantity(*comp.ValueQuantity.Value, comp.ValueQuantity.Unit)),
			ValueNumeric: comp.ValueQuantity.Value,
			Date:         o.EffectiveDateTime,
			Category:     o.Category,
		}
		switch code {
		case eligibility.BPSystolicCode:
			summary.Display = "Systolic Blood Pressure"
			systolic = summary
		case eligibility.BPDiastolicCode:
			summary.Display = "Diastolic Blood Pressure"
			diastolic = summary
		}
	}
	return systolic, diastolic
}

func formatValue(o *model.Observation) *string {
	if o.ValueQuantity != nil {
		return strptr(formatQuantity(*o.ValueQuantity, deref(o.ValueUnit)))
	}
	if o.ValueDisplay != nil && *o.ValueDisplay != "" {
		return o.ValueDisplay
	}
	return nil
}

func formatQuantity(value float64, unit string) string {
	return strings.TrimSpace(strconv.FormatFloat(value, 'f', -1, 64) + " " + unit)
}

func displayOrUnknown(display *string) string {
	if display == nil || *display == "" {
		return "Unknown"
	}
	return *display
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
