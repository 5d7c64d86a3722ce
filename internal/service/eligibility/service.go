package eligibility

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/medcohort/eligibility-api/internal/model"
	"github.com/medcohort/eligibility-api/internal/repository"
	"github.com/medcohort/eligibility-api/pkg/logger"
	"github.com/medcohort/eligibility-api/pkg/metrics"
)

// Service runs the engine against stored records, one patient at a time or
// across the whole cohort.
type Service struct {
	patients repository.PatientStore
	records  repository.RecordStore
	log      *logger.Logger
	metrics  *metrics.Metrics
	workers  int
}

// NewService creates the service. Metrics may be nil; workers <= 0 defaults
// to the CPU count.
func NewService(patients repository.PatientStore, records repository.RecordStore, log *logger.Logger, m *metrics.Metrics, workers int) *Service {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Service{patients: patients, records: records, log: log, metrics: m, workers: workers}
}

// ForPatient evaluates one patient. An unknown patient id is a not-found
// error; a known patient with no clinical data still gets a result.
func (s *Service) ForPatient(ctx context.Context, patientID string) (*model.EligibilityResult, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, err
	}
	rec, err := s.records.PatientRecord(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient record: %w", err)
	}
	return s.evaluate(rec), nil
}

func (s *Service) evaluate(rec *model.PatientRecord) *model.EligibilityResult {
	start := time.Now()
	result := Evaluate(rec)
	if s.metrics != nil {
		s.metrics.Evaluations.WithLabelValues(string(result.Status)).Inc()
		s.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}
	return result
}

// CohortReport evaluates every stored patient and aggregates the statuses.
// Evaluations run on a worker pool; results land in a slice indexed by the
// patient's position in the sorted id list, so the report is byte-identical
// across runs regardless of scheduling.
func (s *Service) CohortReport(ctx context.Context) (*model.CohortReport, error) {
	ids, err := s.records.ListPatientIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	results := make([]*model.EligibilityResult, len(ids))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rec, err := s.records.PatientRecord(ctx, ids[idx])
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("failed to load record for %s: %w", ids[idx], err)
					}
					mu.Unlock()
					continue
				}
				results[idx] = s.evaluate(rec)
			}
		}()
	}
	for idx := range ids {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	report := buildCohortReport(results)
	if s.metrics != nil {
		s.metrics.CohortReports.Inc()
	}
	return report, nil
}

func buildCohortReport(results []*model.EligibilityResult) *model.CohortReport {
	total := len(results)
	buckets := map[model.EligibilityStatus][]string{
		model.StatusEligible:    {},
		model.StatusNotEligible: {},
		model.StatusUnknown:     {},
	}
	reasonCounts := map[string]int{}

	for _, r := range results {
		buckets[r.Status] = append(buckets[r.Status], r.PatientID)
		if r.Status == model.StatusUnknown {
			for _, reason := range r.Reasons {
				reasonCounts[reason]++
			}
		}
	}

	counts := []int{
		len(buckets[model.StatusEligible]),
		len(buckets[model.StatusNotEligible]),
		len(buckets[model.StatusUnknown]),
	}
	percentages := splitPercentages(counts, total)

	unknownTotal := counts[2]
	reasons := make([]model.UnknownReason, 0, len(reasonCounts))
	for reason, count := range reasonCounts {
		pct := 0.0
		if unknownTotal > 0 {
			pct = roundTenth(float64(count) / float64(unknownTotal) * 100)
		}
		reasons = append(reasons, model.UnknownReason{Reason: reason, Count: count, Percentage: pct})
	}
	sort.Slice(reasons, func(i, j int) bool {
		if reasons[i].Count != reasons[j].Count {
			return reasons[i].Count > reasons[j].Count
		}
		return reasons[i].Reason < reasons[j].Reason
	})

	return &model.CohortReport{
		TotalPatients: total,
		Eligible: model.CohortCategory{
			Count:      counts[0],
			Percentage: percentages[0],
			PatientIDs: buckets[model.StatusEligible],
		},
		NotEligible: model.CohortCategory{
			Count:      counts[1],
			Percentage: percentages[1],
			PatientIDs: buckets[model.StatusNotEligible],
		},
		Unknown: model.CohortCategory{
			Count:      counts[2],
			Percentage: percentages[2],
			PatientIDs: buckets[model.StatusUnknown],
		},
		TopUnknownReasons: reasons,
	}
}

// splitPercentages converts counts to one-decimal percentages in integer
// tenths, assigning the rounding remainder to the largest bucket so the
// three values always sum to exactly 100 for a non-empty cohort.
func splitPercentages(counts []int, total int) []float64 {
	percentages := make([]float64, len(counts))
	if total == 0 {
		return percentages
	}

	tenths := make([]int, len(counts))
	sum := 0
	largest := 0
	for i, c := range counts {
		tenths[i] = int(math.Round(float64(c) * 1000 / float64(total)))
		sum += tenths[i]
		if c > counts[largest] {
			largest = i
		}
	}
	tenths[largest] += 1000 - sum

	for i, t := range tenths {
		percentages[i] = float64(t) / 10
	}
	return percentages
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
