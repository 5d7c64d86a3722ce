package patient

import (
	"context"
	"strings"
	"time"

	"github.com/medcohort/eligibility-api/internal/model"
	"github.com/medcohort/eligibility-api/internal/repository"
)

const defaultPageSize = 20

// Service serves patient demographics projections.
type Service struct {
	store repository.PatientStore
}

func NewService(store repository.PatientStore) *Service {
	return &Service{store: store}
}

// List returns one page of patient summaries, optionally filtered by a
// case-insensitive substring match on family name, given name or id.
func (s *Service) List(ctx context.Context, search string, page, pageSize int) (*model.PatientListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	patients, total, err := s.store.ListPatients(ctx, page, pageSize, search)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.PatientSummary, 0, len(patients))
	for i := range patients {
		summaries = append(summaries, ToSummary(&patients[i]))
	}
	return &model.PatientListResponse{
		Patients: summaries,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.PatientSummary, error) {
	p, err := s.store.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := ToSummary(p)
	return &summary, nil
}

// ToSummary projects a stored patient row for the API. The honorific prefix
// stays out of the display name; it remains available on the stored row.
func ToSummary(p *model.Patient) model.PatientSummary {
	var parts []string
	if p.GivenName != nil && *p.GivenName != "" {
		parts = append(parts, *p.GivenName)
	}
	if p.FamilyName != nil && *p.FamilyName != "" {
		parts = append(parts, *p.FamilyName)
	}
	fullName := strings.Join(parts, " ")
	if fullName == "" {
		fullName = "Unknown"
	}

	return model.PatientSummary{
		ID:         p.ID,
		FullName:   fullName,
		Gender:     p.Gender,
		BirthDate:  p.BirthDate,
		Age:        computeAge(p.BirthDate, time.Now()),
		City:       p.AddressCity,
		State:      p.AddressState,
		IsDeceased: p.DeceasedDateTime != nil,
	}
}

// computeAge derives whole years from an ISO birth date; nil when the date
// is absent or unparseable.
func computeAge(birthDate *string, now time.Time) *int {
	if birthDate == nil {
		return nil
	}
	born, err := time.Parse("2006-01-02", *birthDate)
	if err != nil {
		return nil
	}
	age := now.Year() - born.Year()
	if now.YearDay() < born.YearDay() {
		age--
	}
	if age < 0 {
		return nil
	}
	return &age
}
