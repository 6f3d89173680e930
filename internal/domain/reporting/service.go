package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d, err := s.repo.Dashboard(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return d, nil
}

func (s *Service) AppointmentReport(ctx context.Context, f ReportFilter) (*AppointmentReport, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, apperr.Validation("report end date precedes start date")
	}
	rep, err := s.repo.AppointmentReport(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rep, nil
}

// FinancialReport returns fixed demo figures. There is no billing data
// in the system to derive them from.
func (s *Service) FinancialReport(_ context.Context) *FinancialReport {
	const (
		fee            = 150.0
		consultations  = 320
		operatingCosts = 28000.0
	)
	gross := fee * consultations
	return &FinancialReport{
		Period:          fmt.Sprintf("%d-%02d", time.Now().Year(), time.Now().Month()),
		ConsultationFee: fee,
		Consultations:   consultations,
		GrossRevenue:    gross,
		OperatingCosts:  operatingCosts,
		NetRevenue:      gross - operatingCosts,
		Disclaimer:      "dados simulados para demonstracao",
	}
}
