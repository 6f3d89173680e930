package reporting

import "context"

type Repository interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	AppointmentReport(ctx context.Context, f ReportFilter) (*AppointmentReport, error)
}
