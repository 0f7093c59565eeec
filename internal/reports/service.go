package reports

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicdesk/clinic-platform/internal/observability/metrics"
	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

var reportsTracer = otel.Tracer("clinic.internal.reports")

// Aggregator is the query contract the service needs; Repository implements
// it against Postgres.
type Aggregator interface {
	SumInvoices(ctx context.Context, status string, p Period) (int64, error)
	SumOverdue(ctx context.Context, p Period, today time.Time) (int64, error)
	RevenueByPractitioner(ctx context.Context, p Period) (map[string]int64, error)
	AppointmentCounts(ctx context.Context, p Period) (total, completed, cancelled int64, err error)
}

// AppointmentCounts breaks down scheduling volume for a period.
type AppointmentCounts struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

// FinancialSummary is the report payload for a period. Amounts are cents.
type FinancialSummary struct {
	PeriodStart           string            `json:"period_start"`
	PeriodEnd             string            `json:"period_end"`
	TotalRevenueCents     int64             `json:"total_revenue_cents"`
	TotalPendingCents     int64             `json:"total_pending_cents"`
	TotalOverdueCents     int64             `json:"total_overdue_cents"`
	RevenueByPractitioner map[string]int64  `json:"revenue_by_practitioner"`
	Appointments          AppointmentCounts `json:"appointments"`
}

// Service computes financial summaries, optionally memoized in Redis.
type Service struct {
	agg     Aggregator
	cache   *Cache
	logger  *logging.Logger
	metrics *metrics.ReportMetrics
	now     func() time.Time
}

// NewService constructs a reports service. cache may be nil to disable
// memoization.
func NewService(agg Aggregator, cache *Cache, logger *logging.Logger, m *metrics.ReportMetrics) *Service {
	if agg == nil {
		panic("reports: aggregator required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{agg: agg, cache: cache, logger: logger, metrics: m, now: time.Now}
}

// WithClock overrides the service clock; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// FinancialSummary aggregates revenue, pending, overdue, per-practitioner
// revenue and appointment counts for the period.
//
// Revenue/pending/overdue totals select invoices by due_date inside the
// period; the per-practitioner breakdown selects paid invoices by paid_at.
// The two filters intentionally differ: a due date and a payment date can
// fall in different periods.
func (s *Service) FinancialSummary(ctx context.Context, p Period) (*FinancialSummary, error) {
	ctx, span := reportsTracer.Start(ctx, "reports.financial_summary")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.period", p.Key()))

	if cached, ok := s.cache.GetFinancial(ctx, p); ok {
		s.metrics.ObserveReport("hit")
		return cached, nil
	}

	summary := &FinancialSummary{
		PeriodStart: p.Start.Format(dateLayout),
		PeriodEnd:   p.End.Format(dateLayout),
	}

	var err error
	if summary.TotalRevenueCents, err = s.agg.SumInvoices(ctx, "paid", p); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if summary.TotalPendingCents, err = s.agg.SumInvoices(ctx, "pending", p); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if summary.TotalOverdueCents, err = s.agg.SumOverdue(ctx, p, s.now()); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if summary.RevenueByPractitioner, err = s.agg.RevenueByPractitioner(ctx, p); err != nil {
		span.RecordError(err)
		return nil, err
	}
	total, completed, cancelled, err := s.agg.AppointmentCounts(ctx, p)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	summary.Appointments = AppointmentCounts{Total: total, Completed: completed, Cancelled: cancelled}

	if s.cache.SetFinancial(ctx, p, summary) {
		s.metrics.ObserveReport("miss")
	} else {
		s.metrics.ObserveReport("off")
	}
	return summary, nil
}
