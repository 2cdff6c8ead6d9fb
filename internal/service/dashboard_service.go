package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/bioclass-api/internal/models"
)

type studentCounter interface {
	CountStudents(ctx context.Context) (int, error)
}

type courseCounter interface {
	CountByStatus(ctx context.Context, status models.CourseStatus) (int, error)
}

type enrollmentCounter interface {
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
}

type financeSummarizer interface {
	Summary(ctx context.Context) (models.FinanceSummary, []string, error)
}

// DashboardService builds the cached admin overview.
type DashboardService struct {
	students    studentCounter
	courses     courseCounter
	enrollments enrollmentCounter
	finance     financeSummarizer
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	ttl         time.Duration
	now         func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(students studentCounter, courses courseCounter, enrollments enrollmentCounter, finance financeSummarizer, cache *CacheService, metrics *MetricsService, logger *zap.Logger, ttl time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:    students,
		courses:     courses,
		enrollments: enrollments,
		finance:     finance,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Admin returns the back-office overview. Failing counters read as zero and
// are listed in DegradedSources.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	var cached models.AdminDashboard
	if s.cache.Get(ctx, CacheKeyDashboard, &cached) {
		return &cached, true, nil
	}

	dash := &models.AdminDashboard{EnrollmentsByStatus: map[models.EnrollmentStatus]int{}}
	var (
		mu       sync.Mutex
		degraded []string
	)
	fail := func(source string, err error) {
		s.metrics.RecordDegradedRead(source)
		s.logger.Warn("dashboard source degraded", zap.String("source", source), zap.Error(err))
		mu.Lock()
		degraded = append(degraded, source)
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		n, err := s.students.CountStudents(ctx)
		if err != nil {
			fail("students", err)
			return nil
		}
		dash.TotalStudents = n
		return nil
	})
	g.Go(func() error {
		n, err := s.courses.CountByStatus(ctx, models.CourseStatusActive)
		if err != nil {
			fail("courses", err)
			return nil
		}
		dash.ActiveCourses = n
		return nil
	})
	g.Go(func() error {
		rows, err := s.enrollments.CountByStatus(ctx)
		if err != nil {
			fail(SourceEnrollments, err)
			return nil
		}
		for _, row := range rows {
			dash.EnrollmentsByStatus[row.Status] += row.Total
		}
		return nil
	})
	g.Go(func() error {
		summary, financeDegraded, err := s.finance.Summary(ctx)
		if err != nil {
			fail("finance", err)
			return nil
		}
		dash.Finance = summary
		mu.Lock()
		degraded = append(degraded, financeDegraded...)
		mu.Unlock()
		return nil
	})
	_ = g.Wait()

	dash.DegradedSources = dedupe(degraded)
	dash.GeneratedAt = s.now().UTC()
	if len(dash.DegradedSources) == 0 {
		s.cache.Set(ctx, CacheKeyDashboard, dash, s.ttl)
	}
	return dash, false, nil
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
