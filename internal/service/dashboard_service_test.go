package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bioclass-api/internal/models"
)

type stubCounters struct {
	students    int
	courses     int
	statuses    []models.StatusCount
	summary     models.FinanceSummary
	degraded    []string
	studentsErr error
	calls       int
}

func (s *stubCounters) CountStudents(ctx context.Context) (int, error) {
	s.calls++
	return s.students, s.studentsErr
}

func (s *stubCounters) CountByStatus(ctx context.Context, status models.CourseStatus) (int, error) {
	return s.courses, nil
}

func (s *stubCounters) Summary(ctx context.Context) (models.FinanceSummary, []string, error) {
	return s.summary, s.degraded, nil
}

type stubEnrollmentCounter struct {
	rows []models.StatusCount
}

func (s stubEnrollmentCounter) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	return s.rows, nil
}

func TestDashboardServiceAdmin(t *testing.T) {
	counters := &stubCounters{students: 12, courses: 3, summary: models.FinanceSummary{TotalRevenue: 5000, Balance: 4000}}
	enrollments := stubEnrollmentCounter{rows: []models.StatusCount{
		{Status: models.EnrollmentPending, Total: 2},
		{Status: models.EnrollmentActive, Total: 7},
	}}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewDashboardService(counters, counters, enrollments, counters, cache, nil, nil, time.Minute)

	dash, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 12, dash.TotalStudents)
	assert.Equal(t, 3, dash.ActiveCourses)
	assert.Equal(t, 7, dash.EnrollmentsByStatus[models.EnrollmentActive])
	assert.Equal(t, int64(5000), dash.Finance.TotalRevenue)
	assert.Empty(t, dash.DegradedSources)

	_, hit, err = svc.Admin(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, counters.calls)
}

func TestDashboardServiceDegraded(t *testing.T) {
	counters := &stubCounters{studentsErr: errors.New("timeout"), courses: 1, degraded: []string{SourceExpenses}}
	store := newMemoryCache()
	svc := NewDashboardService(counters, counters, stubEnrollmentCounter{}, counters, NewCacheService(store, nil, time.Minute, nil, true), nil, nil, time.Minute)

	dash, _, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{SourceExpenses, "students"}, dash.DegradedSources)
	assert.Equal(t, 0, dash.TotalStudents)
	assert.Empty(t, store.items)
}
