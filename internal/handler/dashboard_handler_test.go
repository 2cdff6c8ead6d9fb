package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bioclass-api/internal/models"
)

type fakeDashboardSrv struct {
	resp *models.AdminDashboard
	hit  bool
	err  error
}

func (f *fakeDashboardSrv) Admin(context.Context) (*models.AdminDashboard, bool, error) {
	return f.resp, f.hit, f.err
}

func TestDashboardHandlerAdminSuccess(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{
		resp: &models.AdminDashboard{TotalStudents: 12, ActiveCourses: 3},
		hit:  true,
	})
	c, rec := newTestContext(http.MethodGet, "/admin/dashboard", nil)

	handler.Admin(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.AdminDashboard
	envelope := decodeData(t, rec, &got)
	assert.Equal(t, 12, got.TotalStudents)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
}

func TestDashboardHandlerAdminDegraded(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{
		resp: &models.AdminDashboard{DegradedSources: []string{"finance", "students"}},
	})
	c, rec := newTestContext(http.MethodGet, "/admin/dashboard", nil)

	handler.Admin(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, []interface{}{"finance", "students"}, envelope.Meta["degraded_sources"])
}

func TestDashboardHandlerNilService(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/admin/dashboard", nil)

	NewDashboardHandler(nil).Admin(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
