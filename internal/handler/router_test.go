package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/bioclass-api/internal/models"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
)

type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "admin-token":
		return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, nil
	case "student-token":
		return &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}, nil
	default:
		return nil, appErrors.ErrUnauthorized
	}
}

func buildTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), Handlers{
		Auth:        NewAuthHandler(&authServiceMock{}),
		Courses:     NewCourseHandler(&courseServiceMock{courses: []models.Course{}}),
		Enrollments: NewEnrollmentHandler(&enrollmentServiceMock{rows: []models.EnrollmentDetail{}}),
		Finance:     NewFinanceHandler(&financeServiceMock{overview: &models.FinanceOverview{}}, time.UTC),
		Expenses:    NewExpenseHandler(&expenseServiceMock{}),
		Profiles:    NewProfileHandler(&profileServiceMock{}),
		CEP:         NewCEPHandler(&cepServiceMock{}),
		Checkout:    NewCheckoutHandler(&checkoutServiceMock{}),
		Dashboard:   NewDashboardHandler(&fakeDashboardSrv{resp: &models.AdminDashboard{}}),
	}, tokenStub{})
	return router
}

func TestRoutesAccessControl(t *testing.T) {
	router := buildTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{name: "public catalog", method: http.MethodGet, path: "/api/v1/courses", want: http.StatusOK},
		{name: "profile without token", method: http.MethodGet, path: "/api/v1/me/profile", want: http.StatusUnauthorized},
		{name: "profile with bad token", method: http.MethodGet, path: "/api/v1/me/profile", token: "forged", want: http.StatusUnauthorized},
		{name: "student profile", method: http.MethodGet, path: "/api/v1/me/profile", token: "student-token", want: http.StatusOK},
		{name: "student on finance", method: http.MethodGet, path: "/api/v1/admin/finance", token: "student-token", want: http.StatusForbidden},
		{name: "admin on finance", method: http.MethodGet, path: "/api/v1/admin/finance", token: "admin-token", want: http.StatusOK},
		{name: "student on dashboard", method: http.MethodGet, path: "/api/v1/admin/dashboard", token: "student-token", want: http.StatusForbidden},
		{name: "admin on dashboard", method: http.MethodGet, path: "/api/v1/admin/dashboard", token: "admin-token", want: http.StatusOK},
		{name: "admin lists enrollments", method: http.MethodGet, path: "/api/v1/admin/enrollments", token: "admin-token", want: http.StatusOK},
		{name: "anonymous approve", method: http.MethodPost, path: "/api/v1/admin/enrollments/e-1/approve", want: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
