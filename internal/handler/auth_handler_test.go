package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bioclass-api/internal/models"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
)

type authServiceMock struct {
	err          error
	lastRegister models.RegisterRequest
	lastLogin    models.LoginRequest
	lastUserID   string
	lastChange   models.ChangePasswordRequest
}

func (m *authServiceMock) Register(_ context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	m.lastRegister = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.LoginResponse{AccessToken: "token", User: models.UserInfo{Email: req.Email, Role: models.RoleStudent}}, nil
}

func (m *authServiceMock) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.lastLogin = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.LoginResponse{AccessToken: "token", User: models.UserInfo{Email: req.Email, Role: models.RoleAdmin}}, nil
}

func (m *authServiceMock) Me(_ context.Context, userID string) (*models.UserInfo, error) {
	m.lastUserID = userID
	return &models.UserInfo{ID: userID, Role: models.RoleStudent}, m.err
}

func (m *authServiceMock) ChangePassword(_ context.Context, userID string, req models.ChangePasswordRequest) error {
	m.lastUserID = userID
	m.lastChange = req
	return m.err
}

func TestAuthHandlerRegister(t *testing.T) {
	svc := &authServiceMock{}
	c, rec := newTestContext(http.MethodPost, "/auth/register", jsonBody(`{"full_name":"Ana Souza","email":"ana@bioclass.test","password":"secret1"}`))

	NewAuthHandler(svc).Register(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ana@bioclass.test", svc.lastRegister.Email)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	svc := &authServiceMock{err: appErrors.ErrInvalidCredentials}
	c, rec := newTestContext(http.MethodPost, "/auth/login", jsonBody(`{"email":"ana@bioclass.test","password":"nope"}`))

	NewAuthHandler(svc).Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Error["code"])
}

func TestAuthHandlerLoginReturnsToken(t *testing.T) {
	svc := &authServiceMock{}
	c, rec := newTestContext(http.MethodPost, "/auth/login", jsonBody(`{"email":"admin@bioclass.test","password":"secret1"}`))

	NewAuthHandler(svc).Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.LoginResponse
	decodeData(t, rec, &got)
	assert.Equal(t, "token", got.AccessToken)
	assert.Equal(t, models.RoleAdmin, got.User.Role)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/auth/me", nil)

	NewAuthHandler(&authServiceMock{}).Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerChangePassword(t *testing.T) {
	svc := &authServiceMock{}
	c, _ := newTestContext(http.MethodPost, "/auth/change-password", jsonBody(`{"old_password":"secret1","new_password":"secret2"}`))
	withUser(c, "student-1", models.RoleStudent)

	NewAuthHandler(svc).ChangePassword(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "student-1", svc.lastUserID)
	assert.Equal(t, "secret2", svc.lastChange.NewPassword)
}
