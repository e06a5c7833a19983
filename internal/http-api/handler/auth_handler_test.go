package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) IssueToken(ctx context.Context, username, code string) (string, error) {
	args := m.Called(ctx, username, code)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func setupAuthRouter(svc service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandler(svc)
	h.RegisterRoutes(r.Group("/api/v1/auth"))
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignUpEndpoint_Success(t *testing.T) {
	mockSvc := new(MockAuthService)
	r := setupAuthRouter(mockSvc)

	mockSvc.On("SignUp", mock.Anything, "john_doe", "j@example.com").
		Return(&models.User{Username: "john_doe", Email: "j@example.com"}, nil)

	w := postJSON(r, "/api/v1/auth/signup", gin.H{"username": "john_doe", "email": "j@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "john_doe", resp["username"])
	assert.Equal(t, "j@example.com", resp["email"])
}

func TestSignUpEndpoint_MissingEmail(t *testing.T) {
	mockSvc := new(MockAuthService)
	r := setupAuthRouter(mockSvc)

	w := postJSON(r, "/api/v1/auth/signup", gin.H{"username": "john_doe"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignUpEndpoint_Conflict(t *testing.T) {
	mockSvc := new(MockAuthService)
	r := setupAuthRouter(mockSvc)

	mockSvc.On("SignUp", mock.Anything, "john_doe", "j@example.com").
		Return(nil, service.ErrUsernameTaken)

	w := postJSON(r, "/api/v1/auth/signup", gin.H{"username": "john_doe", "email": "j@example.com"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignUpEndpoint_DeliveryFailure(t *testing.T) {
	mockSvc := new(MockAuthService)
	r := setupAuthRouter(mockSvc)

	mockSvc.On("SignUp", mock.Anything, "john_doe", "j@example.com").
		Return(nil, service.ErrDeliveryFailed)

	w := postJSON(r, "/api/v1/auth/signup", gin.H{"username": "john_doe", "email": "j@example.com"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestTokenEndpoint_Success(t *testing.T) {
	mockSvc := new(MockAuthService)
	r := setupAuthRouter(mockSvc)

	mockSvc.On("IssueToken", mock.Anything, "john_doe", "54321").Return("signed.jwt.token", nil)

	w := postJSON(r, "/api/v1/auth/token", gin.H{"username": "john_doe", "confirmation_code": "54321"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "signed.jwt.token", resp["token"])
}

func TestTokenEndpoint_InvalidCode(t *testing.T) {
	mockSvc := new(MockAuthService)
	r := setupAuthRouter(mockSvc)

	mockSvc.On("IssueToken", mock.Anything, "john_doe", "11111").Return("", service.ErrInvalidCode)

	w := postJSON(r, "/api/v1/auth/token", gin.H{"username": "john_doe", "confirmation_code": "11111"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenEndpoint_CodeWrongLength(t *testing.T) {
	mockSvc := new(MockAuthService)
	r := setupAuthRouter(mockSvc)

	w := postJSON(r, "/api/v1/auth/token", gin.H{"username": "john_doe", "confirmation_code": "123"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "IssueToken", mock.Anything, mock.Anything, mock.Anything)
}
