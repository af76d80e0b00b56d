package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/piyawat/agencydesk-backend/internal/auth"
	"github.com/piyawat/agencydesk-backend/internal/users"
	pkgAuth "github.com/piyawat/agencydesk-backend/pkg/auth"
	"github.com/piyawat/agencydesk-backend/pkg/config"
	"github.com/piyawat/agencydesk-backend/pkg/enums"
	pkgerrors "github.com/piyawat/agencydesk-backend/pkg/errors"
)

type stubAuthService struct {
	loginResp   *auth.LoginResponse
	loginErr    error
	refreshResp *auth.RefreshResponse
	refreshErr  error
	userResp    *users.UserDTO
	userErr     error

	lastRefreshToken string
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.loginResp, nil
}

func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.RefreshResponse, error) {
	s.lastRefreshToken = refreshToken
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.refreshResp, nil
}

func (s *stubAuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	if s.userErr != nil {
		return nil, s.userErr
	}
	return s.userResp, nil
}

type stubRegisterService struct {
	resp *users.UserDTO
	err  error
}

func (s *stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "development"},
		JWT: config.JWTConfig{
			AccessSecret:      "access-secret-0123456789-0123456789-xyz",
			RefreshSecret:     "refresh-secret-0123456789-0123456789-xyz",
			Issuer:            "agencydesk",
			AccessTTLMinutes:  10,
			RefreshTTLMinutes: 43200,
		},
	}
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == pkgAuth.RefreshCookieName {
			return c
		}
	}
	return nil
}

func TestAuthLoginSetsCookieAndReturnsAccessToken(t *testing.T) {
	userID := uuid.New()
	svc := &stubAuthService{
		loginResp: &auth.LoginResponse{
			User:         &users.UserDTO{ID: userID, Email: "pim@agency.example", Role: enums.UserRoleEmployee},
			AccessToken:  "access-token-value",
			RefreshToken: "refresh-token-value",
		},
	}

	handler := AuthLogin(svc, testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"pim@agency.example","password":"long-enough"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	cookie := refreshCookieFrom(t, rec)
	if cookie == nil {
		t.Fatalf("expected refresh cookie to be set")
	}
	if cookie.Value != "refresh-token-value" {
		t.Fatalf("unexpected cookie value %q", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Fatalf("refresh cookie must be http-only")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("refresh cookie must be same-site strict")
	}
	if cookie.Path != "/" {
		t.Fatalf("refresh cookie path must be /, got %q", cookie.Path)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken string          `json:"accessToken"`
			User        *users.UserDTO  `json:"user"`
			Raw         json.RawMessage `json:"refreshToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.Data.AccessToken != "access-token-value" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if body.Data.User == nil || body.Data.User.ID != userID {
		t.Fatalf("expected user in response body")
	}
	if strings.Contains(rec.Body.String(), "refresh-token-value") {
		t.Fatalf("refresh token must never appear in the body")
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{
		loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password"),
	}

	handler := AuthLogin(svc, testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"pim@agency.example","password":"wrong-password"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if cookie := refreshCookieFrom(t, rec); cookie != nil {
		t.Fatalf("failed login must not set a cookie")
	}
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success || body.Error != "invalid email or password" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthLoginValidationRejectsShortPassword(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogin(svc, testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"pim@agency.example","password":"short"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &stubRegisterService{
		resp: &users.UserDTO{ID: uuid.New(), Username: "jamie", Email: "jamie@agency.example"},
	}

	handler := AuthRegister(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"username":"jamie","email":"jamie@agency.example","password":"Secret123!"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var body struct {
		Success bool           `json:"success"`
		Data    *users.UserDTO `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.Data == nil || body.Data.Username != "jamie" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	svc := &stubRegisterService{
		err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered"),
	}

	handler := AuthRegister(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"username":"jamie","email":"taken@agency.example","password":"Secret123!"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
