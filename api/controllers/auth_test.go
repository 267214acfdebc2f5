package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/salesdesk-backend/internal/auth"
	"github.com/angelmondragon/salesdesk-backend/internal/users"
	"github.com/angelmondragon/salesdesk-backend/pkg/config"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
)

type stubLoginService struct {
	req auth.LoginRequest
	err error
}

func (s *stubLoginService) Login(_ context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &auth.LoginResponse{AccessToken: "token", TokenType: "Bearer"}, nil
}

type stubRegisterService struct {
	calls []string
	err   error
}

func (s *stubRegisterService) Register(_ context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	s.calls = append(s.calls, "register")
	return s.user(req)
}

func (s *stubRegisterService) Bootstrap(_ context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	s.calls = append(s.calls, "bootstrap")
	return s.user(req)
}

func (s *stubRegisterService) user(req auth.RegisterRequest) (*users.UserDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: uuid.New(), Email: req.Email, Name: req.Name, Role: req.Role}, nil
}

type stubUserService struct {
	actor  uuid.UUID
	target uuid.UUID
	active bool
	err    error
}

func (s *stubUserService) GetUser(_ context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: userID, Role: enums.UserRoleSales}, nil
}

func (s *stubUserService) ListUsers(context.Context) ([]users.UserDTO, error) {
	return []users.UserDTO{{ID: uuid.New()}}, nil
}

func (s *stubUserService) SetActive(_ context.Context, actorID, userID uuid.UUID, active bool) (*users.UserDTO, error) {
	s.actor, s.target, s.active = actorID, userID, active
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: userID, IsActive: active}, nil
}

func TestAuthLogin(t *testing.T) {
	stub := &stubLoginService{}
	rec := serve(AuthLogin(stub, testLogger()), newRequest(http.MethodPost, "/api/v1/auth/login", `{"email":"rep@example.com","password":"hunter22hunter"}`, nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp auth.LoginResponse
	decodeData(t, rec, &resp)
	if resp.AccessToken != "token" || stub.req.Email != "rep@example.com" {
		t.Fatalf("unexpected login %+v", resp)
	}

	rec = serve(AuthLogin(stub, testLogger()), newRequest(http.MethodPost, "/api/v1/auth/login", `{"email":"not-an-email","password":"x"}`, nil, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	denied := &stubLoginService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	rec = serve(AuthLogin(denied, testLogger()), newRequest(http.MethodPost, "/api/v1/auth/login", `{"email":"rep@example.com","password":"wrong"}`, nil, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	rec = serve(AuthLogin(nil, testLogger()), newRequest(http.MethodPost, "/api/v1/auth/login", `{}`, nil, nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without service got %d", rec.Code)
	}
}

func TestAuthRegisterAndBootstrap(t *testing.T) {
	body := `{"name":"Rep","email":"rep@example.com","password":"long-enough-pass","role":"sales"}`

	stub := &stubRegisterService{}
	if rec := serve(AuthRegister(stub, testLogger()), newRequest(http.MethodPost, "/", body, nil, nil)); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201 got %d", rec.Code)
	}
	if rec := serve(AuthBootstrap(stub, testLogger()), newRequest(http.MethodPost, "/", body, nil, nil)); rec.Code != http.StatusCreated {
		t.Fatalf("bootstrap: expected 201 got %d", rec.Code)
	}
	if len(stub.calls) != 2 || stub.calls[0] != "register" || stub.calls[1] != "bootstrap" {
		t.Fatalf("unexpected calls %v", stub.calls)
	}

	closed := &stubRegisterService{err: pkgerrors.New(pkgerrors.CodeForbidden, "bootstrap is closed")}
	if rec := serve(AuthBootstrap(closed, testLogger()), newRequest(http.MethodPost, "/", body, nil, nil)); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestUserHandlers(t *testing.T) {
	actor := uuid.New()
	target := uuid.New()

	stub := &stubUserService{}
	if rec := serve(AuthMe(stub, testLogger()), newRequest(http.MethodGet, "/", "", &actor, nil)); rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200 got %d", rec.Code)
	}

	params := map[string]string{"userId": target.String()}
	rec := serve(SetUserActive(stub, testLogger()), newRequest(http.MethodPatch, "/", `{"active":false}`, &actor, params))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if stub.actor != actor || stub.target != target || stub.active {
		t.Fatalf("unexpected set active args %+v", stub)
	}

	rec = serve(SetUserActive(stub, testLogger()), newRequest(http.MethodPatch, "/", `{}`, &actor, params))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without active flag got %d", rec.Code)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := serve(HealthReady(cfg, testLogger(), map[string]Pinger{"db": stubPinger{}, "redis": nil}), newRequest(http.MethodGet, "/health/ready", "", nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-SalesDesk-Env") != "test" {
		t.Fatal("missing env header")
	}
	var payload struct {
		Checks map[string]string `json:"checks"`
	}
	decodeData(t, rec, &payload)
	if payload.Checks["db"] != "ok" || payload.Checks["redis"] != "disabled" {
		t.Fatalf("unexpected checks %v", payload.Checks)
	}

	rec = serve(HealthReady(cfg, testLogger(), map[string]Pinger{"db": stubPinger{err: errors.New("conn refused")}}), newRequest(http.MethodGet, "/health/ready", "", nil, nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	code, details := decodeError(t, rec)
	if code != string(pkgerrors.CodeDependency) || details["db"] != "down" {
		t.Fatalf("unexpected error %s %v", code, details)
	}
}
