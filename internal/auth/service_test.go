package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/salesdesk-backend/pkg/auth"
	"github.com/angelmondragon/salesdesk-backend/pkg/config"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "salesdesk",
	ExpirationMinutes: 30,
}

func TestServiceLoginIssuesRoleClaim(t *testing.T) {
	password := "sales-secret-1"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "sam@example.com",
		PasswordHash: mustHashPassword(t, password, config.PasswordConfig{}),
		Name:         "Sam Seller",
		Role:         enums.UserRoleSales,
		IsActive:     true,
	}
	repo := &stubUserRepo{user: user}
	svc := buildTestService(t, repo, config.PasswordConfig{})

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  SAM@example.com ",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleSales || claims.UserID != user.ID {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("expected bearer token type, got %q", resp.TokenType)
	}
	if repo.lastLogin == nil {
		t.Fatalf("expected last login to be recorded")
	}
	if repo.lookedUp != "sam@example.com" {
		t.Fatalf("expected normalized email lookup, got %q", repo.lookedUp)
	}
	if repo.rehashed != "" {
		t.Fatalf("did not expect a rehash with unchanged parameters")
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	password := "sales-secret-1"
	hash := mustHashPassword(t, password, config.PasswordConfig{})

	cases := map[string]struct {
		repo     *stubUserRepo
		password string
	}{
		"unknown email": {repo: &stubUserRepo{err: gorm.ErrRecordNotFound}, password: password},
		"wrong password": {
			repo:     &stubUserRepo{user: &models.User{ID: uuid.New(), PasswordHash: hash, Role: enums.UserRoleSales, IsActive: true}},
			password: "nope-nope-1",
		},
		"inactive user": {
			repo:     &stubUserRepo{user: &models.User{ID: uuid.New(), PasswordHash: hash, Role: enums.UserRoleSales}},
			password: password,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := buildTestService(t, tc.repo, config.PasswordConfig{})
			_, err := svc.Login(context.Background(), LoginRequest{Email: "x@example.com", Password: tc.password})
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized error, got %v", err)
			}
		})
	}
}

func TestServiceLoginRehashesWeakHashes(t *testing.T) {
	password := "sales-secret-1"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "sam@example.com",
		PasswordHash: mustHashPassword(t, password, config.PasswordConfig{}),
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}
	repo := &stubUserRepo{user: user}
	stronger := config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 2, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	svc := buildTestService(t, repo, stronger)

	if _, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if repo.rehashed == "" {
		t.Fatalf("expected weak hash to be upgraded")
	}
	if security.NeedsRehash(repo.rehashed, stronger) {
		t.Fatalf("upgraded hash still below configured parameters")
	}
	ok, err := security.VerifyPassword(password, repo.rehashed)
	if err != nil || !ok {
		t.Fatalf("upgraded hash does not verify: %v", err)
	}
}

func buildTestService(t *testing.T, repo *stubUserRepo, passwordCfg config.PasswordConfig) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		JWTConfig:      testJWT,
		PasswordConfig: passwordCfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func mustHashPassword(t *testing.T, password string, cfg config.PasswordConfig) string {
	t.Helper()
	hash, err := security.HashPassword(password, cfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user      *models.User
	err       error
	lookedUp  string
	lastLogin *time.Time
	rehashed  string
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.lookedUp = email
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin = &at
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.rehashed = hash
	return nil
}
