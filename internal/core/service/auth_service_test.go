package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
)

func newAuthFixture() (*AuthService, *stubCitizenRepo, *stubAuditSink) {
	repo := newStubCitizenRepo()
	sink := &stubAuditSink{}
	svc := NewAuthService(repo, NewAuditBus(sink, zerolog.Nop()), "secret", time.Hour)
	return svc, repo, sink
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _, sink := newAuthFixture()

	citizen, err := svc.Register(context.Background(), "alice", "pass1234", "alice@example.com")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if citizen == nil {
		t.Fatalf("expected citizen, got nil")
	}
	if citizen.PasswordHash == "pass1234" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(citizen.PasswordHash), []byte("pass1234")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if citizen.Role != domain.RoleCitizen {
		t.Errorf("unexpected role: %s", citizen.Role)
	}
	if citizen.Rank != domain.RankBronze {
		t.Errorf("new citizen should start at BRONZE, got %s", citizen.Rank)
	}
	if citizen.VerificationLevel != domain.VerificationEmail {
		t.Errorf("unexpected verification level: %d", citizen.VerificationLevel)
	}
	if citizen.IntegrityScore != 0.5 {
		t.Errorf("IntegrityScore = %v, want 0.5", citizen.IntegrityScore)
	}
	if !citizen.IsActive {
		t.Errorf("new citizen should be active")
	}

	if len(sink.events) != 1 || sink.events[0].Action != "USER_REGISTERED" {
		t.Fatalf("expected USER_REGISTERED audit event, got %+v", sink.events)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _ := newAuthFixture()

	if _, err := svc.Register(context.Background(), "", "pass1234", ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for empty username, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob", "", ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _, _ := newAuthFixture()

	if _, err := svc.Register(context.Background(), "bob", "pass1234", "bob@example.com"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob", "otherpass", "bob@example.com"); err != domain.ErrCitizenExists {
		t.Fatalf("expected ErrCitizenExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, _ := newAuthFixture()

	registered, err := svc.Register(context.Background(), "carol", "s3cret99", "carol@example.com")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, citizen, err := svc.Login(context.Background(), "carol", "s3cret99")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if citizen == nil || citizen.Username != "carol" {
		t.Fatalf("unexpected citizen: %+v", citizen)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["citizen_id"] != registered.ID {
		t.Errorf("citizen_id claim = %v, want %s", claims["citizen_id"], registered.ID)
	}
	if claims["role"] != string(domain.RoleCitizen) {
		t.Errorf("role claim = %v, want %s", claims["role"], domain.RoleCitizen)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, _ = svc.Register(context.Background(), "dave", "goodpass1", "dave@example.com")
	if _, _, err := svc.Login(context.Background(), "dave", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownCitizen(t *testing.T) {
	svc, _, _ := newAuthFixture()

	if _, _, err := svc.Login(context.Background(), "ghost", "pass1234"); err != domain.ErrCitizenNotFound {
		t.Fatalf("expected ErrCitizenNotFound, got %v", err)
	}
}

func TestAuthService_Login_InactiveCitizen(t *testing.T) {
	svc, repo, _ := newAuthFixture()

	registered, err := svc.Register(context.Background(), "erin", "pass1234", "erin@example.com")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	registered.IsActive = false
	repo.byID[registered.ID] = registered

	if _, _, err := svc.Login(context.Background(), "erin", "pass1234"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for inactive citizen, got %v", err)
	}
}
