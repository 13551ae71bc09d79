package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// AuthService implements citizen registration and login. A new registration
// starts at BRONZE with a neutral integrity score of 0.5.
type AuthService struct {
	citizens  ports.CitizenRepository
	audit     *AuditBus
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(citizens ports.CitizenRepository, audit *AuditBus, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{citizens: citizens, audit: audit, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *AuthService) Register(ctx context.Context, username, password, email string) (*domain.Citizen, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	citizen := &domain.Citizen{
		Username:          username,
		Email:             email,
		PasswordHash:      string(hash),
		Role:              domain.RoleCitizen,
		Rank:              domain.RankBronze,
		VerificationLevel: domain.VerificationEmail,
		IntegrityScore:    0.5,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.citizens.Create(ctx, citizen)
	if err != nil {
		return nil, err
	}

	s.audit.Event(ctx, created.ID, "USER_REGISTERED", "USER", created.ID, map[string]any{
		"rank": string(created.Rank),
	})
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.Citizen, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	citizen, err := s.citizens.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if !citizen.IsActive {
		return "", nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(citizen.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(citizen)
	if err != nil {
		return "", nil, err
	}

	return token, citizen, nil
}

func (s *AuthService) generateToken(c *domain.Citizen) (string, error) {
	claims := jwt.MapClaims{
		"username":   c.Username,
		"role":       c.Role,
		"citizen_id": c.ID,
		"exp":        time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
