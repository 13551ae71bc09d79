package ports

import (
	"context"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
)

// AuthService registers citizen accounts and issues session tokens.
type AuthService interface {
	Register(ctx context.Context, username, password, email string) (*domain.Citizen, error)
	Login(ctx context.Context, username, password string) (string, *domain.Citizen, error)
}
