// Package services implements registration, login and token
// validation for the caixinha API.
package services

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/caixinha-api/internal/lib/jwt"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/password"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// ErrInvalidCredentials is returned on a wrong e-mail or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository is the persistence surface needed by the auth flow.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService implements registration and authentication.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService creates an AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register creates a new user with a hashed password. Everybody starts
// as não cotista; registering a quota later promotes to cotista.
func (s *AuthService) Register(ctx context.Context, req models.DummyRegisterUser) (string, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", err
	}
	user := models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hashed,
		Role:         models.RoleNaoCotista,
	}
	return s.users.RegisterUser(ctx, user)
}

// Login checks the password and issues a JWT carrying the user UID,
// e-mail and role.
func (s *AuthService) Login(ctx context.Context, req models.DummyLogin) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
