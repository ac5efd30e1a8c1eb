package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/caixinha-api/internal/lib/jwt"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/password"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func TestAuth_Register(t *testing.T) {
	repo := new(RepoMock)
	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		// new users start as não cotista with a bcrypt hash, never the raw password
		return u.Email == "maria@caixinha.dev" &&
			u.Role == models.RoleNaoCotista &&
			u.PasswordHash != "s3cret-pass" &&
			password.CompareHash(u.PasswordHash, "s3cret-pass") == nil
	})).Return("uid-1", nil).Once()

	s := NewAuthService(repo, jwt.NewJWTMaker("test-secret", time.Hour))
	uid, err := s.Register(context.Background(), models.DummyRegisterUser{
		Email:    "maria@caixinha.dev",
		FullName: "Maria Silva",
		Password: "s3cret-pass",
	})

	assert.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	repo.AssertExpectations(t)
}

func TestAuth_Login(t *testing.T) {
	hash, err := password.GetHash("s3cret-pass")
	assert.NoError(t, err)
	user := &models.User{
		UID:          "uid-1",
		Email:        "maria@caixinha.dev",
		FullName:     "Maria Silva",
		PasswordHash: hash,
		Role:         models.RoleCotista,
	}
	maker := jwt.NewJWTMaker("test-secret", time.Hour)

	tests := []struct {
		name       string
		req        models.DummyLogin
		setupMocks func(repo *RepoMock)
		wantErr    error
	}{
		{
			name: "success issues a token carrying the identity",
			req:  models.DummyLogin{Email: "maria@caixinha.dev", Password: "s3cret-pass"},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetUserByEmail", mock.Anything, "maria@caixinha.dev").
					Return(user, nil).Once()
			},
		},
		{
			name: "wrong password",
			req:  models.DummyLogin{Email: "maria@caixinha.dev", Password: "wrong"},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetUserByEmail", mock.Anything, "maria@caixinha.dev").
					Return(user, nil).Once()
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "unknown e-mail",
			req:  models.DummyLogin{Email: "nobody@caixinha.dev", Password: "s3cret-pass"},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetUserByEmail", mock.Anything, "nobody@caixinha.dev").
					Return(nil, assert.AnError).Once()
			},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			s := NewAuthService(repo, maker)

			token, got, err := s.Login(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, user, got)

			claims, err := maker.ParseToken(token)
			assert.NoError(t, err)
			assert.Equal(t, "uid-1", claims.UserUID)
			assert.Equal(t, models.RoleCotista, claims.Role)
			repo.AssertExpectations(t)
		})
	}
}
