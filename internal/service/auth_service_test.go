package service_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/todo-service/internal/auth"
	"github.com/spec-kit/todo-service/internal/config"
	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/service"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

func testAuthConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            bcrypt.MinCost,
	}}
}

func TestRegister_AssignsOnlyUserRole(t *testing.T) {
	users := new(mockUserRepo)
	svc := service.NewAuthService(testAuthConfig(), users, nil)

	users.On("GetByUsername", mock.Anything, "alice").Return(nil, pgx.ErrNoRows)
	var created *domain.User
	users.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*domain.User)
	}).Return(nil)

	user, err := svc.Register(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleUser}, user.Roles)
	require.NotNil(t, created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("pw1")))
}

func TestRegister_DuplicateUsernameConflicts(t *testing.T) {
	users := new(mockUserRepo)
	svc := service.NewAuthService(testAuthConfig(), users, nil)

	users.On("GetByUsername", mock.Anything, "alice").Return(
		&domain.User{Username: "alice"}, nil)

	_, err := svc.Register(context.Background(), "alice", "pw2")
	requireDomainError(t, err, "CONFLICT", 409)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin_IssuesValidatableToken(t *testing.T) {
	users := new(mockUserRepo)
	svc := service.NewAuthService(testAuthConfig(), users, nil)

	hash, err := auth.HashPassword("pw1", bcrypt.MinCost)
	require.NoError(t, err)
	roles := []domain.Role{domain.RoleUser, domain.RoleAdmin}
	users.On("GetByUsername", mock.Anything, "root").Return(
		&domain.User{Username: "root", PasswordHash: hash, Roles: roles}, nil)

	token, _, err := svc.Login(context.Background(), "root", "pw1")
	require.NoError(t, err)

	identity, err := svc.TokenManager().Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "root", identity.Username)
	assert.Equal(t, roles, identity.Roles)
}

func TestLogin_WrongPasswordUnauthorized(t *testing.T) {
	users := new(mockUserRepo)
	svc := service.NewAuthService(testAuthConfig(), users, nil)

	hash, err := auth.HashPassword("pw1", bcrypt.MinCost)
	require.NoError(t, err)
	users.On("GetByUsername", mock.Anything, "alice").Return(
		&domain.User{Username: "alice", PasswordHash: hash}, nil)

	_, _, err = svc.Login(context.Background(), "alice", "wrong")
	requireDomainError(t, err, "UNAUTHORIZED", 401)
}

func TestLogin_UnknownUserUnauthorized(t *testing.T) {
	users := new(mockUserRepo)
	svc := service.NewAuthService(testAuthConfig(), users, nil)

	users.On("GetByUsername", mock.Anything, "ghost").Return(nil, pgx.ErrNoRows)

	_, _, err := svc.Login(context.Background(), "ghost", "pw")
	requireDomainError(t, err, "UNAUTHORIZED", 401)
}
