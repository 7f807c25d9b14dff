package identity

import (
	"context"
	"testing"
	"time"

	"github.com/astralisone/platform/internal/domain/identity"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/auth"
	"github.com/astralisone/platform/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, orgID uuid.UUID, email string) (*identity.User, error) {
	args := m.Called(ctx, orgID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmailGlobal(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]identity.User, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, orgID uuid.UUID, role identity.UserRole) (int64, error) {
	args := m.Called(ctx, orgID, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, orgID, email)
	return args.Bool(0), args.Error(1)
}

// MockOrganizationRepository is a mock implementation of identity.OrganizationRepository
type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) FindByCode(ctx context.Context, code string) (*identity.Organization, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Organization, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]identity.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) Save(ctx context.Context, org *identity.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrganizationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrganizationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

type stubPublisher struct{}

func (stubPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-for-tests-only",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "astralis-test",
	})
}

func activeTestUser(t *testing.T) (*identity.Organization, *identity.User) {
	t.Helper()
	org, err := identity.NewOrganization("acme", "Acme Inc")
	require.NoError(t, err)

	user, err := identity.NewUser(org.GetID(), "jordan@acme.test", "correct-horse-1", "Jordan", identity.UserRoleAdmin)
	require.NoError(t, err)
	require.NoError(t, user.Activate())
	user.ClearDomainEvents()
	return org, user
}

func newTestAuthService(userRepo *MockUserRepository, orgRepo *MockOrganizationRepository) *AuthService {
	return NewAuthService(userRepo, orgRepo, testJWTService(), auth.NewInMemoryTokenBlacklist(), stubPublisher{}, zap.NewNop())
}

func TestAuthService_Login(t *testing.T) {
	org, user := activeTestUser(t)
	userRepo := new(MockUserRepository)
	orgRepo := new(MockOrganizationRepository)
	userRepo.On("FindByEmailGlobal", mock.Anything, "jordan@acme.test").Return(user, nil)
	orgRepo.On("FindByID", mock.Anything, org.GetID()).Return(org, nil)
	userRepo.On("Save", mock.Anything, user).Return(nil)

	svc := newTestAuthService(userRepo, orgRepo)
	result, err := svc.Login(context.Background(), LoginInput{Email: "jordan@acme.test", Password: "correct-horse-1"})

	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, user.GetID(), result.User.ID)
	assert.Equal(t, "admin", result.User.Role)
	userRepo.AssertExpectations(t)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	org, user := activeTestUser(t)
	userRepo := new(MockUserRepository)
	orgRepo := new(MockOrganizationRepository)
	userRepo.On("FindByEmailGlobal", mock.Anything, "jordan@acme.test").Return(user, nil)
	orgRepo.On("FindByID", mock.Anything, org.GetID()).Return(org, nil)
	userRepo.On("Save", mock.Anything, user).Return(nil)

	svc := newTestAuthService(userRepo, orgRepo)
	_, err := svc.Login(context.Background(), LoginInput{Email: "jordan@acme.test", Password: "wrong"})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	assert.Equal(t, 1, user.FailedAttempts)
}

func TestAuthService_LoginUnknownEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	orgRepo := new(MockOrganizationRepository)
	userRepo.On("FindByEmailGlobal", mock.Anything, "nobody@acme.test").Return(nil, shared.ErrNotFound)

	svc := newTestAuthService(userRepo, orgRepo)
	_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@acme.test", Password: "whatever1"})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
}

func TestAuthService_LoginSuspendedOrg(t *testing.T) {
	org, user := activeTestUser(t)
	require.NoError(t, org.Suspend())
	userRepo := new(MockUserRepository)
	orgRepo := new(MockOrganizationRepository)
	userRepo.On("FindByEmailGlobal", mock.Anything, "jordan@acme.test").Return(user, nil)
	orgRepo.On("FindByID", mock.Anything, org.GetID()).Return(org, nil)

	svc := newTestAuthService(userRepo, orgRepo)
	_, err := svc.Login(context.Background(), LoginInput{Email: "jordan@acme.test", Password: "correct-horse-1"})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ORG_SUSPENDED", domainErr.Code)
}

func TestAuthService_LoginPendingUser(t *testing.T) {
	org, err := identity.NewOrganization("acme", "Acme Inc")
	require.NoError(t, err)
	user, err := identity.NewUser(org.GetID(), "new@acme.test", "password-123", "", identity.UserRoleMember)
	require.NoError(t, err)

	userRepo := new(MockUserRepository)
	orgRepo := new(MockOrganizationRepository)
	userRepo.On("FindByEmailGlobal", mock.Anything, "new@acme.test").Return(user, nil)

	svc := newTestAuthService(userRepo, orgRepo)
	_, err = svc.Login(context.Background(), LoginInput{Email: "new@acme.test", Password: "password-123"})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ACCOUNT_PENDING", domainErr.Code)
}

func TestAuthService_RefreshToken(t *testing.T) {
	org, user := activeTestUser(t)
	userRepo := new(MockUserRepository)
	orgRepo := new(MockOrganizationRepository)
	userRepo.On("FindByEmailGlobal", mock.Anything, "jordan@acme.test").Return(user, nil)
	orgRepo.On("FindByID", mock.Anything, org.GetID()).Return(org, nil)
	userRepo.On("Save", mock.Anything, user).Return(nil)
	userRepo.On("FindByID", mock.Anything, org.GetID(), user.GetID()).Return(user, nil)

	svc := newTestAuthService(userRepo, orgRepo)
	login, err := svc.Login(context.Background(), LoginInput{Email: "jordan@acme.test", Password: "correct-horse-1"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// The used refresh token is blacklisted and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: login.RefreshToken})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOKEN_INVALID", domainErr.Code)
}

func TestAuthService_RefreshWithAccessTokenFails(t *testing.T) {
	org, user := activeTestUser(t)
	userRepo := new(MockUserRepository)
	orgRepo := new(MockOrganizationRepository)
	userRepo.On("FindByEmailGlobal", mock.Anything, "jordan@acme.test").Return(user, nil)
	orgRepo.On("FindByID", mock.Anything, org.GetID()).Return(org, nil)
	userRepo.On("Save", mock.Anything, user).Return(nil)

	svc := newTestAuthService(userRepo, orgRepo)
	login, err := svc.Login(context.Background(), LoginInput{Email: "jordan@acme.test", Password: "correct-horse-1"})
	require.NoError(t, err)

	_, err = svc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: login.AccessToken})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOKEN_INVALID", domainErr.Code)
}

func TestAuthService_ChangePassword(t *testing.T) {
	org, user := activeTestUser(t)
	userRepo := new(MockUserRepository)
	orgRepo := new(MockOrganizationRepository)
	userRepo.On("FindByID", mock.Anything, org.GetID(), user.GetID()).Return(user, nil)
	userRepo.On("Save", mock.Anything, user).Return(nil)

	svc := newTestAuthService(userRepo, orgRepo)
	err := svc.ChangePassword(context.Background(), ChangePasswordInput{
		OrgID:           org.GetID(),
		UserID:          user.GetID(),
		CurrentPassword: "correct-horse-1",
		NewPassword:     "battery-staple-2",
	})

	require.NoError(t, err)
	assert.True(t, user.CheckPassword("battery-staple-2"))
}

func TestAuthService_ChangePasswordWrongCurrent(t *testing.T) {
	org, user := activeTestUser(t)
	userRepo := new(MockUserRepository)
	orgRepo := new(MockOrganizationRepository)
	userRepo.On("FindByID", mock.Anything, org.GetID(), user.GetID()).Return(user, nil)

	svc := newTestAuthService(userRepo, orgRepo)
	err := svc.ChangePassword(context.Background(), ChangePasswordInput{
		OrgID:           org.GetID(),
		UserID:          user.GetID(),
		CurrentPassword: "nope",
		NewPassword:     "battery-staple-2",
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
}
