package identity

import (
	"context"
	"errors"
	"time"

	"github.com/astralisone/platform/internal/domain/identity"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	orgRepo    identity.OrganizationRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	eventBus   shared.EventPublisher
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	orgRepo identity.OrganizationRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		orgRepo:    orgRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Login authenticates a user by email and returns a token pair
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmailGlobal(ctx, input.Email)
	if err != nil {
		s.logger.Warn("login for unknown email", zap.String("email", input.Email))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	if !user.CanLogin() {
		switch user.Status {
		case identity.UserStatusLocked:
			s.logger.Warn("login attempt for locked account", zap.String("user_id", user.GetID().String()))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Try again later")
		case identity.UserStatusDeactivated:
			return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
		case identity.UserStatusPending:
			return nil, shared.NewDomainError("ACCOUNT_PENDING", "Account is pending activation")
		default:
			return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
		}
	}

	org, err := s.orgRepo.FindByID(ctx, user.OrgID)
	if err != nil {
		s.logger.Error("organization lookup failed during login", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load organization")
	}
	if !org.IsActive() {
		return nil, shared.NewDomainError("ORG_SUSPENDED", "Organization is not active")
	}

	if !user.CheckPassword(input.Password) {
		user.RecordFailedLogin()
		if err := s.userRepo.Save(ctx, user); err != nil {
			s.logger.Error("failed to persist login failure", zap.Error(err))
		}
		s.publishEvents(ctx, user)

		if user.Status == identity.UserStatusLocked {
			s.logger.Warn("account locked after repeated failures",
				zap.String("user_id", user.GetID().String()))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		OrgID:  user.OrgID,
		UserID: user.GetID(),
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		s.logger.Error("failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	user.RecordLogin(time.Now().UTC())
	if err := s.userRepo.Save(ctx, user); err != nil {
		// Login still succeeds; the timestamp is best effort.
		s.logger.Error("failed to persist login success", zap.Error(err))
	}

	s.logger.Info("user logged in",
		zap.String("user_id", user.GetID().String()),
		zap.String("org_id", user.OrgID.String()))

	return &LoginResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
		User:                  toUserInfo(user),
	}, nil
}

// RefreshToken exchanges a valid refresh token for a fresh pair. Role and
// email are re-read from the user record so revocations take effect.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}

	if blacklisted, berr := s.blacklist.IsBlacklisted(ctx, claims.ID); berr == nil && blacklisted {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Refresh token has been revoked")
	}

	orgID, err := claims.GetOrgUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid organization in token")
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid user in token")
	}

	user, err := s.userRepo.FindByID(ctx, orgID, userID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}
	if !user.CanLogin() {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	tokenPair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, user.Email, string(user.Role))
	if err != nil {
		return nil, mapTokenError(err)
	}

	// The old refresh token is single use.
	if claims.ID != "" {
		if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			s.logger.Warn("failed to blacklist used refresh token", zap.Error(err))
		}
	}

	return &RefreshTokenResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
	}, nil
}

// Logout blacklists the presented access token's JTI
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.JTI == "" {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.JTI, input.TTL); err != nil {
		s.logger.Error("failed to blacklist token on logout", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to log out")
	}
	s.logger.Info("user logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// GetCurrentUser returns the authenticated user's profile
func (s *AuthService) GetCurrentUser(ctx context.Context, orgID, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// ChangePassword changes the authenticated user's password and invalidates
// their outstanding tokens
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.OrgID, input.UserID)
	if err != nil {
		return err
	}

	if err := user.ChangePassword(input.CurrentPassword, input.NewPassword); err != nil {
		return err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("failed to persist password change", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update password")
	}

	if err := s.blacklist.InvalidateUserTokens(ctx, input.UserID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Warn("failed to invalidate tokens after password change", zap.Error(err))
	}

	s.logger.Info("password changed", zap.String("user_id", input.UserID.String()))
	return nil
}

func (s *AuthService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrInvalidClaims):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Failed to validate token")
	}
}
