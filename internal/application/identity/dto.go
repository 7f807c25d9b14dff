package identity

import (
	"time"

	"github.com/astralisone/platform/internal/domain/identity"
	"github.com/google/uuid"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo contains basic user information returned with auth responses
type UserInfo struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	Email       string
	DisplayName string
	Role        string
	Status      string
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	OrgID  uuid.UUID
	UserID uuid.UUID
	JTI    string
	TTL    time.Duration
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	OrgID           uuid.UUID
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// CreateOrganizationRequest contains the input for organization signup
type CreateOrganizationRequest struct {
	Code             string `json:"code" binding:"required,min=2,max=50"`
	Name             string `json:"name" binding:"required,min=2,max=200"`
	OwnerEmail       string `json:"owner_email" binding:"required,email"`
	OwnerPassword    string `json:"owner_password" binding:"required,min=8,max=128"`
	OwnerDisplayName string `json:"owner_display_name" binding:"omitempty,max=100"`
}

// UpdateOrganizationRequest contains the input for organization update
type UpdateOrganizationRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=200"`
	Settings *string `json:"settings"`
}

// OrganizationResponse is the API shape of an organization
type OrganizationResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	Settings  string    `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToOrganizationResponse maps a domain organization to its API shape
func ToOrganizationResponse(org *identity.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        org.GetID(),
		Code:      org.Code,
		Name:      org.Name,
		Plan:      string(org.Plan),
		Status:    string(org.Status),
		Settings:  org.Settings,
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
}

// OrganizationListFilter carries list query parameters
type OrganizationListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   string
	Plan     string
}

// CreateUserRequest contains the input for user creation
type CreateUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"omitempty,max=100"`
	Role        string `json:"role" binding:"required,oneof=owner admin member"`
}

// UpdateUserRequest contains the input for user update
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,min=1,max=100"`
}

// UserResponse is the API shape of a user
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrgID       uuid.UUID  `json:"org_id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToUserResponse maps a domain user to its API shape
func ToUserResponse(user *identity.User) UserResponse {
	return UserResponse{
		ID:          user.GetID(),
		OrgID:       user.OrgID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		Status:      string(user.Status),
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// ToUserResponses maps a slice of users
func ToUserResponses(users []identity.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = ToUserResponse(&users[i])
	}
	return out
}

// UserListFilter carries list query parameters
type UserListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   string
	Role     string
}

func toUserInfo(user *identity.User) UserInfo {
	return UserInfo{
		ID:          user.GetID(),
		OrgID:       user.OrgID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		Status:      string(user.Status),
	}
}
