package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	orgID := uuid.New()

	t.Run("creates pending user with hashed password", func(t *testing.T) {
		user, err := NewUser(orgID, "Ada@Example.com", "s3cret-pass", "Ada", UserRoleMember)

		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, UserStatusPending, user.Status)
		assert.Equal(t, orgID, user.OrgID)
		assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
		assert.True(t, user.CheckPassword("s3cret-pass"))
		assert.False(t, user.CheckPassword("wrong"))
		assert.Len(t, user.GetDomainEvents(), 1)
	})

	t.Run("derives display name from email when empty", func(t *testing.T) {
		user, err := NewUser(orgID, "grace@example.com", "s3cret-pass", "", UserRoleAdmin)

		require.NoError(t, err)
		assert.Equal(t, "grace", user.DisplayName)
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		_, err := NewUser(orgID, "not-an-email", "s3cret-pass", "", UserRoleMember)
		assert.Error(t, err)
	})

	t.Run("fails with short password", func(t *testing.T) {
		_, err := NewUser(orgID, "ada@example.com", "short", "", UserRoleMember)
		assert.Error(t, err)
	})

	t.Run("fails with unknown role", func(t *testing.T) {
		_, err := NewUser(orgID, "ada@example.com", "s3cret-pass", "", UserRole("superuser"))
		assert.Error(t, err)
	})
}

func TestUserLockout(t *testing.T) {
	orgID := uuid.New()

	newActiveUser := func(t *testing.T) *User {
		user, err := NewUser(orgID, "ada@example.com", "s3cret-pass", "Ada", UserRoleMember)
		require.NoError(t, err)
		require.NoError(t, user.Activate())
		user.ClearDomainEvents()
		return user
	}

	t.Run("locks after repeated failures", func(t *testing.T) {
		user := newActiveUser(t)

		for i := 0; i < 4; i++ {
			user.RecordFailedLogin()
			assert.Equal(t, UserStatusActive, user.Status)
		}
		user.RecordFailedLogin()

		assert.Equal(t, UserStatusLocked, user.Status)
		require.NotNil(t, user.LockedUntil)
		assert.False(t, user.CanLogin())
		require.Len(t, user.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeUserLocked, user.GetDomainEvents()[0].EventType())
	})

	t.Run("lockout expires", func(t *testing.T) {
		user := newActiveUser(t)
		for i := 0; i < 5; i++ {
			user.RecordFailedLogin()
		}
		past := time.Now().Add(-time.Minute)
		user.LockedUntil = &past

		assert.True(t, user.CanLogin())
	})

	t.Run("successful login resets counters", func(t *testing.T) {
		user := newActiveUser(t)
		user.RecordFailedLogin()
		user.RecordFailedLogin()

		user.RecordLogin(time.Now())

		assert.Equal(t, 0, user.FailedAttempts)
		assert.Nil(t, user.LockedUntil)
	})

	t.Run("unlock clears the lockout early", func(t *testing.T) {
		user := newActiveUser(t)
		for i := 0; i < 5; i++ {
			user.RecordFailedLogin()
		}

		require.NoError(t, user.Unlock())

		assert.Equal(t, UserStatusActive, user.Status)
		assert.True(t, user.CanLogin())
	})

	t.Run("deactivated user cannot login", func(t *testing.T) {
		user := newActiveUser(t)
		require.NoError(t, user.Deactivate())
		assert.False(t, user.CanLogin())
	})
}

func TestUserChangePassword(t *testing.T) {
	orgID := uuid.New()
	user, err := NewUser(orgID, "ada@example.com", "s3cret-pass", "Ada", UserRoleMember)
	require.NoError(t, err)

	t.Run("rejects wrong current password", func(t *testing.T) {
		assert.Error(t, user.ChangePassword("wrong", "another-pass"))
	})

	t.Run("replaces password when current matches", func(t *testing.T) {
		require.NoError(t, user.ChangePassword("s3cret-pass", "another-pass"))
		assert.True(t, user.CheckPassword("another-pass"))
		assert.False(t, user.CheckPassword("s3cret-pass"))
	})
}

func TestNewOrganization(t *testing.T) {
	t.Run("creates active organization on the free plan", func(t *testing.T) {
		org, err := NewOrganization("acme-corp", "Acme Corp")

		require.NoError(t, err)
		assert.Equal(t, "acme-corp", org.Code)
		assert.Equal(t, OrgStatusActive, org.Status)
		assert.Equal(t, OrgPlanFree, org.Plan)
		assert.Len(t, org.GetDomainEvents(), 1)
	})

	t.Run("normalizes code case", func(t *testing.T) {
		org, err := NewOrganization("Acme-Corp", "Acme Corp")

		require.NoError(t, err)
		assert.Equal(t, "acme-corp", org.Code)
	})

	t.Run("rejects invalid codes", func(t *testing.T) {
		for _, code := range []string{"", "a", "-leading", "trailing-", "has space", "has_underscore"} {
			_, err := NewOrganization(code, "Acme Corp")
			assert.Error(t, err, "code %q should be rejected", code)
		}
	})

	t.Run("suspended organization is not active", func(t *testing.T) {
		org, err := NewOrganization("acme-corp", "Acme Corp")
		require.NoError(t, err)

		require.NoError(t, org.Suspend())
		assert.False(t, org.IsActive())

		require.NoError(t, org.Activate())
		assert.True(t, org.IsActive())
	})

	t.Run("timezone falls back to UTC", func(t *testing.T) {
		org, err := NewOrganization("acme-corp", "Acme Corp")
		require.NoError(t, err)

		assert.Equal(t, time.UTC, org.Timezone())

		require.NoError(t, org.UpdateSettings(`{"timezone":"America/New_York"}`))
		assert.Equal(t, "America/New_York", org.Timezone().String())
	})
}
