package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOutboxEntry(t *testing.T) *shared.OutboxEntry {
	t.Helper()
	type stub struct{ shared.BaseDomainEvent }
	evt := &stub{shared.NewBaseDomainEvent("EventScheduled", "SchedulingEvent", uuid.New(), uuid.New())}
	return shared.NewOutboxEntry(evt, []byte(`{"title":"standup"}`))
}

func TestGormOutboxRepository_Save(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormOutboxRepository(gormDB)

	entry := newOutboxEntry(t)

	mock.ExpectExec(`INSERT INTO "outbox_entries"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Save(context.Background(), entry)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_SaveNothing(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormOutboxRepository(gormDB)

	require.NoError(t, repo.Save(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutboxRepository_DeleteSentBefore(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormOutboxRepository(gormDB)

	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectExec(`DELETE FROM "outbox_entries" WHERE status = \$1 AND processed_at < \$2`).
		WithArgs(string(shared.OutboxStatusSent), cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteSentBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
