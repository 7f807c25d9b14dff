package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormEventRepository_FindBusyInRange(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormEventRepository(gormDB)

	orgID := uuid.New()
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "org_id", "title", "start_at", "end_at", "attendees", "status", "source"}).
		AddRow(uuid.New(), orgID, "Kickoff", from.Add(9*time.Hour), from.Add(10*time.Hour), `["dana@acme.dev"]`, "confirmed", "manual").
		AddRow(uuid.New(), orgID, "Review", from.Add(14*time.Hour), from.Add(15*time.Hour), "[]", "tentative", "agent")

	mock.ExpectQuery(`SELECT \* FROM "scheduling_events" WHERE org_id = \$1 AND start_at < \$2 AND end_at > \$3 AND status IN \(\$4,\$5\) ORDER BY start_at ASC`).
		WithArgs(orgID, to, from, string(scheduling.EventStatusTentative), string(scheduling.EventStatusConfirmed)).
		WillReturnRows(rows)

	events, err := repo.FindBusyInRange(context.Background(), orgID, from, to)

	assert.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Kickoff", events[0].Title)
	assert.Equal(t, []string{"dana@acme.dev"}, events[0].Attendees)
	assert.True(t, events[0].IsBusy())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReminderRepository_FindDue(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormReminderRepository(gormDB)

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	eventID := uuid.New()
	orgID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "org_id", "event_id", "offset_seconds", "due_at", "status", "attempts"}).
		AddRow(uuid.New(), orgID, eventID, int64(1800), now.Add(-time.Minute), "pending", 0)

	mock.ExpectQuery(`SELECT \* FROM "event_reminders" WHERE status = \$1 AND due_at <= \$2 ORDER BY due_at ASC LIMIT .*`).
		WithArgs(string(scheduling.ReminderStatusPending), now, 50).
		WillReturnRows(rows)

	reminders, err := repo.FindDue(context.Background(), now, 50)

	assert.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, eventID, reminders[0].EventID)
	assert.Equal(t, 30*time.Minute, reminders[0].Offset)
	assert.True(t, reminders[0].IsDue(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}
