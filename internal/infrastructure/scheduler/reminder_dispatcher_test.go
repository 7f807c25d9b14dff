package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/cache"
	"github.com/astralisone/platform/internal/infrastructure/config"
)

type fakeReminderRepo struct {
	mu    sync.Mutex
	due   []scheduling.EventReminder
	saved []*scheduling.EventReminder
}

func (r *fakeReminderRepo) FindByID(context.Context, uuid.UUID, uuid.UUID) (*scheduling.EventReminder, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeReminderRepo) FindByEvent(context.Context, uuid.UUID, uuid.UUID) ([]scheduling.EventReminder, error) {
	return nil, nil
}

func (r *fakeReminderRepo) FindDue(_ context.Context, _ time.Time, limit int) ([]scheduling.EventReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.due) {
		limit = len(r.due)
	}
	out := make([]scheduling.EventReminder, limit)
	copy(out, r.due[:limit])
	return out, nil
}

func (r *fakeReminderRepo) Save(_ context.Context, rem *scheduling.EventReminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, rem)
	for i := range r.due {
		if r.due[i].GetID() == rem.GetID() {
			r.due[i] = *rem
		}
	}
	return nil
}

func (r *fakeReminderRepo) SaveAll(ctx context.Context, reminders []*scheduling.EventReminder) error {
	for _, rem := range reminders {
		if err := r.Save(ctx, rem); err != nil {
			return err
		}
	}
	return nil
}

type fakeEventRepo struct {
	events map[uuid.UUID]*scheduling.SchedulingEvent
}

func (r *fakeEventRepo) FindByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*scheduling.SchedulingEvent, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) FindInRange(context.Context, uuid.UUID, time.Time, time.Time, shared.Filter) ([]scheduling.SchedulingEvent, error) {
	return nil, nil
}

func (r *fakeEventRepo) FindBusyInRange(context.Context, uuid.UUID, time.Time, time.Time) ([]scheduling.SchedulingEvent, error) {
	return nil, nil
}

func (r *fakeEventRepo) Save(context.Context, *scheduling.SchedulingEvent) error { return nil }

func (r *fakeEventRepo) Count(context.Context, uuid.UUID, shared.Filter) (int64, error) {
	return 0, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	notified []uuid.UUID
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, reminder *scheduling.EventReminder, _ *scheduling.SchedulingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.notified = append(n.notified, reminder.GetID())
	return nil
}

func dispatcherFixture(t *testing.T) (*fakeReminderRepo, *fakeEventRepo, *recordingNotifier, *scheduling.SchedulingEvent, *scheduling.EventReminder) {
	t.Helper()
	orgID := uuid.New()

	event, err := scheduling.NewSchedulingEvent(orgID, "Kickoff call", "", time.Now().Add(time.Hour), time.Now().Add(2*time.Hour), "", nil, scheduling.EventSourceManual)
	require.NoError(t, err)

	reminder, err := scheduling.NewEventReminder(orgID, event.GetID(), event.StartAt, 30*time.Minute)
	require.NoError(t, err)

	reminderRepo := &fakeReminderRepo{due: []scheduling.EventReminder{*reminder}}
	eventRepo := &fakeEventRepo{events: map[uuid.UUID]*scheduling.SchedulingEvent{event.GetID(): event}}
	notifier := &recordingNotifier{}

	return reminderRepo, eventRepo, notifier, event, reminder
}

func newTestDispatcher(reminders *fakeReminderRepo, events *fakeEventRepo, dedup shared.DedupStore, notifier ReminderNotifier) *ReminderDispatcher {
	return NewReminderDispatcher(config.ReminderConfig{
		PollInterval:  time.Minute,
		BatchSize:     10,
		MaxConcurrent: 2,
		DedupTTL:      time.Hour,
	}, reminders, events, dedup, notifier, zap.NewNop())
}

func TestReminderDispatcher_DispatchDue(t *testing.T) {
	reminderRepo, eventRepo, notifier, _, reminder := dispatcherFixture(t)
	dedup := cache.NewInMemoryDedupStore()
	defer dedup.Close()

	d := newTestDispatcher(reminderRepo, eventRepo, dedup, notifier)
	require.NoError(t, d.DispatchDue(context.Background()))

	require.Len(t, notifier.notified, 1)
	assert.Equal(t, reminder.GetID(), notifier.notified[0])

	require.Len(t, reminderRepo.saved, 1)
	assert.Equal(t, scheduling.ReminderStatusSent, reminderRepo.saved[0].Status)
	assert.NotNil(t, reminderRepo.saved[0].SentAt)
}

func TestReminderDispatcher_DedupSkipsClaimedReminder(t *testing.T) {
	reminderRepo, eventRepo, notifier, _, reminder := dispatcherFixture(t)
	dedup := cache.NewInMemoryDedupStore()
	defer dedup.Close()

	claimed, err := dedup.MarkProcessed(context.Background(), reminder.GetID().String(), time.Hour)
	require.NoError(t, err)
	require.True(t, claimed)

	d := newTestDispatcher(reminderRepo, eventRepo, dedup, notifier)
	require.NoError(t, d.DispatchDue(context.Background()))

	assert.Empty(t, notifier.notified)
	assert.Empty(t, reminderRepo.saved)
}

func TestReminderDispatcher_CancelledEventCancelsReminder(t *testing.T) {
	reminderRepo, eventRepo, notifier, event, _ := dispatcherFixture(t)
	require.NoError(t, event.Cancel())
	dedup := cache.NewInMemoryDedupStore()
	defer dedup.Close()

	d := newTestDispatcher(reminderRepo, eventRepo, dedup, notifier)
	require.NoError(t, d.DispatchDue(context.Background()))

	assert.Empty(t, notifier.notified)
	require.Len(t, reminderRepo.saved, 1)
	assert.Equal(t, scheduling.ReminderStatusCancelled, reminderRepo.saved[0].Status)
}

func TestReminderDispatcher_NotifierErrorMarksAttempt(t *testing.T) {
	reminderRepo, eventRepo, notifier, _, _ := dispatcherFixture(t)
	notifier.err = errors.New("smtp down")
	dedup := cache.NewInMemoryDedupStore()
	defer dedup.Close()

	d := newTestDispatcher(reminderRepo, eventRepo, dedup, notifier)
	require.NoError(t, d.DispatchDue(context.Background()))

	require.Len(t, reminderRepo.saved, 1)
	saved := reminderRepo.saved[0]
	assert.Equal(t, scheduling.ReminderStatusPending, saved.Status)
	assert.Equal(t, 1, saved.Attempts)
	assert.Equal(t, "smtp down", saved.LastErr)
}

func TestReminderDispatcher_RetriesAfterNotifierRecovers(t *testing.T) {
	reminderRepo, eventRepo, notifier, _, reminder := dispatcherFixture(t)
	notifier.err = errors.New("smtp down")
	dedup := cache.NewInMemoryDedupStore()
	defer dedup.Close()

	d := newTestDispatcher(reminderRepo, eventRepo, dedup, notifier)
	require.NoError(t, d.DispatchDue(context.Background()))

	require.Len(t, reminderRepo.saved, 1)
	assert.Equal(t, scheduling.ReminderStatusPending, reminderRepo.saved[0].Status)
	assert.Equal(t, 1, reminderRepo.saved[0].Attempts)

	// the failed attempt must give its dedup claim back
	claimed, err := dedup.IsProcessed(context.Background(), reminder.GetID().String())
	require.NoError(t, err)
	assert.False(t, claimed)

	notifier.err = nil
	require.NoError(t, d.DispatchDue(context.Background()))

	require.Len(t, notifier.notified, 1)
	assert.Equal(t, reminder.GetID(), notifier.notified[0])

	require.Len(t, reminderRepo.saved, 2)
	saved := reminderRepo.saved[1]
	assert.Equal(t, scheduling.ReminderStatusSent, saved.Status)
	assert.Equal(t, 2, saved.Attempts)
}

func TestReminderDispatcher_ExhaustedAttemptsKeepClaim(t *testing.T) {
	reminderRepo, eventRepo, notifier, _, reminder := dispatcherFixture(t)
	notifier.err = errors.New("smtp down")
	dedup := cache.NewInMemoryDedupStore()
	defer dedup.Close()

	d := newTestDispatcher(reminderRepo, eventRepo, dedup, notifier)
	for i := 0; i < 3; i++ {
		require.NoError(t, d.DispatchDue(context.Background()))
	}

	require.Len(t, reminderRepo.saved, 3)
	final := reminderRepo.saved[2]
	assert.Equal(t, scheduling.ReminderStatusFailed, final.Status)
	assert.Equal(t, 3, final.Attempts)

	// terminal failure keeps the key so later cycles skip the reminder
	claimed, err := dedup.IsProcessed(context.Background(), reminder.GetID().String())
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestReminderDispatcher_StartStop(t *testing.T) {
	reminderRepo, eventRepo, notifier, _, _ := dispatcherFixture(t)
	dedup := cache.NewInMemoryDedupStore()
	defer dedup.Close()

	d := newTestDispatcher(reminderRepo, eventRepo, dedup, notifier)
	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	require.NoError(t, d.Stop(ctx))
}
