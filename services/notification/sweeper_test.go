package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"groundandgrow/models"
	"groundandgrow/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memNotificationRepo struct {
	mu        sync.Mutex
	items     map[string]*models.Notification
	lastLimit int64
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{items: make(map[string]*models.Notification)}
}

func (r *memNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *n
	r.items[n.ID] = &clone
	return nil
}

func (r *memNotificationRepo) Update(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[n.ID]; !ok {
		return errors.New("no documents")
	}
	clone := *n
	r.items[n.ID] = &clone
	return nil
}

func (r *memNotificationRepo) GetByID(_ context.Context, id string) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok {
		clone := *n
		return &clone, nil
	}
	return nil, errors.New("no documents")
}

func (r *memNotificationRepo) ListDue(_ context.Context, now time.Time) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.items {
		if n.Status == models.NotificationPending && !n.ScheduledFor.After(now) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *memNotificationRepo) ListByBooking(_ context.Context, bookingID string) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.items {
		if n.BookingID == bookingID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *memNotificationRepo) ListRecent(_ context.Context, limit int64) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit = limit
	var out []models.Notification
	for _, n := range r.items {
		out = append(out, *n)
	}
	return out, nil
}

func (r *memNotificationRepo) CountPending(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.items {
		if n.Status == models.NotificationPending {
			count++
		}
	}
	return count, nil
}

func (r *memNotificationRepo) CancelPendingForBooking(_ context.Context, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.BookingID == bookingID && n.Status == models.NotificationPending {
			n.Status = models.NotificationCancelled
		}
	}
	return nil
}

func (r *memNotificationRepo) EnsureIndexes() error { return nil }

type stubEmail struct {
	err   error
	calls int
	last  string
}

func (s *stubEmail) Send(_ context.Context, to, subject, body string) error {
	s.calls++
	s.last = to
	return s.err
}

type stubSMS struct {
	err   error
	calls int
	last  string
}

func (s *stubSMS) Send(_ context.Context, to, body string) error {
	s.calls++
	s.last = to
	return s.err
}

var sweepClock = time.Date(2030, time.June, 10, 9, 0, 0, 0, time.Local)

func newTestSweeper(repo *memNotificationRepo, email *stubEmail, sms *stubSMS) *Sweeper {
	s := NewSweeper(repo, nil, nil, time.Minute, 3, 5*time.Minute)
	if email != nil {
		s.Email = email
	}
	if sms != nil {
		s.SMS = sms
	}
	s.Now = func() time.Time { return sweepClock }
	return s
}

func pendingIntent(id, method string, scheduledFor time.Time) *models.Notification {
	return &models.Notification{
		ID:             id,
		RecipientEmail: "guest@example.com",
		RecipientPhone: "+61400000000",
		Type:           models.TypeReminder,
		DeliveryMethod: method,
		Subject:        "Appointment reminder",
		Message:        "See you soon",
		ScheduledFor:   scheduledFor,
		Status:         models.NotificationPending,
	}
}

func TestProcessDueDeliversOnlyDueIntents(t *testing.T) {
	repo := newMemNotificationRepo()
	email := &stubEmail{}
	require.NoError(t, repo.Create(context.Background(), pendingIntent("due", models.DeliverEmail, sweepClock.Add(-time.Minute))))
	require.NoError(t, repo.Create(context.Background(), pendingIntent("future", models.DeliverEmail, sweepClock.Add(time.Hour))))

	sweeper := newTestSweeper(repo, email, nil)
	require.NoError(t, sweeper.ProcessDue(context.Background()))

	assert.Equal(t, 1, email.calls)

	sent, _ := repo.GetByID(context.Background(), "due")
	assert.Equal(t, models.NotificationSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	untouched, _ := repo.GetByID(context.Background(), "future")
	assert.Equal(t, models.NotificationPending, untouched.Status)
}

func TestProcessDueReportsSweeperLiveness(t *testing.T) {
	repo := newMemNotificationRepo()
	sweeper := newTestSweeper(repo, nil, nil)

	before := time.Now()
	require.NoError(t, sweeper.ProcessDue(context.Background()))

	// An empty pass still advances the health snapshot.
	assert.False(t, utils.GetHealthStatus().LastSweepAt.Before(before))
}

func TestProcessDueRetriesWithBackoff(t *testing.T) {
	repo := newMemNotificationRepo()
	email := &stubEmail{err: errors.New("smtp unreachable")}
	require.NoError(t, repo.Create(context.Background(), pendingIntent("n-1", models.DeliverEmail, sweepClock.Add(-time.Minute))))

	sweeper := newTestSweeper(repo, email, nil)
	require.NoError(t, sweeper.ProcessDue(context.Background()))

	n, _ := repo.GetByID(context.Background(), "n-1")
	assert.Equal(t, models.NotificationPending, n.Status)
	assert.Equal(t, 1, n.RetryCount)
	assert.Contains(t, n.LastError, "smtp unreachable")
	assert.Equal(t, sweepClock.Add(5*time.Minute), n.ScheduledFor)

	// The backoff keeps the next pass from touching it again.
	require.NoError(t, sweeper.ProcessDue(context.Background()))
	n, _ = repo.GetByID(context.Background(), "n-1")
	assert.Equal(t, 1, n.RetryCount)
}

func TestProcessDueFailsTerminallyAfterMaxRetries(t *testing.T) {
	repo := newMemNotificationRepo()
	email := &stubEmail{err: errors.New("smtp unreachable")}
	sweeper := newTestSweeper(repo, email, nil)
	require.NoError(t, repo.Create(context.Background(), pendingIntent("n-1", models.DeliverEmail, sweepClock.Add(-time.Minute))))

	for attempt := 0; attempt < 3; attempt++ {
		require.NoError(t, sweeper.ProcessDue(context.Background()))
		// Collapse the backoff so the next pass sees the intent again.
		n, _ := repo.GetByID(context.Background(), "n-1")
		if n.Status == models.NotificationPending {
			n.ScheduledFor = sweepClock.Add(-time.Minute)
			require.NoError(t, repo.Update(context.Background(), n))
		}
	}

	n, _ := repo.GetByID(context.Background(), "n-1")
	assert.Equal(t, models.NotificationFailed, n.Status)
	assert.Equal(t, 3, n.RetryCount)
	assert.Equal(t, 3, email.calls)

	// Terminal intents are never picked up again.
	require.NoError(t, sweeper.ProcessDue(context.Background()))
	assert.Equal(t, 3, email.calls)
}

func TestProcessDueDisabledChannelIsNoOpSuccess(t *testing.T) {
	repo := newMemNotificationRepo()
	require.NoError(t, repo.Create(context.Background(), pendingIntent("n-1", models.DeliverSMS, sweepClock.Add(-time.Minute))))

	// No SMS sender configured at all.
	sweeper := newTestSweeper(repo, nil, nil)
	require.NoError(t, sweeper.ProcessDue(context.Background()))

	n, _ := repo.GetByID(context.Background(), "n-1")
	assert.Equal(t, models.NotificationSent, n.Status)
	assert.Zero(t, n.RetryCount)
}

func TestProcessDueBothChannelsAttemptIndependently(t *testing.T) {
	repo := newMemNotificationRepo()
	email := &stubEmail{err: errors.New("smtp unreachable")}
	sms := &stubSMS{}
	require.NoError(t, repo.Create(context.Background(), pendingIntent("n-1", models.DeliverBoth, sweepClock.Add(-time.Minute))))

	sweeper := newTestSweeper(repo, email, sms)
	require.NoError(t, sweeper.ProcessDue(context.Background()))

	// The SMS went out even though email failed; the intent still retries.
	assert.Equal(t, 1, email.calls)
	assert.Equal(t, 1, sms.calls)
	assert.Equal(t, "+61400000000", sms.last)

	n, _ := repo.GetByID(context.Background(), "n-1")
	assert.Equal(t, models.NotificationPending, n.Status)
	assert.Equal(t, 1, n.RetryCount)
	assert.Contains(t, n.LastError, "email")
}

func TestProcessDueSkipsCancelledIntents(t *testing.T) {
	repo := newMemNotificationRepo()
	email := &stubEmail{}
	intent := pendingIntent("n-1", models.DeliverEmail, sweepClock.Add(-time.Minute))
	intent.BookingID = "b-1"
	require.NoError(t, repo.Create(context.Background(), intent))
	require.NoError(t, repo.CancelPendingForBooking(context.Background(), "b-1"))

	sweeper := newTestSweeper(repo, email, nil)
	require.NoError(t, sweeper.ProcessDue(context.Background()))

	assert.Zero(t, email.calls)
	n, _ := repo.GetByID(context.Background(), "n-1")
	assert.Equal(t, models.NotificationCancelled, n.Status)
}
