package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingRepo "groundandgrow/database/repository/booking"
	"groundandgrow/models"
	"groundandgrow/services/availability"
	"groundandgrow/services/payment"

	"github.com/stripe/stripe-go/v76"
)

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *memBookingRepo) ReserveSlot(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.bookings {
		if existing.PsychologistID == b.PsychologistID && existing.Occupying() &&
			b.AppointmentAt.Before(existing.End()) && b.End().After(existing.AppointmentAt) {
			return bookingRepo.ErrSlotTaken
		}
	}
	clone := *b
	r.bookings[b.ID] = &clone
	return nil
}

func (r *memBookingRepo) MoveSlot(_ context.Context, b *models.Booking, newStart time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID]
	if !ok {
		return errors.New("no documents")
	}
	end := newStart.Add(time.Duration(b.DurationMinutes) * time.Minute)
	for _, existing := range r.bookings {
		if existing.ID == b.ID {
			continue
		}
		if existing.PsychologistID == b.PsychologistID && existing.Occupying() &&
			newStart.Before(existing.End()) && end.After(existing.AppointmentAt) {
			return bookingRepo.ErrSlotTaken
		}
	}
	stored.AppointmentAt = newStart
	b.AppointmentAt = newStart
	return nil
}

func (r *memBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		clone := *b
		return &clone, nil
	}
	return nil, errors.New("no documents")
}

func (r *memBookingRepo) GetByAccessToken(_ context.Context, token string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.AccessToken == token {
			clone := *b
			return &clone, nil
		}
	}
	return nil, errors.New("no documents")
}

func (r *memBookingRepo) GetByCheckoutSessionID(_ context.Context, sessionID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.CheckoutSessionID == sessionID {
			clone := *b
			return &clone, nil
		}
	}
	return nil, errors.New("no documents")
}

func (r *memBookingRepo) Update(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return errors.New("no documents")
	}
	clone := *b
	r.bookings[b.ID] = &clone
	return nil
}

func (r *memBookingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return errors.New("no documents")
	}
	delete(r.bookings, id)
	return nil
}

func (r *memBookingRepo) ListByEmail(_ context.Context, email string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.Email == email {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) ListByPsychologist(_ context.Context, psychologistID string, filter bookingRepo.ListFilter) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.PsychologistID != psychologistID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.From != nil && b.AppointmentAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !b.AppointmentAt.Before(*filter.To) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *memBookingRepo) ListOccupyingBetween(_ context.Context, psychologistID string, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.PsychologistID == psychologistID && b.Occupying() &&
			!b.AppointmentAt.Before(from) && b.AppointmentAt.Before(to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) EnsureIndexes() error { return nil }

type fakePsychRepo struct {
	psychs map[string]*models.Psychologist
}

func (r *fakePsychRepo) Create(_ context.Context, p *models.Psychologist) error {
	r.psychs[p.ID] = p
	return nil
}
func (r *fakePsychRepo) Update(_ context.Context, p *models.Psychologist) error {
	r.psychs[p.ID] = p
	return nil
}
func (r *fakePsychRepo) GetByID(_ context.Context, id string) (*models.Psychologist, error) {
	if p, ok := r.psychs[id]; ok {
		return p, nil
	}
	return nil, errors.New("no documents")
}
func (r *fakePsychRepo) GetByEmail(_ context.Context, email string) (*models.Psychologist, error) {
	for _, p := range r.psychs {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, errors.New("no documents")
}
func (r *fakePsychRepo) ListActive(_ context.Context) ([]models.Psychologist, error) {
	var out []models.Psychologist
	for _, p := range r.psychs {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}
func (r *fakePsychRepo) UpdateTokenHash(_ context.Context, id, tokenHash string) error {
	if p, ok := r.psychs[id]; ok {
		p.TokenHash = tokenHash
		return nil
	}
	return errors.New("no documents")
}
func (r *fakePsychRepo) EnsureIndexes() error { return nil }

type fakeSessionTypeRepo struct {
	sessionTypes map[string]*models.SessionType
}

func (r *fakeSessionTypeRepo) Create(_ context.Context, st *models.SessionType) error {
	r.sessionTypes[st.ID] = st
	return nil
}
func (r *fakeSessionTypeRepo) GetByID(_ context.Context, id string) (*models.SessionType, error) {
	if st, ok := r.sessionTypes[id]; ok {
		return st, nil
	}
	return nil, errors.New("no documents")
}
func (r *fakeSessionTypeRepo) ListActive(_ context.Context) ([]models.SessionType, error) {
	var out []models.SessionType
	for _, st := range r.sessionTypes {
		if st.Active {
			out = append(out, *st)
		}
	}
	return out, nil
}
func (r *fakeSessionTypeRepo) EnsureIndexes() error { return nil }

type fakeGateway struct {
	checkoutErr     error
	refundErr       error
	checkoutCalls   int
	refundCalls     int
	lastRefundPI    string
	lastRefundCents int64
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, bookingID, email, description string, amountCents int64) (*payment.CheckoutSession, error) {
	g.checkoutCalls++
	if g.checkoutErr != nil {
		return nil, g.checkoutErr
	}
	return &payment.CheckoutSession{
		ID:  "cs_" + bookingID,
		URL: "https://checkout.example/" + bookingID,
	}, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, paymentIntentID string, amountCents int64) (string, error) {
	g.refundCalls++
	g.lastRefundPI = paymentIntentID
	g.lastRefundCents = amountCents
	if g.refundErr != nil {
		return "", g.refundErr
	}
	return "re_1", nil
}

func (g *fakeGateway) VerifyEvent(payload []byte, signature string) (stripe.Event, error) {
	return stripe.Event{}, nil
}

type recordingNotifier struct {
	scheduled []models.Notification
	cancelled []string
	remindOK  bool
}

func (n *recordingNotifier) Schedule(_ context.Context, notification *models.Notification) error {
	n.scheduled = append(n.scheduled, *notification)
	return nil
}
func (n *recordingNotifier) SendBookingConfirmation(ctx context.Context, b *models.Booking, name string) error {
	return n.Schedule(ctx, &models.Notification{Type: models.TypeBookingConfirmation, BookingID: b.ID})
}
func (n *recordingNotifier) ScheduleAppointmentReminder(ctx context.Context, b *models.Booking, name string) (bool, error) {
	if !n.remindOK {
		return false, nil
	}
	return true, n.Schedule(ctx, &models.Notification{Type: models.TypeReminder, BookingID: b.ID})
}
func (n *recordingNotifier) SendCancellationConfirmation(ctx context.Context, b *models.Booking, name string) error {
	return n.Schedule(ctx, &models.Notification{Type: models.TypeCancellation, BookingID: b.ID})
}
func (n *recordingNotifier) NotifyMessageReceived(ctx context.Context, recipientID, recipientType, email, senderName string) error {
	return n.Schedule(ctx, &models.Notification{Type: models.TypeMessageReceived, RecipientID: recipientID})
}
func (n *recordingNotifier) CancelPendingForBooking(_ context.Context, bookingID string) error {
	n.cancelled = append(n.cancelled, bookingID)
	return nil
}
func (n *recordingNotifier) ListForBooking(_ context.Context, bookingID string) ([]models.Notification, error) {
	var out []models.Notification
	for _, s := range n.scheduled {
		if s.BookingID == bookingID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (n *recordingNotifier) ListRecent(_ context.Context, limit int64) ([]models.Notification, error) {
	out := append([]models.Notification(nil), n.scheduled...)
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (n *recordingNotifier) countByType(notificationType string) int {
	count := 0
	for _, s := range n.scheduled {
		if s.Type == notificationType {
			count++
		}
	}
	return count
}

type fakeWindowRepo struct {
	windows []models.Availability
}

func (f *fakeWindowRepo) Create(_ context.Context, w *models.Availability) error {
	f.windows = append(f.windows, *w)
	return nil
}
func (f *fakeWindowRepo) Update(_ context.Context, w *models.Availability) error { return nil }
func (f *fakeWindowRepo) Delete(_ context.Context, id string) error              { return nil }
func (f *fakeWindowRepo) GetByID(_ context.Context, id string) (*models.Availability, error) {
	return nil, errors.New("no documents")
}
func (f *fakeWindowRepo) ListByPsychologist(_ context.Context, psychologistID string) ([]models.Availability, error) {
	return f.windows, nil
}
func (f *fakeWindowRepo) ListByPsychologistAndDay(_ context.Context, psychologistID, dayOfWeek string) ([]models.Availability, error) {
	var out []models.Availability
	for _, w := range f.windows {
		if w.PsychologistID == psychologistID && w.DayOfWeek == dayOfWeek {
			out = append(out, w)
		}
	}
	return out, nil
}
func (f *fakeWindowRepo) EnsureIndexes() error { return nil }

type fakeTimeOffRepo struct {
	periods []models.TimeOff
}

func (f *fakeTimeOffRepo) Create(_ context.Context, t *models.TimeOff) error {
	f.periods = append(f.periods, *t)
	return nil
}
func (f *fakeTimeOffRepo) Delete(_ context.Context, id string) error { return nil }
func (f *fakeTimeOffRepo) GetByID(_ context.Context, id string) (*models.TimeOff, error) {
	return nil, errors.New("no documents")
}
func (f *fakeTimeOffRepo) ListByPsychologist(_ context.Context, psychologistID string) ([]models.TimeOff, error) {
	return f.periods, nil
}
func (f *fakeTimeOffRepo) EnsureIndexes() error { return nil }

// fixture wires a Service over in-memory collaborators with an all-day
// window on the appointment date.
type fixture struct {
	service  *Service
	repo     *memBookingRepo
	gateway  *fakeGateway
	notifier *recordingNotifier
	clock    time.Time
}

const (
	testPsychID       = "psych-1"
	testSessionTypeID = "st-60"
)

var appointmentAt = time.Date(2030, time.June, 10, 10, 0, 0, 0, time.Local)

func newFixture() *fixture {
	f := &fixture{
		repo:     newMemBookingRepo(),
		gateway:  &fakeGateway{},
		notifier: &recordingNotifier{remindOK: true},
		clock:    time.Date(2030, time.June, 1, 12, 0, 0, 0, time.Local),
	}

	windows := &fakeWindowRepo{windows: []models.Availability{{
		ID:             "w-1",
		PsychologistID: testPsychID,
		DayOfWeek:      availability.WeekdayName(appointmentAt.Weekday()),
		StartTime:      "09:00",
		EndTime:        "17:00",
	}}}

	engine := &availability.Engine{
		Windows:  windows,
		TimeOff:  &fakeTimeOffRepo{},
		Bookings: f.repo,
		Now:      func() time.Time { return f.clock },
	}

	f.service = &Service{
		Bookings: f.repo,
		Psychologists: &fakePsychRepo{psychs: map[string]*models.Psychologist{
			testPsychID: {ID: testPsychID, FirstName: "Dana", LastName: "Reyes", Active: true},
		}},
		SessionTypes: &fakeSessionTypeRepo{sessionTypes: map[string]*models.SessionType{
			testSessionTypeID: {
				ID:              testSessionTypeID,
				Name:            "Individual Therapy",
				DurationMinutes: 60,
				Price:           220,
				Modalities:      []string{"in_person", "telehealth"},
				Active:          true,
			},
		}},
		Availability:  engine,
		Payments:      f.gateway,
		Notifications: f.notifier,
		NoticePeriod:  24 * time.Hour,
		Now:           func() time.Time { return f.clock },
	}
	return f
}

func (f *fixture) request() *models.BookingRequest {
	return &models.BookingRequest{
		FirstName:      "Alex",
		LastName:       "Chen",
		Email:          "alex@example.com",
		Phone:          "+61400000000",
		PsychologistID: testPsychID,
		SessionTypeID:  testSessionTypeID,
		AppointmentAt:  appointmentAt,
		Modality:       "telehealth",
	}
}
