package booking

import (
	"context"
	"testing"
	"time"

	bookingRepo "lockbox/database/repository/booking"
	"lockbox/database/repository/memory"
	"lockbox/models"
	"lockbox/services/chat"
	"lockbox/services/events"
	"lockbox/services/lease"
	"lockbox/services/notification"
	"lockbox/services/payment"

	"github.com/stretchr/testify/require"
)

var (
	renter = models.Actor{UserID: "renter-1", Role: models.RoleRent}
	host   = models.Actor{UserID: "host-1", Role: models.RoleHost}
)

type fixture struct {
	svc           *DefaultBookingService
	bookings      *memory.BookingRepo
	transactions  *memory.TransactionRepo
	disputes      *memory.DisputeRepo
	checkIns      *memory.CheckInRepo
	notifications *memory.NotificationRepo
	chats         *memory.ChatRepo
	directory     *memory.Directory
	gateway       *payment.MemoryGateway
	locker        *lease.MemoryLocker
	events        *events.Recorder
	now           time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bookings:      memory.NewBookingRepo(),
		transactions:  memory.NewTransactionRepo(),
		disputes:      memory.NewDisputeRepo(),
		checkIns:      memory.NewCheckInRepo(),
		notifications: memory.NewNotificationRepo(),
		chats:         memory.NewChatRepo(),
		directory:     memory.NewDirectory(),
		gateway:       payment.NewMemoryGateway(),
		locker:        lease.NewMemoryLocker(lease.Options{TTL: time.Minute, Wait: 5 * time.Second, Retry: time.Millisecond}),
		events:        &events.Recorder{},
		now:           time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC),
	}
	f.directory.AddListing(models.ListingSummary{ID: "listing-1", HostID: "host-1", SpaceType: "Garage", City: "Austin"})
	f.directory.AddUser("renter-1", "cus_renter1")

	notifier, err := notification.NewDefaultNotificationService(f.notifications, f.events, nil)
	require.NoError(t, err)
	orchestrator := payment.NewOrchestrator(f.gateway, f.transactions, nil)

	svc, err := NewDefaultBookingService(DefaultBookingService{
		Bookings:      f.bookings,
		Disputes:      f.disputes,
		CheckIns:      f.checkIns,
		Payments:      orchestrator,
		Leases:        f.locker,
		Notifications: notifier,
		Messenger:     chat.NewMessenger(f.chats, chat.NewRegistry(), nil, nil),
		Users:         f.directory,
		Listings:      f.directory,
		Events:        f.events,
		Now:           func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

func requestInput(start, end time.Time) RequestInput {
	return RequestInput{
		ListingID:       "listing-1",
		HostID:          "host-1",
		StartDate:       start,
		EndDate:         end,
		PaymentMethodID: "pm_card_visa",
		Currency:        "USD",
		Amount:          10000,
		Tax:             800,
		ServiceFee:      1200,
		TotalAmount:     12000,
	}
}

func (f *fixture) seed(t *testing.T, b models.Booking) *models.Booking {
	t.Helper()
	if b.ListingID == "" {
		b.ListingID = "listing-1"
	}
	if b.RenterID == "" {
		b.RenterID = "renter-1"
	}
	if b.HostID == "" {
		b.HostID = "host-1"
	}
	require.NoError(t, f.bookings.Create(context.Background(), &b))
	return &b
}

func (f *fixture) kinds(userID string) []models.NotificationKind {
	var out []models.NotificationKind
	for _, n := range f.notifications.All() {
		if n.UserID == userID {
			out = append(out, n.Type)
		}
	}
	return out
}

func overlapAll(listingID string, start, end time.Time) bookingRepo.OverlapQuery {
	return bookingRepo.OverlapQuery{ListingID: listingID, Start: start, End: end}
}

// stallingGateway never answers on its own; the stalled calls return once
// the caller's context ends.
type stallingGateway struct {
	*payment.MemoryGateway
	stallAuthorize bool
	stallCapture   bool
}

func (g stallingGateway) Authorize(ctx context.Context, req payment.AuthorizeRequest) (*payment.Result, error) {
	if !g.stallAuthorize {
		return g.MemoryGateway.Authorize(ctx, req)
	}
	<-ctx.Done()
	return nil, &payment.GatewayError{Op: "authorize", Err: ctx.Err()}
}

func (g stallingGateway) Capture(ctx context.Context, req payment.CaptureRequest) (*payment.Result, error) {
	if !g.stallCapture {
		return g.MemoryGateway.Capture(ctx, req)
	}
	<-ctx.Done()
	return nil, &payment.GatewayError{Op: "capture", Err: ctx.Err()}
}

func (f *fixture) stallGateway(g stallingGateway) {
	g.MemoryGateway = f.gateway
	f.svc.Payments = payment.NewOrchestrator(g, f.transactions, nil)
	f.svc.GatewayTimeout = 20 * time.Millisecond
}

func (f *fixture) restoreGateway() {
	f.svc.Payments = payment.NewOrchestrator(f.gateway, f.transactions, nil)
}
