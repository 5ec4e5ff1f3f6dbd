package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lockbox/database/repository/memory"
	"lockbox/models"
	"lockbox/services/events"
	"lockbox/services/lease"
	"lockbox/services/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBookingCreatesPendingBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(8, 15)))
	require.NoError(t, err)

	assert.Equal(t, models.TypeFuture, b.Type)
	assert.Equal(t, models.StatusUnderReview, b.Status)
	assert.Equal(t, "renter-1", b.RenterID)
	assert.Equal(t, "usd", b.Currency)
	assert.Equal(t, 3, b.TotalMonth)
	assert.Zero(t, b.TotalPaidMonthRent)
	assert.Zero(t, b.TotalPaidMonthHost)

	stored, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, stored.ID)

	txns, err := f.transactions.ListByBooking(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.OperationAuthorize, txns[0].Operation)
	assert.Equal(t, int64(12000), txns[0].Amount)

	assert.Equal(t, []models.NotificationKind{models.KindNewRequest}, f.kinds("host-1"))
	msgs := f.chats.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "renter-1", msgs[0].Sender)
	assert.Equal(t, b.ID, msgs[0].BookingID)
	assert.Contains(t, f.events.Keys(), events.KeyBookingRequested)
}

func TestRequestBookingInvalidRangeMakesNoGatewayCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, in := range []RequestInput{
		requestInput(day(6, 10), day(6, 1)),
		requestInput(day(6, 1), day(6, 1)),
	} {
		_, err := f.svc.RequestBooking(ctx, renter, in)
		assert.ErrorIs(t, err, ErrValidation)
	}

	authorize, capture := f.gateway.Calls()
	assert.Zero(t, authorize)
	assert.Zero(t, capture)
	assert.Empty(t, f.notifications.All())
}

func TestRequestBookingValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missing := requestInput(day(6, 1), day(6, 10))
	missing.PaymentMethodID = ""
	_, err := f.svc.RequestBooking(ctx, renter, missing)
	assert.ErrorIs(t, err, ErrValidation)

	free := requestInput(day(6, 1), day(6, 10))
	free.TotalAmount = 0
	_, err = f.svc.RequestBooking(ctx, renter, free)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.RequestBooking(ctx, host, requestInput(day(6, 1), day(6, 10)))
	assert.ErrorIs(t, err, ErrForbidden)

	self := models.Actor{UserID: "host-1", Role: models.RoleRent}
	_, err = f.svc.RequestBooking(ctx, self, requestInput(day(6, 1), day(6, 10)))
	assert.ErrorIs(t, err, ErrValidation)

	authorize, _ := f.gateway.Calls()
	assert.Zero(t, authorize)
}

func TestRequestBookingListingChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unknown := requestInput(day(6, 1), day(6, 10))
	unknown.ListingID = "listing-404"
	_, err := f.svc.RequestBooking(ctx, renter, unknown)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "listing", nf.Resource)

	wrongHost := requestInput(day(6, 1), day(6, 10))
	wrongHost.HostID = "host-2"
	_, err = f.svc.RequestBooking(ctx, renter, wrongHost)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRequestBookingConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, models.Booking{ID: "pending", StartDate: day(6, 1), EndDate: day(6, 10), Type: models.TypeFuture, Status: models.StatusUnderReview})
	f.seed(t, models.Booking{ID: "rejected", StartDate: day(7, 1), EndDate: day(7, 10), Type: models.TypeFuture, Status: models.StatusReject})

	_, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 5), day(6, 15)))
	assert.ErrorIs(t, err, ErrConflict)

	// rejected bookings release their dates
	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(7, 2), day(7, 8)))
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, b.Status)

	touching, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 10), day(6, 20)))
	require.NoError(t, err)
	assert.NotEmpty(t, touching.ID)

	authorize, _ := f.gateway.Calls()
	assert.Equal(t, 2, authorize)
}

func TestRequestBookingDeclinedPersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.gateway.Declined["pm_card_visa"] = true
	ctx := context.Background()

	_, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	assert.ErrorIs(t, err, payment.ErrPaymentDeclined)

	list, total, err := f.bookings.ListForUser(ctx, models.BookingFilter{UserID: "renter-1", Role: models.RoleRent, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
	assert.Empty(t, f.notifications.All())
	assert.Empty(t, f.chats.Messages())
}

func TestRequestBookingGatewayErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.gateway.AuthorizeErr = &payment.GatewayError{Op: "authorize", Err: errors.New("timeout")}

	_, err := f.svc.RequestBooking(context.Background(), renter, requestInput(day(6, 1), day(6, 10)))
	var gwErr *payment.GatewayError
	assert.ErrorAs(t, err, &gwErr)
}

type failingCreate struct {
	*memory.BookingRepo
	attempted *models.Booking
}

func (r *failingCreate) Create(_ context.Context, b *models.Booking) error {
	r.attempted = b
	return errors.New("no primary available")
}

func TestRequestBookingInsertFailureReleasesHold(t *testing.T) {
	f := newFixture(t)
	repo := &failingCreate{BookingRepo: f.bookings}
	f.svc.Bookings = repo
	ctx := context.Background()

	_, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.Error(t, err)
	require.NotNil(t, repo.attempted)

	txns, err := f.transactions.ListByBooking(ctx, repo.attempted.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, models.OperationAuthorize, txns[0].Operation)
	assert.Equal(t, models.OperationCancel, txns[1].Operation)
	assert.True(t, f.gateway.Canceled(txns[0].PaymentIntentID))
	assert.Empty(t, f.notifications.All())
}

func TestRequestBookingGatewayCallEndsBeforeLease(t *testing.T) {
	f := newFixture(t)
	f.stallGateway(stallingGateway{stallAuthorize: true})
	ctx := context.Background()

	_, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	var gwErr *payment.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	held, err := f.bookings.FindOverlapping(ctx, overlapAll("listing-1", day(6, 1), day(6, 10)))
	require.NoError(t, err)
	assert.Empty(t, held)
	assert.Empty(t, f.notifications.All())

	f.restoreGateway()
	_, err = f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.NoError(t, err, "the listing lease was released")
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string) (lease.Release, error) { return nil, lease.ErrHeld }

func TestRequestBookingWhileListingLeased(t *testing.T) {
	f := newFixture(t)
	f.svc.Leases = heldLocker{}

	_, err := f.svc.RequestBooking(context.Background(), renter, requestInput(day(6, 1), day(6, 10)))
	assert.ErrorIs(t, err, ErrConflict)
	authorize, _ := f.gateway.Calls()
	assert.Zero(t, authorize)
}

func TestConcurrentRequestsClaimDatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := models.Actor{UserID: "renter-" + string(rune('a'+i)), Role: models.RoleRent}
			_, err := f.svc.RequestBooking(ctx, actor, requestInput(day(6, 1), day(6, 10)))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	found, err := f.bookings.FindOverlapping(ctx, overlapAll("listing-1", day(6, 1), day(6, 10)))
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
