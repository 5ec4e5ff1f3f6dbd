package booking

import (
	"context"
	"errors"
	"testing"

	"lockbox/models"
	"lockbox/services/events"
	"lockbox/services/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveCapturesAndSettles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.NoError(t, err)

	approved, err := f.svc.UpdateStatus(ctx, host, b.ID, models.StatusApprove)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApprove, approved.Status)
	assert.Equal(t, models.TypeFuture, approved.Type)
	assert.Equal(t, 1, approved.TotalPaidMonthRent)
	assert.Equal(t, 1, approved.TotalPaidMonthHost)

	txns, err := f.transactions.ListByBooking(ctx, b.ID)
	require.NoError(t, err)
	var captures []models.Transaction
	for _, txn := range txns {
		if txn.Operation == models.OperationCapture {
			captures = append(captures, txn)
		}
	}
	require.Len(t, captures, 1)
	assert.Equal(t, models.TransactionSucceeded, captures[0].Status)
	assert.Equal(t, txns[0].PaymentIntentID, captures[0].PaymentIntentID)

	assert.Equal(t, []models.NotificationKind{models.KindDecision}, f.kinds("renter-1"))
	assert.Contains(t, f.events.Keys(), events.KeyBookingApproved)
}

func TestApproveIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, host, b.ID, models.StatusApprove)
	require.NoError(t, err)
	again, err := f.svc.UpdateStatus(ctx, host, b.ID, models.StatusApprove)
	require.NoError(t, err)

	assert.Equal(t, 1, again.TotalPaidMonthRent)
	_, captures := f.gateway.Calls()
	assert.Equal(t, 1, captures)
	txns, _ := f.transactions.ListByBooking(ctx, b.ID)
	assert.Len(t, txns, 2)
}

func TestApproveCaptureFailureLeavesBookingPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.NoError(t, err)

	f.gateway.CaptureErr = &payment.GatewayError{Op: "capture", Err: errors.New("connection reset")}
	_, err = f.svc.UpdateStatus(ctx, host, b.ID, models.StatusApprove)
	require.Error(t, err)

	stored, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, stored.Status)
	assert.Zero(t, stored.TotalPaidMonthRent)
	assert.Zero(t, stored.TotalPaidMonthHost)

	txns, _ := f.transactions.ListByBooking(ctx, b.ID)
	require.Len(t, txns, 1)
	assert.Equal(t, models.OperationAuthorize, txns[0].Operation)
	assert.Empty(t, f.kinds("renter-1"))
}

func TestApproveCaptureEndsBeforeLease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.NoError(t, err)

	f.stallGateway(stallingGateway{stallCapture: true})
	_, err = f.svc.UpdateStatus(ctx, host, b.ID, models.StatusApprove)
	var gwErr *payment.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stored, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, stored.Status)
	assert.Zero(t, stored.TotalPaidMonthRent)

	f.restoreGateway()
	approved, err := f.svc.UpdateStatus(ctx, host, b.ID, models.StatusApprove)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApprove, approved.Status)
}

func TestApproveRefusesOverlapWithApprovedBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, models.Booking{ID: "a", StartDate: day(6, 1), EndDate: day(6, 10), Type: models.TypeFuture, Status: models.StatusApprove})
	f.seed(t, models.Booking{ID: "b", StartDate: day(6, 5), EndDate: day(6, 15), Type: models.TypeFuture, Status: models.StatusUnderReview})

	_, err := f.svc.UpdateStatus(ctx, host, "b", models.StatusApprove)
	assert.ErrorIs(t, err, ErrConflict)
	_, captures := f.gateway.Calls()
	assert.Zero(t, captures)

	stored, _ := f.bookings.GetByID(ctx, "b")
	assert.Equal(t, models.StatusUnderReview, stored.Status)
}

func TestApprovedBookingsNeverOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ranges := [][2]int{{1, 10}, {5, 15}, {10, 20}, {18, 25}, {25, 30}}
	for i, r := range ranges {
		f.seed(t, models.Booking{
			ID: string(rune('a' + i)), StartDate: day(6, r[0]), EndDate: day(6, r[1]),
			Type: models.TypeFuture, Status: models.StatusUnderReview,
		})
		_, err := f.svc.Payments.Authorize(ctx, &models.Booking{ID: string(rune('a' + i)), RenterID: "renter-1", TotalAmount: 100, Currency: "usd", PaymentMethodID: "pm"}, "")
		require.NoError(t, err)
	}
	for i := range ranges {
		_, _ = f.svc.UpdateStatus(ctx, host, string(rune('a'+i)), models.StatusApprove)
	}

	approved, err := f.bookings.ListByPhase(ctx, models.TypeFuture, models.StatusApprove)
	require.NoError(t, err)
	assert.NotEmpty(t, approved)
	for i := range approved {
		for j := range approved {
			if i == j {
				continue
			}
			assert.False(t, approved[i].Overlaps(approved[j].StartDate, approved[j].EndDate),
				"%s overlaps %s", approved[i].ID, approved[j].ID)
		}
	}
}

func TestRejectMakesNoGatewayCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.NoError(t, err)

	rejected, err := f.svc.UpdateStatus(ctx, host, b.ID, models.StatusReject)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReject, rejected.Status)
	assert.Zero(t, rejected.TotalPaidMonthRent)
	_, captures := f.gateway.Calls()
	assert.Zero(t, captures)
	assert.Equal(t, []models.NotificationKind{models.KindDecision}, f.kinds("renter-1"))

	_, err = f.svc.UpdateStatus(ctx, host, b.ID, models.StatusApprove)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "(future, reject)", te.From)
}

func TestUpdateStatusChecksCapability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, renter, b.ID, models.StatusApprove)
	assert.ErrorIs(t, err, ErrForbidden)

	stranger := models.Actor{UserID: "host-2", Role: models.RoleHost}
	_, err = f.svc.UpdateStatus(ctx, stranger, b.ID, models.StatusApprove)
	assert.ErrorIs(t, err, ErrForbidden)

	// the renter's user id with a host role is still not the host
	spoofed := models.Actor{UserID: "renter-1", Role: models.RoleHost}
	_, err = f.svc.UpdateStatus(ctx, spoofed, b.ID, models.StatusApprove)
	assert.ErrorIs(t, err, ErrForbidden)

	_, captures := f.gateway.Calls()
	assert.Zero(t, captures)
}

func TestUpdateStatusValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, host, "missing", models.StatusApprove)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.UpdateStatus(ctx, host, "missing", models.StatusDispute)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApproveWithoutAuthorizationFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, models.Booking{ID: "legacy", StartDate: day(6, 1), EndDate: day(6, 10), Type: models.TypeFuture, Status: models.StatusUnderReview})

	_, err := f.svc.UpdateStatus(ctx, host, "legacy", models.StatusApprove)
	assert.ErrorIs(t, err, payment.ErrNoAuthorization)

	stored, _ := f.bookings.GetByID(ctx, "legacy")
	assert.Equal(t, models.StatusUnderReview, stored.Status)
}

// afterCapture runs hook once the wrapped orchestrator has captured a payment.
type afterCapture struct {
	PaymentOrchestrator
	hook func()
}

func (a afterCapture) Capture(ctx context.Context, b *models.Booking) (*models.Transaction, error) {
	txn, err := a.PaymentOrchestrator.Capture(ctx, b)
	if err == nil {
		a.hook()
	}
	return txn, err
}

func captureCount(t *testing.T, f *fixture, bookingID string) int {
	t.Helper()
	txns, err := f.transactions.ListByBooking(context.Background(), bookingID)
	require.NoError(t, err)
	n := 0
	for _, txn := range txns {
		if txn.Operation == models.OperationCapture {
			n++
		}
	}
	return n
}

func TestDisputeDuringApprovalWaitsForIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.NoError(t, err)

	disputed := make(chan error, 1)
	f.svc.Payments = afterCapture{PaymentOrchestrator: f.svc.Payments, hook: func() {
		go func() {
			_, err := f.svc.FileDispute(ctx, renter, DisputeInput{BookingID: b.ID, Desc: "changed my mind"})
			disputed <- err
		}()
	}}

	approved, err := f.svc.UpdateStatus(ctx, host, b.ID, models.StatusApprove)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApprove, approved.Status)
	assert.Equal(t, 1, approved.TotalPaidMonthRent)

	require.NoError(t, <-disputed)
	stored, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TypeDispute, stored.Type)
	assert.Equal(t, models.StatusApprove, stored.DisputedFrom)
	assert.Equal(t, 1, stored.TotalPaidMonthRent)
	assert.Equal(t, 1, stored.TotalPaidMonthHost)
	assert.Equal(t, 1, captureCount(t, f, b.ID))
}

func TestCapturedPaymentSettlesWhenBookingLeftReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.NoError(t, err)

	// a writer that skipped the lease moves the booking after the capture
	f.svc.Payments = afterCapture{PaymentOrchestrator: f.svc.Payments, hook: func() {
		_, err := f.bookings.ForceDispute(ctx, b.ID, f.now)
		require.NoError(t, err)
	}}

	settled, err := f.svc.UpdateStatus(ctx, host, b.ID, models.StatusApprove)
	require.NoError(t, err)
	assert.Equal(t, models.TypeDispute, settled.Type)
	assert.Equal(t, 1, settled.TotalPaidMonthRent)
	assert.Equal(t, 1, settled.TotalPaidMonthHost)
	assert.Equal(t, 1, captureCount(t, f, b.ID))
	assert.NotContains(t, f.events.Keys(), events.KeyBookingApproved)
}

func TestRejectWaitsForListingLease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.NoError(t, err)

	f.svc.Leases = heldLocker{}
	_, err = f.svc.UpdateStatus(ctx, host, b.ID, models.StatusReject)
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, stored.Status)
}
