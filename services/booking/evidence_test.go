package booking

import (
	"context"
	"errors"
	"testing"

	"lockbox/database/repository/memory"
	"lockbox/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisputeForcesUnderReviewFromAnyPhase(t *testing.T) {
	states := []struct {
		typ    models.BookingType
		status models.BookingStatus
	}{
		{models.TypeFuture, models.StatusUnderReview},
		{models.TypeFuture, models.StatusApprove},
		{models.TypeCurrent, models.StatusApprove},
		{models.TypePast, models.StatusApprove},
		{models.TypeFuture, models.StatusReject},
		{models.TypeDispute, models.StatusUnderReview},
	}
	for _, st := range states {
		t.Run(string(st.typ)+"/"+string(st.status), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.seed(t, models.Booking{ID: "b-1", StartDate: day(6, 1), EndDate: day(6, 10), Type: st.typ, Status: st.status})

			d, err := f.svc.FileDispute(ctx, renter, DisputeInput{BookingID: "b-1", Desc: "door was broken"})
			require.NoError(t, err)
			assert.Equal(t, models.RoleRent, d.Type)
			assert.Equal(t, "renter-1", d.UserID)

			stored, err := f.bookings.GetByID(ctx, "b-1")
			require.NoError(t, err)
			assert.Equal(t, models.TypeDispute, stored.Type)
			assert.Equal(t, models.StatusUnderReview, stored.Status)

			_, captures := f.gateway.Calls()
			assert.Zero(t, captures)
		})
	}
}

func TestSecondDisputeAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, models.Booking{ID: "b-1", StartDate: day(6, 1), EndDate: day(6, 10), Type: models.TypeCurrent, Status: models.StatusApprove})

	_, err := f.svc.FileDispute(ctx, renter, DisputeInput{BookingID: "b-1", Desc: "leak"})
	require.NoError(t, err)
	_, err = f.svc.FileDispute(ctx, host, DisputeInput{BookingID: "b-1", Desc: "unpaid", Images: []string{"/uploads/a.png"}})
	require.NoError(t, err)

	disputes, err := f.svc.ListDisputes(ctx, host, "b-1")
	require.NoError(t, err)
	require.Len(t, disputes, 2)
	assert.Equal(t, models.RoleHost, disputes[1].Type)

	assert.Equal(t, []models.NotificationKind{models.KindDispute}, f.kinds("host-1"))
	assert.Equal(t, []models.NotificationKind{models.KindDispute}, f.kinds("renter-1"))

	stored, _ := f.bookings.GetByID(ctx, "b-1")
	assert.Equal(t, models.TypeDispute, stored.Type)
}

func TestDisputeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, models.Booking{ID: "b-1", StartDate: day(6, 1), EndDate: day(6, 10), Type: models.TypeFuture, Status: models.StatusApprove})

	_, err := f.svc.FileDispute(ctx, renter, DisputeInput{BookingID: "b-1"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.FileDispute(ctx, renter, DisputeInput{BookingID: "nope", Desc: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	outsider := models.Actor{UserID: "renter-2", Role: models.RoleRent}
	_, err = f.svc.FileDispute(ctx, outsider, DisputeInput{BookingID: "b-1", Desc: "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	stored, _ := f.bookings.GetByID(ctx, "b-1")
	assert.Equal(t, models.StatusApprove, stored.Status)
}

func TestDisputeOnRejectedBookingFreesDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.RequestBooking(ctx, renter, requestInput(day(6, 1), day(6, 10)))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, host, b.ID, models.StatusReject)
	require.NoError(t, err)
	_, err = f.svc.FileDispute(ctx, renter, DisputeInput{BookingID: b.ID, Desc: "why was this declined"})
	require.NoError(t, err)

	stored, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReject, stored.DisputedFrom)

	other := models.Actor{UserID: "renter-2", Role: models.RoleRent}
	next, err := f.svc.RequestBooking(ctx, other, requestInput(day(6, 5), day(6, 15)))
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, next.Status)
}

func TestDisputeOnApprovedBookingKeepsDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, models.Booking{ID: "b-1", StartDate: day(6, 1), EndDate: day(6, 10), Type: models.TypeFuture, Status: models.StatusApprove})
	_, err := f.svc.FileDispute(ctx, host, DisputeInput{BookingID: "b-1", Desc: "renter never paid the deposit"})
	require.NoError(t, err)

	other := models.Actor{UserID: "renter-2", Role: models.RoleRent}
	_, err = f.svc.RequestBooking(ctx, other, requestInput(day(6, 5), day(6, 15)))
	assert.ErrorIs(t, err, ErrConflict)
}

type failingDisputes struct {
	*memory.DisputeRepo
}

func (failingDisputes) Create(context.Context, *models.Dispute) error {
	return errors.New("write concern timeout")
}

func TestDisputeEvidenceFailureLeavesBookingDisputed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, models.Booking{ID: "b-1", StartDate: day(6, 1), EndDate: day(6, 10), Type: models.TypeCurrent, Status: models.StatusApprove})
	f.svc.Disputes = failingDisputes{f.disputes}

	_, err := f.svc.FileDispute(ctx, renter, DisputeInput{BookingID: "b-1", Desc: "leak"})
	require.Error(t, err)

	stored, err := f.bookings.GetByID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.TypeDispute, stored.Type)
	assert.Empty(t, f.kinds("host-1"))

	// the retry records the evidence and keeps the original origin
	f.svc.Disputes = f.disputes
	_, err = f.svc.FileDispute(ctx, renter, DisputeInput{BookingID: "b-1", Desc: "leak"})
	require.NoError(t, err)
	disputes, err := f.svc.ListDisputes(ctx, renter, "b-1")
	require.NoError(t, err)
	assert.Len(t, disputes, 1)
	stored, _ = f.bookings.GetByID(ctx, "b-1")
	assert.Equal(t, models.StatusApprove, stored.DisputedFrom)
}

func TestCheckInLeavesBookingUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seeded := f.seed(t, models.Booking{ID: "b-1", StartDate: day(6, 1), EndDate: day(6, 10), Type: models.TypeCurrent, Status: models.StatusApprove})

	c, err := f.svc.FileCheckIn(ctx, host, CheckInInput{BookingID: "b-1", Agree: true, Note: "keys handed over"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleHost, c.Type)
	assert.Equal(t, f.now, c.CheckInDate)
	assert.NotNil(t, c.Images)

	date := day(6, 2)
	_, err = f.svc.FileCheckIn(ctx, renter, CheckInInput{BookingID: "b-1", Agree: true, CheckInDate: &date, Note: "moved in"})
	require.NoError(t, err)

	checkIns, err := f.svc.ListCheckIns(ctx, renter, "b-1")
	require.NoError(t, err)
	require.Len(t, checkIns, 2)
	assert.Equal(t, date, checkIns[1].CheckInDate)

	stored, _ := f.bookings.GetByID(ctx, "b-1")
	assert.Equal(t, seeded.Type, stored.Type)
	assert.Equal(t, seeded.Status, stored.Status)
	assert.Equal(t, seeded.UpdatedAt, stored.UpdatedAt)

	_, err = f.svc.FileCheckIn(ctx, renter, CheckInInput{BookingID: "b-1"})
	assert.ErrorIs(t, err, ErrValidation)
}
