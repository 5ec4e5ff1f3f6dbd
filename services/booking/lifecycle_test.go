package booking

import (
	"context"
	"testing"
	"time"

	"lockbox/models"
	"lockbox/services/lifecycle"
	"lockbox/services/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovedStartedBookingBecomesCurrentOnSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	yesterday := f.now.AddDate(0, 0, -1)
	b := f.seed(t, models.Booking{
		ID: "b-1", StartDate: yesterday, EndDate: f.now.AddDate(0, 1, 0),
		Type: models.TypeFuture, Status: models.StatusUnderReview,
		TotalAmount: 5000, Currency: "usd", PaymentMethodID: "pm_card_visa",
	})
	_, err := f.svc.Payments.Authorize(ctx, b, "")
	require.NoError(t, err)

	approved, err := f.svc.UpdateStatus(ctx, host, "b-1", models.StatusApprove)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApprove, approved.Status)
	assert.Equal(t, models.TypeFuture, approved.Type)

	notifier, err := notification.NewDefaultNotificationService(f.notifications, nil, nil)
	require.NoError(t, err)
	sweeper, err := lifecycle.NewSweeper(lifecycle.Sweeper{
		Bookings:      f.bookings,
		Listings:      f.directory,
		Reviews:       f.directory,
		Notifications: notifier,
		Now:           func() time.Time { return f.now },
	})
	require.NoError(t, err)

	report, err := sweeper.AdvancePhases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b-1"}, report.Promoted)

	stored, err := f.bookings.GetByID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.TypeCurrent, stored.Type)
	assert.Equal(t, models.StatusApprove, stored.Status)
}
