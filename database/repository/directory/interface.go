package directoryRepo

import (
	"context"
	"errors"

	"lockbox/models"
)

var ErrNotFound = errors.New("directory entry not found")

// Users, listings and reviews are owned by other services; these are read-only views.

type UserDirectory interface {
	// StripeCustomerID returns the gateway customer for a renter, "" when none is linked.
	StripeCustomerID(ctx context.Context, userID string) (string, error)
}

type ListingDirectory interface {
	GetListing(ctx context.Context, listingID string) (*models.ListingSummary, error)
}

type ReviewDirectory interface {
	HasReview(ctx context.Context, userID, listingID string) (bool, error)
}
