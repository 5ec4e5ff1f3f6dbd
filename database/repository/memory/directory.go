package memory

import (
	"context"
	"sync"

	directoryRepo "lockbox/database/repository/directory"
	"lockbox/models"
)

// Directory is a seedable stand-in for the users, listing and review collections.
type Directory struct {
	mu        sync.RWMutex
	customers map[string]string
	listings  map[string]models.ListingSummary
	reviews   map[string]bool
}

func NewDirectory() *Directory {
	return &Directory{
		customers: make(map[string]string),
		listings:  make(map[string]models.ListingSummary),
		reviews:   make(map[string]bool),
	}
}

func (d *Directory) AddUser(userID, stripeCustomerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[userID] = stripeCustomerID
}

func (d *Directory) AddListing(l models.ListingSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listings[l.ID] = l
}

func (d *Directory) AddReview(userID, listingID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reviews[userID+"/"+listingID] = true
}

func (d *Directory) StripeCustomerID(_ context.Context, userID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.customers[userID]
	if !ok {
		return "", directoryRepo.ErrNotFound
	}
	return id, nil
}

func (d *Directory) GetListing(_ context.Context, listingID string) (*models.ListingSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.listings[listingID]
	if !ok {
		return nil, directoryRepo.ErrNotFound
	}
	return &l, nil
}

func (d *Directory) HasReview(_ context.Context, userID, listingID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.reviews[userID+"/"+listingID], nil
}
