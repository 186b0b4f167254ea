package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListingFilter narrows the listing index. A zero filter matches everything.
type ListingFilter struct {
	Category string
	// Search matches title, location or country, case-insensitively.
	Search string
}

type ListingStore interface {
	Insert(ctx context.Context, listing *Listing) (*Listing, error)
	Get(ctx context.Context, id primitive.ObjectID) (*Listing, error)
	GetAll(ctx context.Context, filter ListingFilter) ([]*Listing, error)
	GetByOwner(ctx context.Context, owner primitive.ObjectID) ([]*Listing, error)
	Update(ctx context.Context, listing *Listing) error
	PushReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error
	PullReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error
	// Delete removes the listing record. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id primitive.ObjectID) error
}
