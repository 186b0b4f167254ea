package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStore interface {
	Insert(ctx context.Context, booking *Booking) (*Booking, error)
	// GetByUser returns the user's bookings sorted newest first.
	GetByUser(ctx context.Context, user primitive.ObjectID) ([]*Booking, error)
	GetByListing(ctx context.Context, listing primitive.ObjectID) ([]*Booking, error)
	// DeleteByListing and DeleteByUser treat zero matches as a no-op.
	DeleteByListing(ctx context.Context, listing primitive.ObjectID) error
	DeleteByUser(ctx context.Context, user primitive.ObjectID) error
}
