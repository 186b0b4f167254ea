package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewStore interface {
	Insert(ctx context.Context, review *Review) (*Review, error)
	Get(ctx context.Context, id primitive.ObjectID) (*Review, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*Review, error)
	GetByAuthor(ctx context.Context, author primitive.ObjectID) ([]*Review, error)
	// Delete and DeleteMany treat absent ids as a no-op.
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) error
}
