package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore interface {
	Register(ctx context.Context, user *User) (*User, error)
	Get(ctx context.Context, id primitive.ObjectID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateUsername(ctx context.Context, user *User) error
	// Delete removes the user record. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id primitive.ObjectID) error
}
