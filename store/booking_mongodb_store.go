package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/domain"
)

const BOOKINGS_COLLECTION = "bookings"

type BookingMongoDBStore struct {
	bookings *mongo.Collection
	tracer   trace.Tracer
}

func NewBookingMongoDBStore(client *mongo.Client, tracer trace.Tracer) domain.BookingStore {
	bookings := client.Database(DATABASE).Collection(BOOKINGS_COLLECTION)
	return &BookingMongoDBStore{
		bookings: bookings,
		tracer:   tracer,
	}
}

func (store *BookingMongoDBStore) Insert(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	ctx, span := store.tracer.Start(ctx, "BookingStore.Insert")
	defer span.End()

	booking.ID = primitive.NewObjectID()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}

	result, err := store.bookings.InsertOne(ctx, booking)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	booking.ID = result.InsertedID.(primitive.ObjectID)
	return booking, nil
}

func (store *BookingMongoDBStore) GetByUser(ctx context.Context, user primitive.ObjectID) ([]*domain.Booking, error) {
	ctx, span := store.tracer.Start(ctx, "BookingStore.GetByUser")
	defer span.End()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := store.bookings.Find(ctx, bson.M{"user": user}, opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeBookings(ctx, cursor)
}

func (store *BookingMongoDBStore) GetByListing(ctx context.Context, listing primitive.ObjectID) ([]*domain.Booking, error) {
	ctx, span := store.tracer.Start(ctx, "BookingStore.GetByListing")
	defer span.End()

	cursor, err := store.bookings.Find(ctx, bson.M{"listing": listing})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeBookings(ctx, cursor)
}

func (store *BookingMongoDBStore) DeleteByListing(ctx context.Context, listing primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "BookingStore.DeleteByListing")
	defer span.End()

	// zero deletions is a no-op, not an error
	_, err := store.bookings.DeleteMany(ctx, bson.M{"listing": listing})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (store *BookingMongoDBStore) DeleteByUser(ctx context.Context, user primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "BookingStore.DeleteByUser")
	defer span.End()

	_, err := store.bookings.DeleteMany(ctx, bson.M{"user": user})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func decodeBookings(ctx context.Context, cursor *mongo.Cursor) (bookings []*domain.Booking, err error) {
	for cursor.Next(ctx) {
		var booking domain.Booking
		err = cursor.Decode(&booking)
		if err != nil {
			return
		}
		bookings = append(bookings, &booking)
	}
	err = cursor.Err()
	return
}
