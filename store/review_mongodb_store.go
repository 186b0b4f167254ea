package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
)

const REVIEWS_COLLECTION = "reviews"

type ReviewMongoDBStore struct {
	reviews *mongo.Collection
	tracer  trace.Tracer
}

func NewReviewMongoDBStore(client *mongo.Client, tracer trace.Tracer) domain.ReviewStore {
	reviews := client.Database(DATABASE).Collection(REVIEWS_COLLECTION)
	return &ReviewMongoDBStore{
		reviews: reviews,
		tracer:  tracer,
	}
}

func (store *ReviewMongoDBStore) Insert(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.Insert")
	defer span.End()

	review.ID = primitive.NewObjectID()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}

	result, err := store.reviews.InsertOne(ctx, review)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	review.ID = result.InsertedID.(primitive.ObjectID)
	return review, nil
}

func (store *ReviewMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.Get")
	defer span.End()

	var review domain.Review
	err := store.reviews.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperrors.NotFoundError{Message: apperrors.ReviewNotFound, Redirect: "/listings"}
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &review, nil
}

func (store *ReviewMongoDBStore) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Review, error) {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.GetMany")
	defer span.End()

	return store.filter(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (store *ReviewMongoDBStore) GetByAuthor(ctx context.Context, author primitive.ObjectID) ([]*domain.Review, error) {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.GetByAuthor")
	defer span.End()

	return store.filter(ctx, bson.M{"author": author})
}

func (store *ReviewMongoDBStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.Delete")
	defer span.End()

	// zero deletions is a no-op, not an error
	_, err := store.reviews.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (store *ReviewMongoDBStore) DeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ReviewStore.DeleteMany")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}
	_, err := store.reviews.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (store *ReviewMongoDBStore) filter(ctx context.Context, filter interface{}) ([]*domain.Review, error) {
	cursor, err := store.reviews.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reviews []*domain.Review
	for cursor.Next(ctx) {
		var review domain.Review
		if err := cursor.Decode(&review); err != nil {
			return nil, err
		}
		reviews = append(reviews, &review)
	}
	return reviews, cursor.Err()
}
