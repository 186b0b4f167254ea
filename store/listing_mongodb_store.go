package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
)

const LISTINGS_COLLECTION = "listings"

type ListingMongoDBStore struct {
	listings *mongo.Collection
	tracer   trace.Tracer
}

func NewListingMongoDBStore(client *mongo.Client, tracer trace.Tracer) domain.ListingStore {
	listings := client.Database(DATABASE).Collection(LISTINGS_COLLECTION)
	return &ListingMongoDBStore{
		listings: listings,
		tracer:   tracer,
	}
}

func (store *ListingMongoDBStore) Insert(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	ctx, span := store.tracer.Start(ctx, "ListingStore.Insert")
	defer span.End()

	listing.ID = primitive.NewObjectID()
	if listing.Categories == nil {
		listing.Categories = domain.CategorySet{}
	}
	if listing.Reviews == nil {
		listing.Reviews = []primitive.ObjectID{}
	}

	result, err := store.listings.InsertOne(ctx, listing)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	listing.ID = result.InsertedID.(primitive.ObjectID)
	return listing, nil
}

func (store *ListingMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Listing, error) {
	ctx, span := store.tracer.Start(ctx, "ListingStore.Get")
	defer span.End()

	var listing domain.Listing
	err := store.listings.FindOne(ctx, bson.M{"_id": id}).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &listing, nil
}

func (store *ListingMongoDBStore) GetAll(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error) {
	ctx, span := store.tracer.Start(ctx, "ListingStore.GetAll")
	defer span.End()

	query := bson.M{}
	if filter.Category != "" {
		query["categories"] = filter.Category
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: filter.Search, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"location": pattern},
			bson.M{"country": pattern},
		}
	}

	return store.filter(ctx, query)
}

func (store *ListingMongoDBStore) GetByOwner(ctx context.Context, owner primitive.ObjectID) ([]*domain.Listing, error) {
	ctx, span := store.tracer.Start(ctx, "ListingStore.GetByOwner")
	defer span.End()

	return store.filter(ctx, bson.M{"owner": owner})
}

func (store *ListingMongoDBStore) Update(ctx context.Context, listing *domain.Listing) error {
	ctx, span := store.tracer.Start(ctx, "ListingStore.Update")
	defer span.End()

	result, err := store.listings.UpdateOne(ctx, bson.M{"_id": listing.ID}, bson.M{"$set": listing})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if result.MatchedCount == 0 {
		return &apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}
	}
	return nil
}

func (store *ListingMongoDBStore) PushReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ListingStore.PushReview")
	defer span.End()

	update := bson.M{"$push": bson.M{"reviews": reviewID}}
	_, err := store.listings.UpdateOne(ctx, bson.M{"_id": listingID}, update)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (store *ListingMongoDBStore) PullReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ListingStore.PullReview")
	defer span.End()

	update := bson.M{"$pull": bson.M{"reviews": reviewID}}
	_, err := store.listings.UpdateOne(ctx, bson.M{"_id": listingID}, update)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (store *ListingMongoDBStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ListingStore.Delete")
	defer span.End()

	// zero deletions is a no-op, not an error
	_, err := store.listings.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (store *ListingMongoDBStore) filter(ctx context.Context, filter interface{}) ([]*domain.Listing, error) {
	cursor, err := store.listings.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeListings(ctx, cursor)
}

func decodeListings(ctx context.Context, cursor *mongo.Cursor) (listings []*domain.Listing, err error) {
	for cursor.Next(ctx) {
		var listing domain.Listing
		err = cursor.Decode(&listing)
		if err != nil {
			return
		}
		listings = append(listings, &listing)
	}
	err = cursor.Err()
	return
}
