package application

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
)

func newListingFixture() (*ListingService, *fakeListingStore, *fakeReviewStore, *fakeUserStore) {
	listings := newFakeListingStore()
	reviews := newFakeReviewStore()
	users := newFakeUserStore()
	bookings := newFakeBookingStore()

	tracer := testTracer()
	logger := testLogger()
	integrity := NewIntegrityService(listings, reviews, bookings, tracer, logger)

	return NewListingService(listings, reviews, users, integrity, tracer, logger), listings, reviews, users
}

func TestCreateListingNormalizesCategories(t *testing.T) {
	service, _, _, _ := newListingFixture()

	payload := &domain.ListingPayload{
		Title:       "Lake House",
		Description: "A quiet place by the water",
		Price:       900,
		Location:    "Ohrid",
		Country:     "North Macedonia",
		Categories:  domain.CategorySet{"lakefront", "lakefront", "camping"},
	}

	listing, err := service.Create(context.Background(), primitive.NewObjectID(), payload, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if len(listing.Categories) != 2 {
		t.Errorf("Categories = %v, want deduplicated pair", listing.Categories)
	}
}

func TestCreateListingRejectsCheapPrice(t *testing.T) {
	service, _, _, _ := newListingFixture()

	payload := &domain.ListingPayload{
		Title:       "Shed",
		Description: "Barely a roof",
		Price:       499,
		Location:    "Nowhere",
		Country:     "Nowhere",
	}

	_, err := service.Create(context.Background(), primitive.NewObjectID(), payload, nil)
	if _, ok := err.(*apperrors.ValidationError); !ok {
		t.Fatalf("Create() error = %v, want ValidationError", err)
	}
}

func TestGetListingDetailPopulates(t *testing.T) {
	service, listings, reviews, users := newListingFixture()
	ctx := context.Background()

	owner, _ := users.Register(ctx, &domain.User{Username: "host", Email: "host@test.com"})
	author, _ := users.Register(ctx, &domain.User{Username: "guest", Email: "guest@test.com"})

	listing, _ := listings.Insert(ctx, &domain.Listing{Title: "Lake House", Price: 900, Owner: owner.ID})

	first, _ := reviews.Insert(ctx, &domain.Review{Comment: "great", Rating: 5, Author: author.ID, Listing: listing.ID})
	second, _ := reviews.Insert(ctx, &domain.Review{Comment: "fine", Rating: 4, Author: author.ID, Listing: listing.ID})
	listings.PushReview(ctx, listing.ID, first.ID)
	listings.PushReview(ctx, listing.ID, second.ID)

	detail, err := service.Get(ctx, listing.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if detail.Owner == nil || detail.Owner.Username != "host" {
		t.Errorf("owner not populated")
	}
	if len(detail.Reviews) != 2 {
		t.Fatalf("len(Reviews) = %d, want 2", len(detail.Reviews))
	}
	if detail.Reviews[0].ID != first.ID || detail.Reviews[1].ID != second.ID {
		t.Errorf("reviews out of attachment order")
	}
	if detail.Reviews[0].Author == nil || detail.Reviews[0].Author.Username != "guest" {
		t.Errorf("review author not populated")
	}
}

func TestGetListingDetailUnknownID(t *testing.T) {
	service, _, _, _ := newListingFixture()

	_, err := service.Get(context.Background(), primitive.NewObjectID())
	notFound, ok := err.(*apperrors.NotFoundError)
	if !ok {
		t.Fatalf("Get() error = %v, want NotFoundError", err)
	}
	if notFound.Message != apperrors.ListingNotFound {
		t.Errorf("Message = %q, want %q", notFound.Message, apperrors.ListingNotFound)
	}
}

func TestUpdateListingKeepsImageWhenNoneGiven(t *testing.T) {
	service, listings, _, _ := newListingFixture()
	ctx := context.Background()

	listing, _ := listings.Insert(ctx, &domain.Listing{
		Title: "Lake House",
		Price: 900,
		Image: domain.Image{URL: "http://img/old.jpg", FileName: "old.jpg"},
	})

	payload := &domain.ListingPayload{
		Title:       "Lake House Deluxe",
		Description: "Freshly renovated",
		Price:       1100,
		Location:    "Ohrid",
		Country:     "North Macedonia",
	}

	updated, err := service.Update(ctx, listing.ID, payload, nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Title != "Lake House Deluxe" || updated.Price != 1100 {
		t.Errorf("fields not rewritten: %+v", updated)
	}
	if updated.Image.FileName != "old.jpg" {
		t.Errorf("image lost on update without replacement")
	}
}
