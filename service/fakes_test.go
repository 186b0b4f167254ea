package application

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
)

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeUserStore struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[primitive.ObjectID]*domain.User{}}
}

func (f *fakeUserStore) Register(ctx context.Context, user *domain.User) (*domain.User, error) {
	for _, existing := range f.users {
		if existing.Username == user.Username {
			return nil, &apperrors.ValidationError{Message: apperrors.UsernameExist}
		}
	}
	user.ID = primitive.NewObjectID()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Message: apperrors.UserNotFound}
	}
	return user, nil
}

func (f *fakeUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, &apperrors.NotFoundError{Message: apperrors.UserNotFound}
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, &apperrors.NotFoundError{Message: apperrors.UserNotFound}
}

func (f *fakeUserStore) UpdateUsername(ctx context.Context, user *domain.User) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return &apperrors.NotFoundError{Message: apperrors.UserNotFound}
	}
	stored.Username = user.Username
	return nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(f.users, id)
	return nil
}

type fakeListingStore struct {
	listings map[primitive.ObjectID]*domain.Listing
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{listings: map[primitive.ObjectID]*domain.Listing{}}
}

func (f *fakeListingStore) Insert(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	listing.ID = primitive.NewObjectID()
	if listing.Reviews == nil {
		listing.Reviews = []primitive.ObjectID{}
	}
	f.listings[listing.ID] = listing
	return listing, nil
}

func (f *fakeListingStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Listing, error) {
	listing, ok := f.listings[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}
	}
	return listing, nil
}

func (f *fakeListingStore) GetAll(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error) {
	all := []*domain.Listing{}
	for _, listing := range f.listings {
		all = append(all, listing)
	}
	return all, nil
}

func (f *fakeListingStore) GetByOwner(ctx context.Context, owner primitive.ObjectID) ([]*domain.Listing, error) {
	owned := []*domain.Listing{}
	for _, listing := range f.listings {
		if listing.Owner == owner {
			owned = append(owned, listing)
		}
	}
	return owned, nil
}

func (f *fakeListingStore) Update(ctx context.Context, listing *domain.Listing) error {
	if _, ok := f.listings[listing.ID]; !ok {
		return &apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}
	}
	f.listings[listing.ID] = listing
	return nil
}

func (f *fakeListingStore) PushReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error {
	listing, ok := f.listings[listingID]
	if !ok {
		return &apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}
	}
	listing.Reviews = append(listing.Reviews, reviewID)
	return nil
}

func (f *fakeListingStore) PullReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error {
	listing, ok := f.listings[listingID]
	if !ok {
		return nil
	}
	kept := listing.Reviews[:0]
	for _, id := range listing.Reviews {
		if id != reviewID {
			kept = append(kept, id)
		}
	}
	listing.Reviews = kept
	return nil
}

func (f *fakeListingStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(f.listings, id)
	return nil
}

type fakeReviewStore struct {
	reviews map[primitive.ObjectID]*domain.Review
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{reviews: map[primitive.ObjectID]*domain.Review{}}
}

func (f *fakeReviewStore) Insert(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	review.ID = primitive.NewObjectID()
	f.reviews[review.ID] = review
	return review, nil
}

func (f *fakeReviewStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	review, ok := f.reviews[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Message: apperrors.ReviewNotFound, Redirect: "/listings"}
	}
	return review, nil
}

func (f *fakeReviewStore) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Review, error) {
	found := []*domain.Review{}
	for _, id := range ids {
		if review, ok := f.reviews[id]; ok {
			found = append(found, review)
		}
	}
	return found, nil
}

func (f *fakeReviewStore) GetByAuthor(ctx context.Context, author primitive.ObjectID) ([]*domain.Review, error) {
	authored := []*domain.Review{}
	for _, review := range f.reviews {
		if review.Author == author {
			authored = append(authored, review)
		}
	}
	return authored, nil
}

func (f *fakeReviewStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviewStore) DeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	for _, id := range ids {
		delete(f.reviews, id)
	}
	return nil
}

type fakeBookingStore struct {
	bookings map[primitive.ObjectID]*domain.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: map[primitive.ObjectID]*domain.Booking{}}
}

func (f *fakeBookingStore) Insert(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	booking.ID = primitive.NewObjectID()
	f.bookings[booking.ID] = booking
	return booking, nil
}

func (f *fakeBookingStore) GetByUser(ctx context.Context, user primitive.ObjectID) ([]*domain.Booking, error) {
	mine := []*domain.Booking{}
	for _, booking := range f.bookings {
		if booking.User == user {
			mine = append(mine, booking)
		}
	}
	return mine, nil
}

func (f *fakeBookingStore) GetByListing(ctx context.Context, listing primitive.ObjectID) ([]*domain.Booking, error) {
	matched := []*domain.Booking{}
	for _, booking := range f.bookings {
		if booking.Listing == listing {
			matched = append(matched, booking)
		}
	}
	return matched, nil
}

func (f *fakeBookingStore) DeleteByListing(ctx context.Context, listing primitive.ObjectID) error {
	for id, booking := range f.bookings {
		if booking.Listing == listing {
			delete(f.bookings, id)
		}
	}
	return nil
}

func (f *fakeBookingStore) DeleteByUser(ctx context.Context, user primitive.ObjectID) error {
	for id, booking := range f.bookings {
		if booking.User == user {
			delete(f.bookings, id)
		}
	}
	return nil
}

type fakeSessionCache struct {
	sessions  map[string]string
	redirects map[string]string
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		sessions:  map[string]string{},
		redirects: map[string]string{},
	}
}

func (f *fakeSessionCache) PostSession(ctx context.Context, token string, userID string) error {
	f.sessions[token] = userID
	return nil
}

func (f *fakeSessionCache) GetSession(ctx context.Context, token string) (string, error) {
	userID, ok := f.sessions[token]
	if !ok {
		return "", &apperrors.NotFoundError{Message: apperrors.NotLoggedIn}
	}
	return userID, nil
}

func (f *fakeSessionCache) DelSession(ctx context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionCache) SetRedirect(ctx context.Context, sessionKey string, url string) error {
	f.redirects[sessionKey] = url
	return nil
}

func (f *fakeSessionCache) ConsumeRedirect(ctx context.Context, sessionKey string) (string, error) {
	url, ok := f.redirects[sessionKey]
	if !ok {
		return "", &apperrors.NotFoundError{Message: apperrors.SomethingWrong}
	}
	delete(f.redirects, sessionKey)
	return url, nil
}
