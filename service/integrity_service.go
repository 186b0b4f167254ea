package application

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/domain"
)

// IntegrityService removes dependent records after a confirmed delete so no
// orphaned reviews or bookings survive their parent. Cascades are
// best-effort: each step is idempotent, a failed step is logged and never
// undone or retried, and nothing propagates back to the request that
// triggered the delete.
type IntegrityService struct {
	listings domain.ListingStore
	reviews  domain.ReviewStore
	bookings domain.BookingStore
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewIntegrityService(listings domain.ListingStore, reviews domain.ReviewStore, bookings domain.BookingStore, tracer trace.Tracer, logger *logrus.Logger) *IntegrityService {
	return &IntegrityService{
		listings: listings,
		reviews:  reviews,
		bookings: bookings,
		tracer:   tracer,
		logger:   logger,
	}
}

// OnListingDeleted fires after a listing was confirmed deleted: every
// review in its reviews list and every booking against it goes too.
func (service *IntegrityService) OnListingDeleted(ctx context.Context, deleted *domain.Listing) {
	ctx, span := service.tracer.Start(ctx, "IntegrityService.OnListingDeleted")
	defer span.End()

	if deleted == nil {
		return
	}

	if err := service.reviews.DeleteMany(ctx, deleted.Reviews); err != nil {
		service.logger.Errorf("cascade: deleting reviews of listing %s: %v", deleted.ID.Hex(), err)
	}
	if err := service.bookings.DeleteByListing(ctx, deleted.ID); err != nil {
		service.logger.Errorf("cascade: deleting bookings of listing %s: %v", deleted.ID.Hex(), err)
	}
}

// OnReviewDeleted fires after a review was confirmed deleted directly and
// removes its reference from the listing that held it.
func (service *IntegrityService) OnReviewDeleted(ctx context.Context, deleted *domain.Review) {
	ctx, span := service.tracer.Start(ctx, "IntegrityService.OnReviewDeleted")
	defer span.End()

	if deleted == nil {
		return
	}

	if err := service.listings.PullReview(ctx, deleted.Listing, deleted.ID); err != nil {
		service.logger.Errorf("cascade: pulling review %s from listing %s: %v", deleted.ID.Hex(), deleted.Listing.Hex(), err)
	}
}

// OnUserDeleted fires after a user account was confirmed deleted. Every
// listing the user owned gets the full listing cascade, every review they
// authored is removed (along with its listing reference), and every booking
// they made is deleted.
func (service *IntegrityService) OnUserDeleted(ctx context.Context, userID primitive.ObjectID) {
	ctx, span := service.tracer.Start(ctx, "IntegrityService.OnUserDeleted")
	defer span.End()

	owned, err := service.listings.GetByOwner(ctx, userID)
	if err != nil {
		service.logger.Errorf("cascade: loading listings of user %s: %v", userID.Hex(), err)
	}
	for _, listing := range owned {
		if err := service.listings.Delete(ctx, listing.ID); err != nil {
			service.logger.Errorf("cascade: deleting listing %s: %v", listing.ID.Hex(), err)
			continue
		}
		service.OnListingDeleted(ctx, listing)
	}

	authored, err := service.reviews.GetByAuthor(ctx, userID)
	if err != nil {
		service.logger.Errorf("cascade: loading reviews of user %s: %v", userID.Hex(), err)
	}
	for _, review := range authored {
		if err := service.listings.PullReview(ctx, review.Listing, review.ID); err != nil {
			service.logger.Errorf("cascade: pulling review %s from listing %s: %v", review.ID.Hex(), review.Listing.Hex(), err)
		}
		if err := service.reviews.Delete(ctx, review.ID); err != nil {
			service.logger.Errorf("cascade: deleting review %s: %v", review.ID.Hex(), err)
		}
	}

	if err := service.bookings.DeleteByUser(ctx, userID); err != nil {
		service.logger.Errorf("cascade: deleting bookings of user %s: %v", userID.Hex(), err)
	}
}
