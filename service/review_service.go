package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
)

type ReviewService struct {
	reviews   domain.ReviewStore
	listings  domain.ListingStore
	integrity *IntegrityService
	tracer    trace.Tracer
	logger    *logrus.Logger
}

func NewReviewService(reviews domain.ReviewStore, listings domain.ListingStore, integrity *IntegrityService, tracer trace.Tracer, logger *logrus.Logger) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		listings:  listings,
		integrity: integrity,
		tracer:    tracer,
		logger:    logger,
	}
}

func (service *ReviewService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	ctx, span := service.tracer.Start(ctx, "ReviewService.Get")
	defer span.End()

	return service.reviews.Get(ctx, id)
}

// Create attaches a new review to the listing: the review records its
// listing back-reference and the listing records the review id, newest
// last.
func (service *ReviewService) Create(ctx context.Context, listingID, author primitive.ObjectID, payload *domain.ReviewPayload) (*domain.Review, error) {
	ctx, span := service.tracer.Start(ctx, "ReviewService.Create")
	defer span.End()

	if err := domain.ValidateStruct(payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	listing, err := service.listings.Get(ctx, listingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	review := &domain.Review{
		Comment:   payload.Comment,
		Rating:    payload.Rating,
		Author:    author,
		Listing:   listing.ID,
		CreatedAt: time.Now(),
	}

	saved, err := service.reviews.Insert(ctx, review)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := service.listings.PushReview(ctx, listing.ID, saved.ID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return saved, nil
}

// Delete removes the review and pulls its reference from the owning
// listing. Deleting an absent review is a no-op.
func (service *ReviewService) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "ReviewService.Delete")
	defer span.End()

	review, err := service.reviews.Get(ctx, id)
	if err != nil {
		if _, ok := err.(*apperrors.NotFoundError); ok {
			return nil
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := service.reviews.Delete(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	service.integrity.OnReviewDeleted(ctx, review)
	return nil
}
