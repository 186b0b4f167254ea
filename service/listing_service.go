package application

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
)

type ListingService struct {
	listings  domain.ListingStore
	reviews   domain.ReviewStore
	users     domain.UserStore
	integrity *IntegrityService
	tracer    trace.Tracer
	logger    *logrus.Logger
}

func NewListingService(listings domain.ListingStore, reviews domain.ReviewStore, users domain.UserStore, integrity *IntegrityService, tracer trace.Tracer, logger *logrus.Logger) *ListingService {
	return &ListingService{
		listings:  listings,
		reviews:   reviews,
		users:     users,
		integrity: integrity,
		tracer:    tracer,
		logger:    logger,
	}
}

func (service *ListingService) GetAll(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.GetAll")
	defer span.End()

	return service.listings.GetAll(ctx, filter)
}

// GetListing loads the bare listing record.
func (service *ListingService) GetListing(ctx context.Context, id primitive.ObjectID) (*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.GetListing")
	defer span.End()

	return service.listings.Get(ctx, id)
}

// Get loads a listing populated with its reviews, their authors and the
// owner, the shape the detail view renders.
func (service *ListingService) Get(ctx context.Context, id primitive.ObjectID) (*domain.ListingDetail, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.Get")
	defer span.End()

	listing, err := service.listings.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	detail := &domain.ListingDetail{Listing: *listing, Reviews: []domain.ReviewDetail{}}

	if owner, err := service.users.Get(ctx, listing.Owner); err == nil {
		detail.Owner = owner
	}

	reviews, err := service.reviews.GetMany(ctx, listing.Reviews)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// keep the attachment order recorded on the listing
	byID := make(map[primitive.ObjectID]*domain.Review, len(reviews))
	for _, review := range reviews {
		byID[review.ID] = review
	}
	for _, reviewID := range listing.Reviews {
		review, ok := byID[reviewID]
		if !ok {
			continue
		}
		reviewDetail := domain.ReviewDetail{Review: *review}
		if author, err := service.users.Get(ctx, review.Author); err == nil {
			reviewDetail.Author = author
		}
		detail.Reviews = append(detail.Reviews, reviewDetail)
	}

	return detail, nil
}

func (service *ListingService) Create(ctx context.Context, owner primitive.ObjectID, payload *domain.ListingPayload, image *domain.Image) (*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.Create")
	defer span.End()

	if err := domain.ValidateStruct(payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	listing := &domain.Listing{
		Title:       payload.Title,
		Description: payload.Description,
		Price:       payload.Price,
		Location:    payload.Location,
		Country:     payload.Country,
		Categories:  domain.NormalizeCategories(payload.Categories),
		Owner:       owner,
	}
	if image != nil {
		listing.Image = *image
	}

	return service.listings.Insert(ctx, listing)
}

// Update rewrites the listing's form fields and, when a replacement image
// is given, swaps the asset reference. It returns the updated record.
func (service *ListingService) Update(ctx context.Context, id primitive.ObjectID, payload *domain.ListingPayload, image *domain.Image) (*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.Update")
	defer span.End()

	if err := domain.ValidateStruct(payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	listing, err := service.listings.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	listing.Title = payload.Title
	listing.Description = payload.Description
	listing.Price = payload.Price
	listing.Location = payload.Location
	listing.Country = payload.Country
	listing.Categories = domain.NormalizeCategories(payload.Categories)
	if image != nil {
		listing.Image = *image
	}

	if err := service.listings.Update(ctx, listing); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return listing, nil
}

// Delete removes the listing and fires the integrity cascade for its
// reviews and bookings. Deleting an absent listing is a no-op.
func (service *ListingService) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "ListingService.Delete")
	defer span.End()

	listing, err := service.listings.Get(ctx, id)
	if err != nil {
		if _, ok := err.(*apperrors.NotFoundError); ok {
			return nil
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := service.listings.Delete(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	service.integrity.OnListingDeleted(ctx, listing)
	return nil
}
