package application

import (
	"math"
	"time"

	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
)

type BookingService struct {
	bookings domain.BookingStore
	listings domain.ListingStore
	users    domain.UserStore
	mailer   *Mailer
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewBookingService(bookings domain.BookingStore, listings domain.ListingStore, users domain.UserStore, mailer *Mailer, tracer trace.Tracer, logger *logrus.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		listings: listings,
		users:    users,
		mailer:   mailer,
		tracer:   tracer,
		logger:   logger,
	}
}

// BookingPayload is the checkout form submission.
type BookingPayload struct {
	Name     string `json:"name" validate:"required"`
	Mobile   string `json:"mobile" validate:"required"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

// Nights counts the billed nights for a stay: the day span rounded up, so
// any partial day beyond a full 24h multiple bills as a whole night.
func Nights(checkIn, checkOut time.Time) int {
	hours := checkOut.Sub(checkIn).Hours()
	return int(math.Ceil(hours / 24))
}

// RenderCheckout loads the listing shown on the checkout view.
func (service *BookingService) RenderCheckout(ctx context.Context, listingID primitive.ObjectID) (*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "BookingService.RenderCheckout")
	defer span.End()

	return service.listings.Get(ctx, listingID)
}

// CreateBooking validates the proposed reservation, computes its price and
// persists it. The checks run in order and each failure carries its own
// user-visible message.
func (service *BookingService) CreateBooking(ctx context.Context, listingID, userID primitive.ObjectID, payload *BookingPayload) (*domain.Booking, error) {
	ctx, span := service.tracer.Start(ctx, "BookingService.CreateBooking")
	defer span.End()

	listing, err := service.listings.Get(ctx, listingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if payload.CheckIn == "" || payload.CheckOut == "" {
		return nil, &apperrors.ValidationError{Message: apperrors.SelectBothDates}
	}

	checkIn, err := parseDate(payload.CheckIn)
	if err != nil {
		return nil, &apperrors.ValidationError{Message: apperrors.SelectBothDates}
	}
	checkOut, err := parseDate(payload.CheckOut)
	if err != nil {
		return nil, &apperrors.ValidationError{Message: apperrors.SelectBothDates}
	}

	if !checkOut.After(checkIn) {
		return nil, &apperrors.ValidationError{Message: apperrors.CheckOutNotAfter}
	}

	// compare at day granularity
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if checkIn.Before(today) {
		return nil, &apperrors.ValidationError{Message: apperrors.CheckInInPast}
	}

	if err := domain.ValidateStruct(payload); err != nil {
		return nil, err
	}

	nights := Nights(checkIn, checkOut)
	booking := &domain.Booking{
		User:          userID,
		Listing:       listing.ID,
		Name:          payload.Name,
		Mobile:        payload.Mobile,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		TotalPrice:    nights * listing.Price,
		PaymentMethod: domain.PaymentMethodCash,
	}

	saved, err := service.bookings.Insert(ctx, booking)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if user, err := service.users.Get(ctx, userID); err == nil {
		service.mailer.SendBookingConfirmation(user.Email, listing.Title, saved)
	}

	return saved, nil
}

// GetUserBookings returns the booking history for the profile view, newest
// first, each populated with its listing.
func (service *BookingService) GetUserBookings(ctx context.Context, userID primitive.ObjectID) ([]*domain.BookingDetail, error) {
	ctx, span := service.tracer.Start(ctx, "BookingService.GetUserBookings")
	defer span.End()

	bookings, err := service.bookings.GetByUser(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	details := make([]*domain.BookingDetail, 0, len(bookings))
	for _, booking := range bookings {
		detail := &domain.BookingDetail{Booking: *booking}
		if listing, err := service.listings.Get(ctx, booking.Listing); err == nil {
			detail.Listing = listing
		}
		details = append(details, detail)
	}
	return details, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
