package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/authorization"
	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
	application "github.com/swastisunder/Nivaas/service"
)

type bookingResponse struct {
	Message  string          `json:"message"`
	Booking  *domain.Booking `json:"booking"`
	Redirect string          `json:"redirect"`
}

type BookingHandler struct {
	service *application.BookingService
	auth    *AuthMiddleware
	tracer  trace.Tracer
}

func NewBookingHandler(service *application.BookingService, auth *AuthMiddleware, tracer trace.Tracer) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    auth,
		tracer:  tracer,
	}
}

func (handler *BookingHandler) Init(router *mux.Router) {
	router.HandleFunc("/listings/{id}/checkout", handler.auth.RequireLogin(handler.RenderCheckout)).Methods("GET")
	router.HandleFunc("/listings/{id}/bookings", handler.auth.RequireLogin(handler.Create)).Methods("POST")
}

// RenderCheckout returns the listing the checkout page is built from.
func (handler *BookingHandler) RenderCheckout(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "BookingHandler.RenderCheckout")
	defer span.End()

	vars := mux.Vars(req)
	listingID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeError(&apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}, writer)
		return
	}

	listing, err := handler.service.RenderCheckout(ctx, listingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	jsonResponse(listing, writer)
}

func (handler *BookingHandler) Create(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "BookingHandler.Create")
	defer span.End()

	claims := ctx.Value(KeyClaims{}).(*authorization.Claims)

	vars := mux.Vars(req)
	listingID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeError(&apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}, writer)
		return
	}

	var payload application.BookingPayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	booking, err := handler.service.CreateBooking(ctx, listingID, claims.UserID, &payload)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	writer.WriteHeader(http.StatusCreated)
	jsonResponse(bookingResponse{
		Message:  "Booking confirmed! Payment will be collected at the counter.",
		Booking:  booking,
		Redirect: "/profile",
	}, writer)
}
