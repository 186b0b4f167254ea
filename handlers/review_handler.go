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

type ReviewHandler struct {
	service *application.ReviewService
	auth    *AuthMiddleware
	tracer  trace.Tracer
}

func NewReviewHandler(service *application.ReviewService, auth *AuthMiddleware, tracer trace.Tracer) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		auth:    auth,
		tracer:  tracer,
	}
}

func (handler *ReviewHandler) Init(router *mux.Router) {
	router.HandleFunc("/listings/{id}/reviews", handler.auth.RequireLogin(handler.Create)).Methods("POST")
	router.HandleFunc("/listings/{id}/reviews/{reviewID}", handler.auth.RequireLogin(handler.auth.RequireReviewAuthor(handler.Delete))).Methods("DELETE")
}

func (handler *ReviewHandler) Create(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReviewHandler.Create")
	defer span.End()

	claims := ctx.Value(KeyClaims{}).(*authorization.Claims)

	vars := mux.Vars(req)
	listingID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeError(&apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}, writer)
		return
	}

	var payload domain.ReviewPayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	review, err := handler.service.Create(ctx, listingID, claims.UserID, &payload)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	writer.WriteHeader(http.StatusCreated)
	jsonResponse(review, writer)
}

func (handler *ReviewHandler) Delete(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReviewHandler.Delete")
	defer span.End()

	vars := mux.Vars(req)
	reviewID, err := primitive.ObjectIDFromHex(vars["reviewID"])
	if err != nil {
		writeError(&apperrors.NotFoundError{Message: apperrors.ReviewNotFound, Redirect: "/listings"}, writer)
		return
	}

	if err := handler.service.Delete(ctx, reviewID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	jsonResponse(errorResponse{Message: "Review deleted", Redirect: "/listings/" + vars["id"]}, writer)
}
