package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/authorization"
	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
)

type KeyClaims struct{}

const sessionCookieName = "session"

// AuthMiddleware Gates the routes that need an identity or an ownership
// check. A failed login gate remembers the requested URL in the redirect
// slot of the caller's anonymous session so login can send them back.
type AuthMiddleware struct {
	sessions domain.SessionCache
	listings domain.ListingStore
	reviews  domain.ReviewStore
	tracer   trace.Tracer
}

func NewAuthMiddleware(sessions domain.SessionCache, listings domain.ListingStore, reviews domain.ReviewStore, tracer trace.Tracer) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		listings: listings,
		reviews:  reviews,
		tracer:   tracer,
	}
}

func bearerToken(req *http.Request) string {
	bearer := req.Header.Get("Authorization")
	if bearer == "" {
		return ""
	}
	bearerToken := strings.Split(bearer, "Bearer ")
	if len(bearerToken) != 2 {
		return ""
	}
	return bearerToken[1]
}

// sessionKey returns the anonymous session cookie value, minting one
// when the caller has none yet.
func sessionKey(writer http.ResponseWriter, req *http.Request) string {
	if cookie, err := req.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	key := uuid.New().String()
	http.SetCookie(writer, &http.Cookie{
		Name:     sessionCookieName,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
	})
	return key
}

func (middleware *AuthMiddleware) RequireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, req *http.Request) {
		ctx, span := middleware.tracer.Start(req.Context(), "AuthMiddleware.RequireLogin")
		defer span.End()

		tokenString := bearerToken(req)
		if tokenString == "" {
			middleware.rejectAnonymous(ctx, writer, req)
			return
		}

		claims, err := authorization.VerifyToken(tokenString)
		if err != nil {
			middleware.rejectAnonymous(ctx, writer, req)
			return
		}

		if _, err := middleware.sessions.GetSession(ctx, tokenString); err != nil {
			middleware.rejectAnonymous(ctx, writer, req)
			return
		}

		ctx = context.WithValue(ctx, KeyClaims{}, claims)
		next(writer, req.WithContext(ctx))
	}
}

func (middleware *AuthMiddleware) rejectAnonymous(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	key := sessionKey(writer, req)
	_ = middleware.sessions.SetRedirect(ctx, key, req.URL.Path)
	writer.WriteHeader(http.StatusUnauthorized)
	jsonResponse(errorResponse{Message: apperrors.NotLoggedIn, Redirect: "/login"}, writer)
}

// RequireListingOwner assumes RequireLogin already ran. A missing listing
// reads as not found before any ownership comparison.
func (middleware *AuthMiddleware) RequireListingOwner(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, req *http.Request) {
		ctx, span := middleware.tracer.Start(req.Context(), "AuthMiddleware.RequireListingOwner")
		defer span.End()

		claims, ok := ctx.Value(KeyClaims{}).(*authorization.Claims)
		if !ok {
			writer.WriteHeader(http.StatusUnauthorized)
			jsonResponse(errorResponse{Message: apperrors.NotLoggedIn, Redirect: "/login"}, writer)
			return
		}

		vars := mux.Vars(req)
		listingID, err := primitive.ObjectIDFromHex(vars["id"])
		if err != nil {
			writeError(&apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}, writer)
			return
		}

		listing, err := middleware.listings.Get(ctx, listingID)
		if err != nil {
			writeError(err, writer)
			return
		}

		if listing.Owner != claims.UserID {
			writeError(&apperrors.PermissionError{
				Message:  apperrors.PermissionDenied,
				Redirect: "/listings/" + listing.ID.Hex(),
			}, writer)
			return
		}

		next(writer, req.WithContext(ctx))
	}
}

// RequireReviewAuthor mirrors RequireListingOwner for reviews, using the
// {reviewID} route variable.
func (middleware *AuthMiddleware) RequireReviewAuthor(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, req *http.Request) {
		ctx, span := middleware.tracer.Start(req.Context(), "AuthMiddleware.RequireReviewAuthor")
		defer span.End()

		claims, ok := ctx.Value(KeyClaims{}).(*authorization.Claims)
		if !ok {
			writer.WriteHeader(http.StatusUnauthorized)
			jsonResponse(errorResponse{Message: apperrors.NotLoggedIn, Redirect: "/login"}, writer)
			return
		}

		vars := mux.Vars(req)
		reviewID, err := primitive.ObjectIDFromHex(vars["reviewID"])
		if err != nil {
			writeError(&apperrors.NotFoundError{Message: apperrors.ReviewNotFound, Redirect: "/listings"}, writer)
			return
		}

		review, err := middleware.reviews.Get(ctx, reviewID)
		if err != nil {
			writeError(err, writer)
			return
		}

		if review.Author != claims.UserID {
			writeError(&apperrors.PermissionError{
				Message:  apperrors.PermissionDenied,
				Redirect: "/listings/" + review.Listing.Hex(),
			}, writer)
			return
		}

		next(writer, req.WithContext(ctx))
	}
}
