package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casbin/casbin"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/authorization"
	"github.com/swastisunder/Nivaas/casbinAuthorization"
	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
)

type stubListingStore struct {
	listings map[primitive.ObjectID]*domain.Listing
}

func (s *stubListingStore) Insert(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	return listing, nil
}

func (s *stubListingStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Listing, error) {
	listing, ok := s.listings[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}
	}
	return listing, nil
}

func (s *stubListingStore) GetAll(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error) {
	return nil, nil
}

func (s *stubListingStore) GetByOwner(ctx context.Context, owner primitive.ObjectID) ([]*domain.Listing, error) {
	return nil, nil
}

func (s *stubListingStore) Update(ctx context.Context, listing *domain.Listing) error { return nil }

func (s *stubListingStore) PushReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error {
	return nil
}

func (s *stubListingStore) PullReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error {
	return nil
}

func (s *stubListingStore) Delete(ctx context.Context, id primitive.ObjectID) error { return nil }

type stubReviewStore struct {
	reviews map[primitive.ObjectID]*domain.Review
}

func (s *stubReviewStore) Insert(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	return review, nil
}

func (s *stubReviewStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	review, ok := s.reviews[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Message: apperrors.ReviewNotFound, Redirect: "/listings"}
	}
	return review, nil
}

func (s *stubReviewStore) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Review, error) {
	return nil, nil
}

func (s *stubReviewStore) GetByAuthor(ctx context.Context, author primitive.ObjectID) ([]*domain.Review, error) {
	return nil, nil
}

func (s *stubReviewStore) Delete(ctx context.Context, id primitive.ObjectID) error { return nil }

func (s *stubReviewStore) DeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	return nil
}

type stubSessionCache struct {
	sessions  map[string]string
	redirects map[string]string
}

func (s *stubSessionCache) PostSession(ctx context.Context, token string, userID string) error {
	s.sessions[token] = userID
	return nil
}

func (s *stubSessionCache) GetSession(ctx context.Context, token string) (string, error) {
	userID, ok := s.sessions[token]
	if !ok {
		return "", &apperrors.NotFoundError{Message: apperrors.NotLoggedIn}
	}
	return userID, nil
}

func (s *stubSessionCache) DelSession(ctx context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

func (s *stubSessionCache) SetRedirect(ctx context.Context, sessionKey string, url string) error {
	s.redirects[sessionKey] = url
	return nil
}

func (s *stubSessionCache) ConsumeRedirect(ctx context.Context, sessionKey string) (string, error) {
	url := s.redirects[sessionKey]
	delete(s.redirects, sessionKey)
	return url, nil
}

type middlewareFixture struct {
	auth     *AuthMiddleware
	listings *stubListingStore
	reviews  *stubReviewStore
	sessions *stubSessionCache
}

func newMiddlewareFixture() *middlewareFixture {
	listings := &stubListingStore{listings: map[primitive.ObjectID]*domain.Listing{}}
	reviews := &stubReviewStore{reviews: map[primitive.ObjectID]*domain.Review{}}
	sessions := &stubSessionCache{sessions: map[string]string{}, redirects: map[string]string{}}

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	return &middlewareFixture{
		auth:     NewAuthMiddleware(sessions, listings, reviews, tracer),
		listings: listings,
		reviews:  reviews,
		sessions: sessions,
	}
}

func requestAs(userID primitive.ObjectID, method, target string, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	claims := &authorization.Claims{UserID: userID}
	ctx := context.WithValue(req.Context(), KeyClaims{}, claims)
	return mux.SetURLVars(req.WithContext(ctx), vars)
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body
}

func TestRequireLoginWithoutToken(t *testing.T) {
	f := newMiddlewareFixture()

	called := false
	handler := f.auth.RequireLogin(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest("GET", "/listings/abc/checkout", nil)
	recorder := httptest.NewRecorder()
	handler(recorder, req)

	if called {
		t.Errorf("protected handler ran without a token")
	}
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}

	body := decodeError(t, recorder)
	if body.Message != apperrors.NotLoggedIn {
		t.Errorf("message = %q, want %q", body.Message, apperrors.NotLoggedIn)
	}
	if body.Redirect != "/login" {
		t.Errorf("redirect = %q, want /login", body.Redirect)
	}

	// the requested URL lands in the redirect slot of the minted session
	if len(f.sessions.redirects) != 1 {
		t.Fatalf("redirect slots = %d, want 1", len(f.sessions.redirects))
	}
	for _, url := range f.sessions.redirects {
		if url != "/listings/abc/checkout" {
			t.Errorf("stored redirect = %q, want /listings/abc/checkout", url)
		}
	}
}

func TestRequireLoginRecordsRedirectForPost(t *testing.T) {
	f := newMiddlewareFixture()

	handler := f.auth.RequireLogin(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("protected handler ran without a token")
	})

	req := httptest.NewRequest("POST", "/listings/abc/bookings", nil)
	recorder := httptest.NewRecorder()
	handler(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}
	if len(f.sessions.redirects) != 1 {
		t.Fatalf("redirect slots = %d, want 1", len(f.sessions.redirects))
	}
	for _, url := range f.sessions.redirects {
		if url != "/listings/abc/bookings" {
			t.Errorf("stored redirect = %q, want /listings/abc/bookings", url)
		}
	}
}

// The role gate in front of the router must let anonymous requests through
// to RequireLogin so the caller gets the login redirect, not a bare 403.
func TestRoleGateHandsAnonymousRequestsToLogin(t *testing.T) {
	enforcer, err := casbin.NewEnforcerSafe("../rbac_model.conf", "../policy.csv")
	if err != nil {
		t.Fatalf("loading enforcer: %v", err)
	}

	f := newMiddlewareFixture()

	router := mux.NewRouter()
	router.HandleFunc("/listings/{id}/checkout", f.auth.RequireLogin(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("checkout handler ran without a session")
	})).Methods(http.MethodGet)

	server := casbinAuthorization.CasbinMiddleware(enforcer)(router)

	req := httptest.NewRequest("GET", "/listings/abc/checkout", nil)
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}

	body := decodeError(t, recorder)
	if body.Message != apperrors.NotLoggedIn {
		t.Errorf("message = %q, want %q", body.Message, apperrors.NotLoggedIn)
	}
	if body.Redirect != "/login" {
		t.Errorf("redirect = %q, want /login", body.Redirect)
	}

	// the requested URL is waiting in the redirect slot for the next login
	if len(f.sessions.redirects) != 1 {
		t.Fatalf("redirect slots = %d, want 1", len(f.sessions.redirects))
	}
	for _, url := range f.sessions.redirects {
		if url != "/listings/abc/checkout" {
			t.Errorf("stored redirect = %q, want /listings/abc/checkout", url)
		}
	}
}

func TestRoleGateTreatsGarbledTokenAsAnonymous(t *testing.T) {
	enforcer, err := casbin.NewEnforcerSafe("../rbac_model.conf", "../policy.csv")
	if err != nil {
		t.Fatalf("loading enforcer: %v", err)
	}

	f := newMiddlewareFixture()

	router := mux.NewRouter()
	router.HandleFunc("/listings/{id}/checkout", f.auth.RequireLogin(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("checkout handler ran with a garbled token")
	})).Methods(http.MethodGet)

	server := casbinAuthorization.CasbinMiddleware(enforcer)(router)

	req := httptest.NewRequest("GET", "/listings/abc/checkout", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}

	body := decodeError(t, recorder)
	if body.Message != apperrors.NotLoggedIn {
		t.Errorf("message = %q, want %q", body.Message, apperrors.NotLoggedIn)
	}
}

func TestRequireListingOwnerAllowsOwner(t *testing.T) {
	f := newMiddlewareFixture()

	owner := primitive.NewObjectID()
	listing := &domain.Listing{ID: primitive.NewObjectID(), Owner: owner}
	f.listings.listings[listing.ID] = listing

	called := false
	handler := f.auth.RequireListingOwner(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := requestAs(owner, "DELETE", "/listings/"+listing.ID.Hex(), map[string]string{"id": listing.ID.Hex()})
	recorder := httptest.NewRecorder()
	handler(recorder, req)

	if !called {
		t.Errorf("owner was not let through")
	}
}

func TestRequireListingOwnerForbidsStranger(t *testing.T) {
	f := newMiddlewareFixture()

	listing := &domain.Listing{ID: primitive.NewObjectID(), Owner: primitive.NewObjectID()}
	f.listings.listings[listing.ID] = listing

	called := false
	handler := f.auth.RequireListingOwner(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := requestAs(primitive.NewObjectID(), "DELETE", "/listings/"+listing.ID.Hex(), map[string]string{"id": listing.ID.Hex()})
	recorder := httptest.NewRecorder()
	handler(recorder, req)

	if called {
		t.Errorf("stranger was let through")
	}
	if recorder.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", recorder.Code, http.StatusForbidden)
	}

	body := decodeError(t, recorder)
	if body.Message != apperrors.PermissionDenied {
		t.Errorf("message = %q, want %q", body.Message, apperrors.PermissionDenied)
	}
	if body.Redirect != "/listings/"+listing.ID.Hex() {
		t.Errorf("redirect = %q, want the listing page", body.Redirect)
	}
}

func TestRequireListingOwnerMissingListingReadsAsNotFound(t *testing.T) {
	f := newMiddlewareFixture()

	handler := f.auth.RequireListingOwner(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler ran for missing listing")
	})

	id := primitive.NewObjectID()
	req := requestAs(primitive.NewObjectID(), "DELETE", "/listings/"+id.Hex(), map[string]string{"id": id.Hex()})
	recorder := httptest.NewRecorder()
	handler(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", recorder.Code, http.StatusNotFound)
	}

	body := decodeError(t, recorder)
	if body.Message != apperrors.ListingNotFound {
		t.Errorf("message = %q, want %q", body.Message, apperrors.ListingNotFound)
	}
}

func TestRequireReviewAuthorForbidsStranger(t *testing.T) {
	f := newMiddlewareFixture()

	listingID := primitive.NewObjectID()
	review := &domain.Review{ID: primitive.NewObjectID(), Author: primitive.NewObjectID(), Listing: listingID}
	f.reviews.reviews[review.ID] = review

	handler := f.auth.RequireReviewAuthor(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("stranger was let through")
	})

	req := requestAs(primitive.NewObjectID(), "DELETE", "/listings/x/reviews/"+review.ID.Hex(), map[string]string{"reviewID": review.ID.Hex()})
	recorder := httptest.NewRecorder()
	handler(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", recorder.Code, http.StatusForbidden)
	}

	body := decodeError(t, recorder)
	if body.Redirect != "/listings/"+listingID.Hex() {
		t.Errorf("redirect = %q, want the listing page", body.Redirect)
	}
}

func TestRequireReviewAuthorAllowsAuthor(t *testing.T) {
	f := newMiddlewareFixture()

	author := primitive.NewObjectID()
	review := &domain.Review{ID: primitive.NewObjectID(), Author: author, Listing: primitive.NewObjectID()}
	f.reviews.reviews[review.ID] = review

	called := false
	handler := f.auth.RequireReviewAuthor(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := requestAs(author, "DELETE", "/listings/x/reviews/"+review.ID.Hex(), map[string]string{"reviewID": review.ID.Hex()})
	recorder := httptest.NewRecorder()
	handler(recorder, req)

	if !called {
		t.Errorf("author was not let through")
	}
}
