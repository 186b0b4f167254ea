package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/authorization"
	"github.com/swastisunder/Nivaas/domain"
	application "github.com/swastisunder/Nivaas/service"
)

type UserHandler struct {
	service  *application.UserService
	bookings *application.BookingService
	auth     *AuthMiddleware
	tracer   trace.Tracer
}

func NewUserHandler(service *application.UserService, bookings *application.BookingService, auth *AuthMiddleware, tracer trace.Tracer) *UserHandler {
	return &UserHandler{
		service:  service,
		bookings: bookings,
		auth:     auth,
		tracer:   tracer,
	}
}

func (handler *UserHandler) Init(router *mux.Router) {
	router.HandleFunc("/register", handler.Register).Methods("POST")
	router.HandleFunc("/login", handler.Login).Methods("POST")
	router.HandleFunc("/logout", handler.auth.RequireLogin(handler.Logout)).Methods("POST")
	router.HandleFunc("/profile", handler.auth.RequireLogin(handler.Profile)).Methods("GET")
	router.HandleFunc("/profile/username", handler.auth.RequireLogin(handler.ChangeUsername)).Methods("POST")
	router.HandleFunc("/profile", handler.auth.RequireLogin(handler.DeleteAccount)).Methods("DELETE")
}

type sessionResponse struct {
	Message  string       `json:"message,omitempty"`
	User     *domain.User `json:"user"`
	Token    string       `json:"token"`
	Redirect string       `json:"redirect,omitempty"`
}

func (handler *UserHandler) Register(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.Register")
	defer span.End()

	var payload domain.RegisterPayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	user, token, err := handler.service.Register(ctx, &payload)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	writer.WriteHeader(http.StatusCreated)
	jsonResponse(sessionResponse{
		Message:  "Welcome to Nivaas!",
		User:     user,
		Token:    token,
		Redirect: "/listings",
	}, writer)
}

func (handler *UserHandler) Login(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.Login")
	defer span.End()

	var credentials domain.Credentials
	if err := credentials.FromJSON(req.Body); err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	key := sessionKey(writer, req)
	user, token, redirect, err := handler.service.Login(ctx, &credentials, key)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	jsonResponse(sessionResponse{
		Message:  fmt.Sprintf("Welcome Back %s!", user.Username),
		User:     user,
		Token:    token,
		Redirect: redirect,
	}, writer)
}

func (handler *UserHandler) Logout(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.Logout")
	defer span.End()

	if err := handler.service.Logout(ctx, bearerToken(req)); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	jsonResponse(errorResponse{Message: "Logged out", Redirect: "/listings"}, writer)
}

type profileResponse struct {
	User     *domain.User            `json:"user"`
	Bookings []*domain.BookingDetail `json:"bookings"`
}

func (handler *UserHandler) Profile(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.Profile")
	defer span.End()

	claims := ctx.Value(KeyClaims{}).(*authorization.Claims)

	user, err := handler.service.Get(ctx, claims.UserID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	bookings, err := handler.bookings.GetUserBookings(ctx, claims.UserID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Println("error loading bookings for profile:", err)
		bookings = nil
	}

	jsonResponse(profileResponse{User: user, Bookings: bookings}, writer)
}

func (handler *UserHandler) ChangeUsername(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.ChangeUsername")
	defer span.End()

	claims := ctx.Value(KeyClaims{}).(*authorization.Claims)

	var change domain.UsernameChange
	if err := json.NewDecoder(req.Body).Decode(&change); err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	user, token, err := handler.service.ChangeUsername(ctx, claims.UserID, change.NewUsername, bearerToken(req))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	jsonResponse(sessionResponse{User: user, Token: token}, writer)
}

func (handler *UserHandler) DeleteAccount(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.DeleteAccount")
	defer span.End()

	claims := ctx.Value(KeyClaims{}).(*authorization.Claims)

	if err := handler.service.DeleteAccount(ctx, claims.UserID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	if err := handler.service.Logout(ctx, bearerToken(req)); err != nil {
		log.Println("error closing session after account delete:", err)
	}

	jsonResponse(errorResponse{Message: "Account deleted", Redirect: "/listings"}, writer)
}
