package application

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/swastisunder/Nivaas/authorization"
	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
)

type UserService struct {
	users     domain.UserStore
	sessions  domain.SessionCache
	integrity *IntegrityService
	mailer    *Mailer
	tracer    trace.Tracer
	logger    *logrus.Logger
}

func NewUserService(users domain.UserStore, sessions domain.SessionCache, integrity *IntegrityService, mailer *Mailer, tracer trace.Tracer, logger *logrus.Logger) *UserService {
	return &UserService{
		users:     users,
		sessions:  sessions,
		integrity: integrity,
		mailer:    mailer,
		tracer:    tracer,
		logger:    logger,
	}
}

func (service *UserService) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	ctx, span := service.tracer.Start(ctx, "UserService.Get")
	defer span.End()

	return service.users.Get(ctx, id)
}

// Register creates the account and logs the new user straight in,
// returning the issued session token alongside the record.
func (service *UserService) Register(ctx context.Context, payload *domain.RegisterPayload) (*domain.User, string, error) {
	ctx, span := service.tracer.Start(ctx, "UserService.Register")
	defer span.End()

	if err := domain.ValidateStruct(payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	if _, err := service.users.GetByEmail(ctx, payload.Email); err == nil {
		return nil, "", &apperrors.ValidationError{Message: apperrors.EmailExist}
	}
	if _, err := service.users.GetByUsername(ctx, payload.Username); err == nil {
		return nil, "", &apperrors.ValidationError{Message: apperrors.UsernameExist}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	user := &domain.User{
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: string(hash),
	}

	saved, err := service.users.Register(ctx, user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	token, err := service.openSession(ctx, saved)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	service.mailer.SendWelcome(saved.Username, saved.Email)

	return saved, token, nil
}

// Login authenticates the credentials, opens a session and consumes the
// per-session redirect slot, falling back to the listing index.
func (service *UserService) Login(ctx context.Context, credentials *domain.Credentials, sessionKey string) (*domain.User, string, string, error) {
	ctx, span := service.tracer.Start(ctx, "UserService.Login")
	defer span.End()

	user, err := service.users.GetByUsername(ctx, credentials.Username)
	if err != nil {
		span.SetStatus(codes.Error, apperrors.InvalidCredentials)
		return nil, "", "", &apperrors.ValidationError{Message: apperrors.InvalidCredentials}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credentials.Password)); err != nil {
		span.SetStatus(codes.Error, apperrors.InvalidCredentials)
		return nil, "", "", &apperrors.ValidationError{Message: apperrors.InvalidCredentials}
	}

	token, err := service.openSession(ctx, user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", "", err
	}

	redirect := "/listings"
	if sessionKey != "" {
		if saved, err := service.sessions.ConsumeRedirect(ctx, sessionKey); err == nil && saved != "" {
			redirect = saved
		}
	}

	return user, token, redirect, nil
}

func (service *UserService) Logout(ctx context.Context, token string) error {
	ctx, span := service.tracer.Start(ctx, "UserService.Logout")
	defer span.End()

	return service.sessions.DelSession(ctx, token)
}

// ChangeUsername re-checks uniqueness (excluding the user itself), updates
// the record and re-issues the session so the identity stays current.
func (service *UserService) ChangeUsername(ctx context.Context, userID primitive.ObjectID, newUsername, oldToken string) (*domain.User, string, error) {
	ctx, span := service.tracer.Start(ctx, "UserService.ChangeUsername")
	defer span.End()

	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return nil, "", &apperrors.ValidationError{Message: apperrors.UsernameEmpty}
	}

	if existing, err := service.users.GetByUsername(ctx, newUsername); err == nil && existing.ID != userID {
		return nil, "", &apperrors.ValidationError{Message: apperrors.UsernameExist}
	}

	user, err := service.users.Get(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	user.Username = newUsername
	if err := service.users.UpdateUsername(ctx, user); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	if oldToken != "" {
		if err := service.sessions.DelSession(ctx, oldToken); err != nil {
			service.logger.Errorf("refreshing session after username update: %v", err)
		}
	}
	token, err := service.openSession(ctx, user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	return user, token, nil
}

// DeleteAccount removes the user and fires the full ownership cascade.
// The cascade is fire-and-forget: its failures are logged, never surfaced
// to the caller. Deleting an absent user is a no-op.
func (service *UserService) DeleteAccount(ctx context.Context, userID primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "UserService.DeleteAccount")
	defer span.End()

	if _, err := service.users.Get(ctx, userID); err != nil {
		if _, ok := err.(*apperrors.NotFoundError); ok {
			return nil
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := service.users.Delete(ctx, userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	service.integrity.OnUserDeleted(ctx, userID)
	return nil
}

func (service *UserService) openSession(ctx context.Context, user *domain.User) (string, error) {
	token, err := authorization.GenerateToken(user)
	if err != nil {
		return "", err
	}
	if err := service.sessions.PostSession(ctx, token, user.ID.Hex()); err != nil {
		return "", err
	}
	return token, nil
}
