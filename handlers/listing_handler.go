package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mitchellh/mapstructure"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/authorization"
	"github.com/swastisunder/Nivaas/cache"
	"github.com/swastisunder/Nivaas/domain"
	apperrors "github.com/swastisunder/Nivaas/errors"
	application "github.com/swastisunder/Nivaas/service"
	"github.com/swastisunder/Nivaas/storage"
)

const maxImageSize = 10 << 20

type ListingHandler struct {
	service *application.ListingService
	storage *storage.ImageStorage
	cache   *cache.ImageCache
	auth    *AuthMiddleware
	tracer  trace.Tracer
	cb      *gobreaker.CircuitBreaker
}

func NewListingHandler(service *application.ListingService, imageStorage *storage.ImageStorage, imageCache *cache.ImageCache, auth *AuthMiddleware, tracer trace.Tracer) *ListingHandler {
	return &ListingHandler{
		service: service,
		storage: imageStorage,
		cache:   imageCache,
		auth:    auth,
		tracer:  tracer,
		cb:      CircuitBreaker("imageStorage"),
	}
}

func (handler *ListingHandler) Init(router *mux.Router) {
	router.HandleFunc("/listings", handler.GetAll).Methods("GET")
	router.HandleFunc("/listings", handler.auth.RequireLogin(handler.Create)).Methods("POST")
	router.HandleFunc("/listings/categories", handler.Categories).Methods("GET")
	router.HandleFunc("/listings/{id}", handler.Get).Methods("GET")
	router.HandleFunc("/listings/{id}", handler.auth.RequireLogin(handler.auth.RequireListingOwner(handler.Update))).Methods("PATCH")
	router.HandleFunc("/listings/{id}", handler.auth.RequireLogin(handler.auth.RequireListingOwner(handler.Delete))).Methods("DELETE")
	router.HandleFunc("/images/{fileName}", handler.GetImage).Methods("GET")
}

func (handler *ListingHandler) GetAll(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.GetAll")
	defer span.End()

	filter := domain.ListingFilter{
		Category: req.URL.Query().Get("category"),
		Search:   req.URL.Query().Get("search"),
	}

	listings, err := handler.service.GetAll(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	jsonResponse(listings, writer)
}

func (handler *ListingHandler) Categories(writer http.ResponseWriter, req *http.Request) {
	_, span := handler.tracer.Start(req.Context(), "ListingHandler.Categories")
	defer span.End()

	jsonResponse(domain.Categories, writer)
}

func (handler *ListingHandler) Get(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.Get")
	defer span.End()

	vars := mux.Vars(req)
	id, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeError(&apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}, writer)
		return
	}

	listing, err := handler.service.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	jsonResponse(listing, writer)
}

func (handler *ListingHandler) Create(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.Create")
	defer span.End()

	claims := ctx.Value(KeyClaims{}).(*authorization.Claims)

	payload, err := listingForm(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	image, err := handler.uploadImage(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	listing, err := handler.service.Create(ctx, claims.UserID, payload, image)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	writer.WriteHeader(http.StatusCreated)
	jsonResponse(listing, writer)
}

// Update is a partial edit: absent form fields keep their stored value.
// A new image replaces the old one in storage.
func (handler *ListingHandler) Update(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.Update")
	defer span.End()

	vars := mux.Vars(req)
	id, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeError(&apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}, writer)
		return
	}

	current, err := handler.service.GetListing(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	payload, err := mergedListingForm(req, current)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	image, err := handler.uploadImage(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}
	if image != nil && current.Image.FileName != "" {
		if err := handler.storage.Destroy(ctx, current.Image.FileName); err != nil {
			log.Println("error destroying replaced image:", err)
		}
		if err := handler.cache.Del(ctx, current.Image.FileName); err != nil {
			log.Println("error evicting replaced image:", err)
		}
	}

	listing, err := handler.service.Update(ctx, id, payload, image)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	jsonResponse(listing, writer)
}

func (handler *ListingHandler) Delete(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.Delete")
	defer span.End()

	vars := mux.Vars(req)
	id, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeError(&apperrors.NotFoundError{Message: apperrors.ListingNotFound, Redirect: "/listings"}, writer)
		return
	}

	listing, err := handler.service.GetListing(ctx, id)
	if err == nil && listing.Image.FileName != "" {
		if err := handler.storage.Destroy(ctx, listing.Image.FileName); err != nil {
			log.Println("error destroying listing image:", err)
		}
		if err := handler.cache.Del(ctx, listing.Image.FileName); err != nil {
			log.Println("error evicting listing image:", err)
		}
	}

	if err := handler.service.Delete(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(err, writer)
		return
	}

	jsonResponse(errorResponse{Message: "Listing deleted", Redirect: "/listings"}, writer)
}

// GetImage serves the listing image, preferring the cache and falling
// back to storage behind the circuit breaker.
func (handler *ListingHandler) GetImage(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ListingHandler.GetImage")
	defer span.End()

	vars := mux.Vars(req)
	fileName := vars["fileName"]

	if data, err := handler.cache.Get(ctx, fileName); err == nil {
		writer.Header().Set("Content-Type", "image/jpeg")
		writer.Write(data)
		return
	}

	result, err := handler.cb.Execute(func() (interface{}, error) {
		return handler.storage.Get(ctx, fileName)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(&apperrors.NotFoundError{Message: apperrors.SomethingWrong, Redirect: "/listings"}, writer)
		return
	}

	data := result.([]byte)
	if err := handler.cache.Post(ctx, fileName, data); err != nil {
		log.Println("error caching image:", err)
	}

	writer.Header().Set("Content-Type", "image/jpeg")
	writer.Write(data)
}

// uploadImage pulls the optional image part from the multipart form and
// pushes it to storage behind the circuit breaker. Nil when no image was
// submitted.
func (handler *ListingHandler) uploadImage(ctx context.Context, req *http.Request) (*domain.Image, error) {
	file, _, err := req.FormFile("image")
	if err != nil {
		// no image part in the form
		return nil, nil
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		return nil, err
	}

	result, err := handler.cb.Execute(func() (interface{}, error) {
		return handler.storage.Upload(ctx, content)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Image), nil
}

// listingForm decodes the multipart submission into a payload. Values
// arrive as form strings, so decoding is weakly typed.
func listingForm(req *http.Request) (*domain.ListingPayload, error) {
	if err := req.ParseMultipartForm(maxImageSize); err != nil {
		return nil, err
	}

	fields := formFields(req)

	var payload domain.ListingPayload
	if err := decodeForm(fields, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// mergedListingForm overlays the submitted fields on the stored listing,
// so a partial edit never blanks what it does not mention.
func mergedListingForm(req *http.Request, current *domain.Listing) (*domain.ListingPayload, error) {
	if err := req.ParseMultipartForm(maxImageSize); err != nil {
		return nil, err
	}

	payload := &domain.ListingPayload{
		Title:       current.Title,
		Description: current.Description,
		Price:       current.Price,
		Location:    current.Location,
		Country:     current.Country,
		Categories:  current.Categories,
	}

	if err := decodeForm(formFields(req), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func formFields(req *http.Request) map[string]interface{} {
	fields := map[string]interface{}{}
	for _, name := range []string{"title", "description", "location", "country"} {
		if values, ok := req.MultipartForm.Value[name]; ok && len(values) > 0 {
			fields[name] = values[0]
		}
	}
	if values, ok := req.MultipartForm.Value["price"]; ok && len(values) > 0 {
		if price, err := strconv.Atoi(values[0]); err == nil {
			fields["price"] = price
		}
	}
	if values, ok := req.MultipartForm.Value["categories"]; ok {
		fields["categories"] = values
	}
	return fields
}

func decodeForm(fields map[string]interface{}, payload *domain.ListingPayload) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           payload,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(fields)
}
