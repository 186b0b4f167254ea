package startup

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casbin/casbin"
	"github.com/go-redis/redis"
	"github.com/gorilla/mux"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/cache"
	"github.com/swastisunder/Nivaas/casbinAuthorization"
	"github.com/swastisunder/Nivaas/domain"
	"github.com/swastisunder/Nivaas/handlers"
	application "github.com/swastisunder/Nivaas/service"
	"github.com/swastisunder/Nivaas/startup/config"
	"github.com/swastisunder/Nivaas/storage"
	"github.com/swastisunder/Nivaas/store"
)

type Server struct {
	config *config.Config
}

var Logger = logrus.New()

const (
	LogFilePath = "/app/logs/nivaas.log"
)

type CustomFormatter struct{}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Data["id"] = generateUniqueID()

	msg := fmt.Sprintf("[%s] [%s] [%s] %s\n",
		entry.Time.Format("2006-01-02T15:04:05Z07:00"),
		entry.Level,
		entry.Data["id"],
		entry.Message,
	)

	return []byte(msg), nil
}

func generateUniqueID() string {
	return fmt.Sprintf("ID-%d", time.Now().UnixNano())
}

func initLogger() {
	writer, err := rotatelogs.New(
		LogFilePath+"_%Y%m%d%H%M",
		rotatelogs.WithRotationTime(3*time.Minute),
	)
	if err != nil {
		Logger.Fatalf("Failed to create rotatelogs hook: %v", err)
	}
	Logger.SetOutput(writer)

	Logger.SetFormatter(&CustomFormatter{})
}

func NewServer(config *config.Config) *Server {
	return &Server{
		config: config,
	}
}

func (server *Server) Start() {

	initLogger()

	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     10,
		},
	}

	mongoClient := server.initMongoClient(httpClient)
	defer func(mongoClient *mongo.Client, ctx context.Context) {
		err := mongoClient.Disconnect(ctx)
		if err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}(mongoClient, context.Background())

	ctx := context.Background()
	exp, err := newExporter(server.config.JaegerAddress)
	if err != nil {
		log.Fatalf("Failed to Initialize Exporter: %v", err)
	}

	tp := newTraceProvider(exp)
	defer func() { _ = tp.Shutdown(ctx) }()
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer("nivaas_service")
	otel.SetTextMapPropagator(propagation.TraceContext{})

	sessionRedis := server.initRedisClient(server.config.SessionCacheHost, server.config.SessionCachePort)
	imageRedis := server.initRedisClient(server.config.ImageCacheHost, server.config.ImageCachePort)

	userStore := server.initUserStore(mongoClient, tracer)
	listingStore := server.initListingStore(mongoClient, tracer)
	reviewStore := server.initReviewStore(mongoClient, tracer)
	bookingStore := server.initBookingStore(mongoClient, tracer)
	sessionCache := server.initSessionCache(sessionRedis, tracer)

	imageStorage := server.initImageStorage(tracer)
	defer imageStorage.Close()
	imageCache := cache.New(imageRedis, Logger, tracer)
	imageCache.Ping()

	mailer := application.NewMailer(Logger)
	integrityService := application.NewIntegrityService(listingStore, reviewStore, bookingStore, tracer, Logger)
	userService := application.NewUserService(userStore, sessionCache, integrityService, mailer, tracer, Logger)
	listingService := application.NewListingService(listingStore, reviewStore, userStore, integrityService, tracer, Logger)
	reviewService := application.NewReviewService(reviewStore, listingStore, integrityService, tracer, Logger)
	bookingService := application.NewBookingService(bookingStore, listingStore, userStore, mailer, tracer, Logger)

	auth := handlers.NewAuthMiddleware(sessionCache, listingStore, reviewStore, tracer)
	userHandler := handlers.NewUserHandler(userService, bookingService, auth, tracer)
	listingHandler := handlers.NewListingHandler(listingService, imageStorage, imageCache, auth, tracer)
	reviewHandler := handlers.NewReviewHandler(reviewService, auth, tracer)
	bookingHandler := handlers.NewBookingHandler(bookingService, auth, tracer)

	server.start(userHandler, listingHandler, reviewHandler, bookingHandler)
}

func (server *Server) initMongoClient(httpClient *http.Client) *mongo.Client {
	client, err := store.GetClientWithHTTPConfig(server.config.ListingDBHost, server.config.ListingDBPort, httpClient)
	if err != nil {
		log.Fatal(err)
	}
	return client
}

func (server *Server) initRedisClient(host, port string) *redis.Client {
	client, err := store.GetRedisClient(host, port)
	if err != nil {
		log.Fatal(err)
	}
	return client
}

func (server *Server) initUserStore(client *mongo.Client, tracer trace.Tracer) domain.UserStore {
	return store.NewUserMongoDBStore(client, tracer)
}

func (server *Server) initListingStore(client *mongo.Client, tracer trace.Tracer) domain.ListingStore {
	return store.NewListingMongoDBStore(client, tracer)
}

func (server *Server) initReviewStore(client *mongo.Client, tracer trace.Tracer) domain.ReviewStore {
	return store.NewReviewMongoDBStore(client, tracer)
}

func (server *Server) initBookingStore(client *mongo.Client, tracer trace.Tracer) domain.BookingStore {
	return store.NewBookingMongoDBStore(client, tracer)
}

func (server *Server) initSessionCache(client *redis.Client, tracer trace.Tracer) domain.SessionCache {
	return store.NewSessionRedisCache(client, tracer)
}

func (server *Server) initImageStorage(tracer trace.Tracer) *storage.ImageStorage {
	imageStorage, err := storage.New(server.config.HDFSUri, server.config.ImageBaseURL, Logger, tracer)
	if err != nil {
		log.Fatal(err)
	}
	if err := imageStorage.CreateDirectoriesStart(); err != nil {
		log.Printf("Error creating storage directories: %v", err)
	}
	return imageStorage
}

func (server *Server) start(userHandler *handlers.UserHandler, listingHandler *handlers.ListingHandler, reviewHandler *handlers.ReviewHandler, bookingHandler *handlers.BookingHandler) {
	enforcer, err := casbin.NewEnforcerSafe("./rbac_model.conf", "./policy.csv")
	if err != nil {
		log.Fatal(err)
	}

	router := mux.NewRouter()
	router.Use(handlers.MiddlewareContentTypeSet)
	router.Use(handlers.ExtractTraceInfoMiddleware)

	userHandler.Init(router)
	listingHandler.Init(router)
	reviewHandler.Init(router)
	bookingHandler.Init(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", server.config.Port),
		Handler: casbinAuthorization.CasbinMiddleware(enforcer)(router),
	}

	wait := time.Second * 15
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Println(err)
		}
	}()

	c := make(chan os.Signal, 1)

	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	<-c

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Error Shutting Down Server %s", err)
	}
	log.Println("Server Gracefully Stopped")
}

func newExporter(address string) (*jaeger.Exporter, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(address)))
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func newTraceProvider(exp sdktrace.SpanExporter) *sdktrace.TracerProvider {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("nivaas_service"),
		),
	)

	if err != nil {
		panic(err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(r),
	)
}
