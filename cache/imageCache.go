package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sirupsen/logrus"
)

type ImageCache struct {
	cli    *redis.Client
	logger *logrus.Logger
	tracer trace.Tracer
}

// Construct Redis-backed cache in front of the image storage
func New(client *redis.Client, logger *logrus.Logger, tracer trace.Tracer) *ImageCache {
	return &ImageCache{
		cli:    client,
		logger: logger,
		tracer: tracer,
	}
}

// Check connection function
func (pc *ImageCache) Ping() {
	val, _ := pc.cli.Ping().Result()
	pc.logger.Println(val)
}

// Set key-value pair with default expiration
func (pc *ImageCache) Post(ctx context.Context, fileName string, image []byte) error {
	ctx, span := pc.tracer.Start(ctx, "ImageCache.Post")
	defer span.End()

	err := pc.cli.Set(constructKey(fileName), image, 30*time.Minute).Err()
	if err == nil {
		pc.logger.Println("Cache hit - set image")
	}
	return err
}

// Get value by key
func (pc *ImageCache) Get(ctx context.Context, fileName string) ([]byte, error) {
	ctx, span := pc.tracer.Start(ctx, "ImageCache.Get")
	defer span.End()

	value, err := pc.cli.Get(constructKey(fileName)).Bytes()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	pc.logger.Println("Cache hit - get image")
	return value, nil
}

// Drop the cached copy once the asset is destroyed
func (pc *ImageCache) Del(ctx context.Context, fileName string) error {
	ctx, span := pc.tracer.Start(ctx, "ImageCache.Del")
	defer span.End()

	return pc.cli.Del(constructKey(fileName)).Err()
}

func constructKey(fileName string) string {
	return fmt.Sprintf("image:%s", fileName)
}
