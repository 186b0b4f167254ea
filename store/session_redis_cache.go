package store

import (
	"context"
	"time"

	"github.com/go-redis/redis"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/domain"
)

const (
	sessionTTL = 60 * time.Minute
	// the redirect slot outlives the login attempt, not much more
	redirectTTL = 30 * time.Minute
)

type SessionRedisCache struct {
	client *redis.Client
	tracer trace.Tracer
}

func NewSessionRedisCache(client *redis.Client, tracer trace.Tracer) domain.SessionCache {
	return &SessionRedisCache{
		client: client,
		tracer: tracer,
	}
}

func (cache *SessionRedisCache) PostSession(ctx context.Context, token string, userID string) error {
	ctx, span := cache.tracer.Start(ctx, "SessionCache.PostSession")
	defer span.End()

	result := cache.client.Set("session:"+token, userID, sessionTTL)
	if result.Err() != nil {
		span.SetStatus(codes.Error, "Error posting session")
		return result.Err()
	}
	return nil
}

func (cache *SessionRedisCache) GetSession(ctx context.Context, token string) (string, error) {
	ctx, span := cache.tracer.Start(ctx, "SessionCache.GetSession")
	defer span.End()

	userID, err := cache.client.Get("session:" + token).Result()
	if err != nil {
		span.SetStatus(codes.Error, "Error getting session")
		return "", err
	}
	return userID, nil
}

func (cache *SessionRedisCache) DelSession(ctx context.Context, token string) error {
	ctx, span := cache.tracer.Start(ctx, "SessionCache.DelSession")
	defer span.End()

	result := cache.client.Del("session:" + token)
	if result.Err() != nil {
		span.SetStatus(codes.Error, "Error deleting session")
		return result.Err()
	}
	return nil
}

func (cache *SessionRedisCache) SetRedirect(ctx context.Context, sessionKey string, url string) error {
	ctx, span := cache.tracer.Start(ctx, "SessionCache.SetRedirect")
	defer span.End()

	// single slot, each unauthenticated attempt overwrites the last
	result := cache.client.Set("redirect:"+sessionKey, url, redirectTTL)
	if result.Err() != nil {
		span.SetStatus(codes.Error, "Error setting redirect slot")
		return result.Err()
	}
	return nil
}

func (cache *SessionRedisCache) ConsumeRedirect(ctx context.Context, sessionKey string) (string, error) {
	ctx, span := cache.tracer.Start(ctx, "SessionCache.ConsumeRedirect")
	defer span.End()

	key := "redirect:" + sessionKey
	url, err := cache.client.Get(key).Result()
	if err != nil {
		return "", err
	}
	cache.client.Del(key)
	return url, nil
}
