package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalogd/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Product caching
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error
	DeleteProduct(ctx context.Context, productID int64) error

	// MarkAdjustmentApplied records a processed message id. It returns false
	// when the id was already recorded, which lets the listener skip duplicate
	// deliveries of the same order event.
	MarkAdjustmentApplied(ctx context.Context, messageID string, ttl time.Duration) (bool, error)
	DeleteAdjustmentMarker(ctx context.Context, messageID string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	key := fmt.Sprintf("catalog:product:%d", productID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *redisCacheService) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	key := fmt.Sprintf("catalog:product:%d", product.ID)
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteProduct(ctx context.Context, productID int64) error {
	key := fmt.Sprintf("catalog:product:%d", productID)
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) MarkAdjustmentApplied(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("catalog:adjustment:%s", messageID)
	return r.client.SetNX(ctx, key, 1, ttl).Result()
}

func (r *redisCacheService) DeleteAdjustmentMarker(ctx context.Context, messageID string) error {
	key := fmt.Sprintf("catalog:adjustment:%s", messageID)
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
