package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go-event-ticketing/internal/model"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("availability not cached")

// AvailabilityCache is a read-side cache of per-event seat availability.
// The database row is the source of truth; entries expire and are
// invalidated after every booking or cancellation commit, so a stale read
// can only last one TTL and never feeds the booking transaction itself.
type AvailabilityCache interface {
	Get(ctx context.Context, eventID int) (*model.Availability, error)
	Set(ctx context.Context, eventID int, capacity int, ticketsBooked int) error
	Invalidate(ctx context.Context, eventID int) error
}

type RedisAvailabilityCacheImpl struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) AvailabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisAvailabilityCacheImpl{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisAvailabilityCacheImpl) getKey(eventID int) string {
	return fmt.Sprintf("event:%d:availability", eventID)
}

func (c *RedisAvailabilityCacheImpl) Get(ctx context.Context, eventID int) (*model.Availability, error) {
	key := c.getKey(eventID)
	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	// HGetAll returns an empty map for a missing key
	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	capacity, err := strconv.Atoi(result["capacity"])
	if err != nil {
		return nil, fmt.Errorf("invalid capacity: %v", err)
	}

	booked, err := strconv.Atoi(result["booked"])
	if err != nil {
		return nil, fmt.Errorf("invalid booked: %v", err)
	}

	return &model.Availability{
		EventID:        eventID,
		Capacity:       capacity,
		TicketsBooked:  booked,
		AvailableSeats: capacity - booked,
	}, nil
}

func (c *RedisAvailabilityCacheImpl) Set(ctx context.Context, eventID int, capacity int, ticketsBooked int) error {
	key := c.getKey(eventID)
	if err := c.client.HSet(ctx, key, map[string]interface{}{
		"capacity": capacity,
		"booked":   ticketsBooked,
	}).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *RedisAvailabilityCacheImpl) Invalidate(ctx context.Context, eventID int) error {
	return c.client.Del(ctx, c.getKey(eventID)).Err()
}
