package liked

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
)

const (
	LikedStopsOrderKey  = "likedBusStopsOrder"
	LikedGroupsKey      = "likedBusGroups"
	LikedGroupsOrderKey = "likedBusGroupsOrder"
)

type BusGroup struct {
	IsArchived bool `json:"isArchived"`

	// BusStops maps a stop code to the liked service numbers at that stop
	BusStops map[string][]string `json:"busStops"`
}

func (g *BusGroup) Clone() *BusGroup {
	clone := &BusGroup{
		IsArchived: g.IsArchived,
		BusStops:   make(map[string][]string, len(g.BusStops)),
	}
	for stopCode, services := range g.BusStops {
		clone.BusStops[stopCode] = append([]string(nil), services...)
	}

	return clone
}

// Store persists liked collections. Every Set fully replaces the stored value,
// there is no atomicity across calls.
type Store interface {
	GetLikedStopOrder(ctx context.Context) ([]string, error)
	SetLikedStopOrder(ctx context.Context, order []string) error

	GetGroups(ctx context.Context) (map[string]*BusGroup, error)
	SetGroups(ctx context.Context, groups map[string]*BusGroup) error

	GetGroupOrder(ctx context.Context) ([]string, error)
	SetGroupOrder(ctx context.Context, order []string) error
}

// RedisStore keeps each value as a JSON string under its own key
type RedisStore struct {
	Cache *cache.Cache[string]
}

func NewRedisStore(client *redis.Client) *RedisStore {
	redisStore := redisstore.NewRedis(client)

	return &RedisStore{
		Cache: cache.New[string](redisStore),
	}
}

func (r *RedisStore) GetLikedStopOrder(ctx context.Context) ([]string, error) {
	order := []string{}
	err := r.get(ctx, LikedStopsOrderKey, &order)

	return order, err
}

func (r *RedisStore) SetLikedStopOrder(ctx context.Context, order []string) error {
	if order == nil {
		order = []string{}
	}
	return r.set(ctx, LikedStopsOrderKey, order)
}

func (r *RedisStore) GetGroups(ctx context.Context) (map[string]*BusGroup, error) {
	groups := map[string]*BusGroup{}
	err := r.get(ctx, LikedGroupsKey, &groups)

	for _, group := range groups {
		if group.BusStops == nil {
			group.BusStops = map[string][]string{}
		}
	}

	return groups, err
}

func (r *RedisStore) SetGroups(ctx context.Context, groups map[string]*BusGroup) error {
	if groups == nil {
		groups = map[string]*BusGroup{}
	}
	return r.set(ctx, LikedGroupsKey, groups)
}

func (r *RedisStore) GetGroupOrder(ctx context.Context) ([]string, error) {
	order := []string{}
	err := r.get(ctx, LikedGroupsOrderKey, &order)

	return order, err
}

func (r *RedisStore) SetGroupOrder(ctx context.Context, order []string) error {
	if order == nil {
		order = []string{}
	}
	return r.set(ctx, LikedGroupsOrderKey, order)
}

// get leaves value untouched when the key has never been written
func (r *RedisStore) get(ctx context.Context, key string, value any) error {
	stored, err := r.Cache.Get(ctx, key)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return &PersistenceError{Operation: "get", Key: key, Err: err}
	}

	if err := json.Unmarshal([]byte(stored), value); err != nil {
		return &PersistenceError{Operation: "get", Key: key, Err: fmt.Errorf("decode stored value: %w", err)}
	}

	return nil
}

func (r *RedisStore) set(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return &PersistenceError{Operation: "set", Key: key, Err: err}
	}

	if err := r.Cache.Set(ctx, key, string(encoded)); err != nil {
		return &PersistenceError{Operation: "set", Key: key, Err: err}
	}

	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}

	var notFound *store.NotFound
	return errors.Is(err, store.NotFound{}) || errors.As(err, &notFound) || errors.Is(err, redis.Nil)
}
