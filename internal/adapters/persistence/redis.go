package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
)

// RedisCommands is the minimal client surface the gateway needs.
// *redis.Client satisfies it; tests may substitute a fake.
type RedisCommands interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Close() error
}

// RedisGateway stores the two documents under two keys.
type RedisGateway struct {
	client    RedisCommands
	keyPrefix string
}

// NewRedisGateway wraps an established client. keyPrefix namespaces the
// documents, e.g. "milestones" -> "milestones:progress".
func NewRedisGateway(client RedisCommands, keyPrefix string) *RedisGateway {
	if keyPrefix == "" {
		keyPrefix = "milestones"
	}
	return &RedisGateway{client: client, keyPrefix: keyPrefix}
}

func (g *RedisGateway) progressKey() string   { return g.keyPrefix + ":progress" }
func (g *RedisGateway) milestonesKey() string { return g.keyPrefix + ":milestones" }

// Save implements Gateway.
func (g *RedisGateway) Save(ctx context.Context, snap *Snapshot) error {
	type progressDoc struct {
		Progress map[string]*model.ArtistProgress `json:"progress"`
		SavedAt  int64                            `json:"saved_at"`
	}
	progressData, err := json.Marshal(progressDoc{Progress: snap.Progress, SavedAt: snap.SavedAt})
	if err != nil {
		return fmt.Errorf("encoding progress document: %w", err)
	}
	milestoneData, err := json.Marshal(snap.Milestones)
	if err != nil {
		return fmt.Errorf("encoding milestone document: %w", err)
	}
	if err := g.client.Set(ctx, g.progressKey(), progressData, 0).Err(); err != nil {
		return fmt.Errorf("storing progress document: %w", err)
	}
	if err := g.client.Set(ctx, g.milestonesKey(), milestoneData, 0).Err(); err != nil {
		return fmt.Errorf("storing milestone document: %w", err)
	}
	return nil
}

// Load implements Gateway.
func (g *RedisGateway) Load(ctx context.Context) (*Snapshot, error) {
	progressData, err := g.client.Get(ctx, g.progressKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("fetching progress document: %w", err)
	}

	var doc struct {
		Progress map[string]*model.ArtistProgress `json:"progress"`
		SavedAt  int64                            `json:"saved_at"`
	}
	if err := json.Unmarshal(progressData, &doc); err != nil {
		return nil, fmt.Errorf("decoding progress document: %w", err)
	}
	snap := &Snapshot{Progress: doc.Progress, SavedAt: doc.SavedAt}

	milestoneData, err := g.client.Get(ctx, g.milestonesKey()).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("fetching milestone document: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(milestoneData, &snap.Milestones); err != nil {
			return nil, fmt.Errorf("decoding milestone document: %w", err)
		}
	}
	return snap, nil
}

// Close implements Gateway.
func (g *RedisGateway) Close() error {
	return g.client.Close()
}
