package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BX-Coding/scratch-storage/interfaces"
)

// RedisSource implements an asset source backed by Redis. Payloads are stored
// as raw byte values under "{prefix}:{id}.{format}" keys, optionally expiring
// after a configured TTL. A Redis source usually sits at high priority in
// front of slower object stores.
type RedisSource struct {
	client      *redis.Client
	prefix      string
	ttl         time.Duration
	log         *slog.Logger
	locationURI string
}

// NewRedisSource creates an asset source on an existing Redis connection
// configuration. A zero ttl stores payloads without expiry.
func NewRedisSource(opts *redis.Options, prefix string, ttl time.Duration, log *slog.Logger) *RedisSource {
	if prefix == "" {
		prefix = "assets"
	}
	return &RedisSource{
		client:      redis.NewClient(opts),
		prefix:      prefix,
		ttl:         ttl,
		log:         log,
		locationURI: fmt.Sprintf("redis://%s/%d?prefix=%s", opts.Addr, opts.DB, prefix),
	}
}

// Get retrieves a payload by key.
// Returns ErrAssetNotFound when the key is absent or expired.
func (s *RedisSource) Get(ctx context.Context, id interfaces.AssetID, format interfaces.DataFormat) ([]byte, error) {
	start := time.Now()
	key := s.key(id, format)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.log.Debug("Asset not found in redis",
				slog.String("key", key),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrAssetNotFound
		}

		s.log.Error("Failed to get asset from redis",
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to get asset from redis: %w", err)
	}

	s.log.Debug("Fetched asset from redis",
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Create stores a payload under a new key, deriving the id from the payload
// when the request carries none.
func (s *RedisSource) Create(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	id := req.ID
	if id.Empty() {
		id = interfaces.ComputeAssetID(req.Data)
	}

	if err := s.put(ctx, id, req.Format, req.Data); err != nil {
		return nil, err
	}
	return &interfaces.StoreResult{ID: id, Status: "created"}, nil
}

// Update overwrites the payload under an existing key.
func (s *RedisSource) Update(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	if req.ID.Empty() {
		return nil, fmt.Errorf("update requires an asset id")
	}

	if err := s.put(ctx, req.ID, req.Format, req.Data); err != nil {
		return nil, err
	}
	return &interfaces.StoreResult{ID: req.ID, Status: "updated"}, nil
}

func (s *RedisSource) put(ctx context.Context, id interfaces.AssetID, format interfaces.DataFormat, data []byte) error {
	key := s.key(id, format)

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Error("Failed to store asset in redis",
			slog.String("key", key),
			"err", err)
		return fmt.Errorf("failed to store asset in redis: %w", err)
	}

	s.log.Debug("Stored asset in redis",
		slog.String("key", key),
		slog.Int("size", len(data)))

	return nil
}

// Capabilities reports full read/write support.
func (s *RedisSource) Capabilities() interfaces.SourceCapabilities {
	return interfaces.CapReadWrite
}

// Available checks connectivity with a ping.
func (s *RedisSource) Available(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.Ping(pingCtx).Err(); err != nil {
		s.log.Debug("Redis source unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this source.
func (s *RedisSource) Name() string {
	return fmt.Sprintf("redis-%s", s.prefix)
}

// LocationURI returns the URI that identifies this source.
func (s *RedisSource) LocationURI() string {
	return s.locationURI
}

// Close releases the underlying connection pool.
func (s *RedisSource) Close() error {
	return s.client.Close()
}

func (s *RedisSource) key(id interfaces.AssetID, format interfaces.DataFormat) string {
	return fmt.Sprintf("%s:%s", s.prefix, objectKey(id, format))
}
