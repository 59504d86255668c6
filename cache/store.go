package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"financeapi.app/metrics"
)

const (
	defaultOpTimeout    = 250 * time.Millisecond
	defaultPingInterval = 15 * time.Second
	pingTimeout         = 2 * time.Second

	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// StoreConfig holds the Redis connection settings for the store adapter
type StoreConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// OpTimeout bounds every cache operation so a slow store cannot hold
	// up a request longer than a fraction of its budget
	OpTimeout time.Duration

	// PingInterval is how often the background monitor checks the connection
	PingInterval time.Duration
}

// KeyInfo is operator-facing metadata about a single cache entry
type KeyInfo struct {
	Key        string `json:"key"`
	Present    bool   `json:"present"`
	SizeBytes  int64  `json:"sizeBytes"`
	TTLSeconds int64  `json:"ttlSeconds"`
}

// Store adapts the process-wide Redis connection to the cache layer. Every
// operation fails open: a store that is down or slow turns reads into misses
// and writes into no-ops, it never turns them into request errors. Errors
// are logged and counted so operators still see them.
type Store struct {
	client       *redis.Client
	collector    *metrics.CacheCollector
	opTimeout    time.Duration
	pingInterval time.Duration
	healthy      atomic.Bool
	stop         chan struct{}
	closeOnce    sync.Once
}

// NewStore connects to Redis and starts the connection monitor. An
// unreachable store is not a constructor error: the adapter comes up
// unhealthy, serves every read as a miss, and recovers in the background.
func NewStore(config *StoreConfig, collector *metrics.CacheCollector) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	s := &Store{
		client:       client,
		collector:    collector,
		opTimeout:    config.OpTimeout,
		pingInterval: config.PingInterval,
		stop:         make(chan struct{}),
	}
	if s.opTimeout <= 0 {
		s.opTimeout = defaultOpTimeout
	}
	if s.pingInterval <= 0 {
		s.pingInterval = defaultPingInterval
	}

	if s.ping() {
		s.healthy.Store(true)
		slog.Info("Redis cache connected successfully", "addr", config.Addr)
	} else {
		slog.Warn("Redis cache unreachable at startup, serving fail-open", "addr", config.Addr)
	}

	go s.monitor()

	return s
}

// Healthy reports the monitor's last view of the connection
func (s *Store) Healthy() bool {
	return s.healthy.Load()
}

// Close stops the monitor and releases the connection
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		err = s.client.Close()
	})
	return err
}

// Get returns the cached bytes for key. Absence and store failure look the
// same to the caller: a miss, answered from the canonical store instead.
func (s *Store) Get(ctx context.Context, key Key) ([]byte, bool) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var data []byte
	var err error
	s.measureLatency("get", func() {
		data, err = s.client.Get(opCtx, string(key)).Bytes()
	})
	if err != nil {
		if err == redis.Nil {
			s.collector.RecordMiss()
			return nil, false
		}
		slog.Error("Redis get error", "error", err, "key", key)
		s.collector.RecordError()
		return nil, false
	}

	s.collector.RecordHit()
	return data, true
}

// Set stores value under key with the given expiry, best-effort. Entries
// must always carry a positive TTL; a write without one is dropped.
func (s *Store) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) {
	if len(value) == 0 {
		return
	}
	if ttl <= 0 {
		slog.Error("Redis set dropped: non-positive ttl", "key", key, "ttl", ttl)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var err error
	s.measureLatency("set", func() {
		err = s.client.Set(opCtx, string(key), value, ttl).Err()
	})
	if err != nil {
		slog.Error("Redis set error", "error", err, "key", key)
		s.collector.RecordError()
		return
	}

	s.collector.RecordSet()
}

// Delete removes key, best-effort. Deleting an absent key succeeds, which
// makes repeated invalidation idempotent.
func (s *Store) Delete(ctx context.Context, key Key) bool {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var err error
	s.measureLatency("delete", func() {
		err = s.client.Del(opCtx, string(key)).Err()
	})
	if err != nil {
		slog.Error("Redis delete error", "error", err, "key", key)
		s.collector.RecordError()
		return false
	}

	s.collector.RecordDelete()
	return true
}

// DeleteMany attempts every key even when some fail and returns the keys
// that could not be deleted. A failed delete leaves a stale entry bounded
// by its TTL, so the caller logs and moves on.
func (s *Store) DeleteMany(ctx context.Context, keys []Key) []Key {
	var failed []Key
	for _, key := range keys {
		if !s.Delete(ctx, key) {
			failed = append(failed, key)
		}
	}
	return failed
}

// Exists reports whether key is present; false on any store failure
func (s *Store) Exists(ctx context.Context, key Key) bool {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	n, err := s.client.Exists(opCtx, string(key)).Result()
	if err != nil {
		slog.Error("Redis exists error", "error", err, "key", key)
		s.collector.RecordError()
		return false
	}
	return n > 0
}

// Info returns operator metadata for a literal key string. The key does not
// have to come from the builder; operators probe raw keys when debugging.
func (s *Store) Info(ctx context.Context, key string) KeyInfo {
	info := KeyInfo{Key: key}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	pipe := s.client.Pipeline()
	existsCmd := pipe.Exists(opCtx, key)
	ttlCmd := pipe.TTL(opCtx, key)
	sizeCmd := pipe.StrLen(opCtx, key)
	if _, err := pipe.Exec(opCtx); err != nil {
		slog.Error("Redis info error", "error", err, "key", key)
		s.collector.RecordError()
		return info
	}

	if existsCmd.Val() == 0 {
		return info
	}
	info.Present = true
	info.SizeBytes = sizeCmd.Val()
	if ttl := ttlCmd.Val(); ttl > 0 {
		info.TTLSeconds = int64(ttl.Seconds())
	}
	return info
}

func (s *Store) measureLatency(operation string, fn func()) {
	start := time.Now()
	fn()
	s.collector.RecordLatency(operation, time.Since(start).Seconds())
}

func (s *Store) ping() bool {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return s.client.Ping(ctx).Err() == nil
}

// monitor watches the connection and drives reconnection. While the store
// is down the adapter keeps serving misses; nothing here blocks a request.
func (s *Store) monitor() {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		if s.ping() {
			if !s.healthy.Swap(true) {
				slog.Info("Redis cache connection restored")
			}
			continue
		}

		if s.healthy.Swap(false) {
			slog.Warn("Redis cache connection lost, reconnecting")
		}
		s.reconnect()
	}
}

// reconnect retries with exponential backoff until the store answers or the
// adapter is closed
func (s *Store) reconnect() {
	backoff := reconnectBase
	for {
		select {
		case <-s.stop:
			return
		case <-time.After(backoff):
		}

		if s.ping() {
			s.healthy.Store(true)
			slog.Info("Redis cache connection restored")
			return
		}

		slog.Warn("Redis cache reconnect failed", "backoff", backoff)
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}
