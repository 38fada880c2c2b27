package app

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/bubbletime/internal/config"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
	"github.com/MrSnakeDoc/bubbletime/internal/store"
	"github.com/MrSnakeDoc/bubbletime/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/bubbletime/internal/store/redis"
	"github.com/MrSnakeDoc/bubbletime/internal/store/sqlite"
)

// openStore builds the repository selected by cfg.Store. Redis is reached
// with retries; a store that cannot be opened fails startup.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Repository, error) {
	switch cfg.Store {
	case store.KindMemory:
		log.Warn("using in-memory store, state is lost on restart")
		return memory.New(), nil

	case store.KindSQLite:
		log.Info("opening sqlite store", logger.String("path", cfg.SQLitePath))
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, nil

	case store.KindRedis:
		client, err := redisstore.Connect(ctx, redisOptions(cfg), log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.NewStore(client), nil

	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func redisOptions(cfg *config.Config) redisstore.ConnectOptions {
	return redisstore.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}
}
