// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	commentstore "github.com/clubboard/clubboard/internal/app/store/comments"
	"github.com/clubboard/clubboard/internal/app/store/oauthstate"
	poststore "github.com/clubboard/clubboard/internal/app/store/posts"
	userstore "github.com/clubboard/clubboard/internal/app/store/users"
	"github.com/clubboard/clubboard/internal/app/system/timeouts"
)

// ConnectDB opens the MongoDB and Redis connections. A dead Mongo aborts
// startup; a dead Redis does too, because every live feed depends on it and
// starting without it would silently serve frozen boards.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	cctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("ping mongodb: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	rdb := redis.NewClient(&redis.Options{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
	})
	if err := rdb.Ping(cctx).Err(); err != nil {
		_ = client.Disconnect(ctx)
		_ = rdb.Close()
		return DBDeps{}, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Redis:         rdb,
	}, nil
}

// EnsureSchema creates the indexes every store depends on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	sctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	db := deps.MongoDatabase

	if err := poststore.New(db).EnsureIndexes(sctx); err != nil {
		return fmt.Errorf("ensure post indexes: %w", err)
	}
	if err := commentstore.New(db).EnsureIndexes(sctx); err != nil {
		return fmt.Errorf("ensure comment indexes: %w", err)
	}
	if err := userstore.New(db).EnsureIndexes(sctx); err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}
	if err := oauthstate.New(db).EnsureIndexes(sctx); err != nil {
		return fmt.Errorf("ensure oauth state indexes: %w", err)
	}

	logger.Info("database indexes ensured")
	return nil
}
