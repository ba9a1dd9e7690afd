package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clubboard/clubboard/internal/app/signal"
)

// SetupTestBus starts an in-process Redis and returns a signal bus on it.
// Both are torn down with the test. The miniredis handle is returned so
// tests can kill the server to exercise failure paths.
func SetupTestBus(t *testing.T) (*signal.Bus, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return signal.NewBus(rdb, zap.NewNop()), mr
}
