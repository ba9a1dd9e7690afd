// Package directory resolves opaque author ids to display identity
// (name, initial glyph, avatar color), memoized per id.
//
// The cache is owned by bootstrap and injected into whatever needs it;
// there is no package-level singleton. Entries are cheap and monotonically
// added, bounded by the number of distinct authors ever seen in-session,
// so nothing ever expires.
package directory

import (
	"context"
	"errors"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/clubboard/clubboard/internal/app/system/timeouts"
	"github.com/clubboard/clubboard/internal/domain/models"
	gocache "github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Identity is the display identity of an author.
type Identity struct {
	Name    string `json:"name"`
	Initial string `json:"initial"`
	Color   string `json:"color"`
	Unknown bool   `json:"unknown,omitempty"`
}

// palette must stay fixed: avatar color is a pure function of the initial,
// so the same author renders the same color everywhere, forever.
var palette = [...]string{
	"red", "blue", "emerald", "purple", "amber", "indigo", "pink",
}

// AvatarColor derives the avatar color from the initial glyph: first rune's
// code point modulo the palette size. No randomness, no persisted state.
func AvatarColor(initial string) string {
	if initial == "" {
		return palette[0]
	}
	r, _ := utf8.DecodeRuneInString(initial)
	return palette[int(r)%len(palette)]
}

// Unknown is the sentinel identity used when resolution fails or the author
// no longer exists.
func Unknown() Identity {
	return Identity{Name: "Unknown", Initial: "?", Color: AvatarColor("?"), Unknown: true}
}

// UserGetter is the slice of the user store the cache needs.
type UserGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// Cache memoizes author identity per principal id. A lookup happens at most
// once per id per cache lifetime: failures cache the Unknown sentinel
// permanently instead of retrying, so a missing author shared by many posts
// cannot cause a retry storm.
type Cache struct {
	users UserGetter
	log   *zap.Logger

	mem *gocache.Cache // id hex -> Identity

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// NewCache creates an empty directory cache over the given user store.
func NewCache(users UserGetter, logger *zap.Logger) *Cache {
	return &Cache{
		users:    users,
		log:      logger,
		mem:      gocache.New(gocache.NoExpiration, 0),
		inflight: make(map[string]chan struct{}),
	}
}

// Resolve returns the display identity for an author id. Concurrent calls
// for the same uncached id share a single underlying lookup.
func (c *Cache) Resolve(ctx context.Context, id primitive.ObjectID) Identity {
	key := id.Hex()

	if v, ok := c.mem.Get(key); ok {
		return v.(Identity)
	}

	c.mu.Lock()
	if v, ok := c.mem.Get(key); ok {
		c.mu.Unlock()
		return v.(Identity)
	}
	wait, loading := c.inflight[key]
	if loading {
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return Unknown()
		}
		if v, ok := c.mem.Get(key); ok {
			return v.(Identity)
		}
		return Unknown()
	}
	done := make(chan struct{})
	c.inflight[key] = done
	c.mu.Unlock()

	ident, cache := c.lookup(ctx, id)

	c.mu.Lock()
	if cache {
		c.mem.Set(key, ident, gocache.NoExpiration)
	}
	delete(c.inflight, key)
	c.mu.Unlock()
	close(done)

	return ident
}

// Warm resolves ids in the background. The feed synchronizer calls this for
// authors it has not seen before, so identity is usually cached by the time
// a row renders. Best effort; errors degrade to the sentinel as usual.
func (c *Cache) Warm(ctx context.Context, ids []primitive.ObjectID) {
	for _, id := range ids {
		id := id
		go c.Resolve(ctx, id)
	}
}

// lookup fetches one identity. The second return reports whether the result
// is a verdict worth caching: a lookup cut short by context cancellation or
// deadline is the caller going away, not a statement about the author, so
// the id stays uncached and the next caller retries.
func (c *Cache) lookup(ctx context.Context, id primitive.ObjectID) (Identity, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := c.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Unknown(), false
		}
		// One attempt only; the sentinel is cached permanently.
		c.log.Debug("author lookup failed, caching sentinel",
			zap.String("author_id", id.Hex()), zap.Error(err))
		return Unknown(), true
	}

	name := u.FullName
	if name == "" {
		name = u.Email
	}
	if name == "" {
		return Unknown(), true
	}

	initial := firstGlyph(name)
	return Identity{Name: name, Initial: initial, Color: AvatarColor(initial)}, true
}

func firstGlyph(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
