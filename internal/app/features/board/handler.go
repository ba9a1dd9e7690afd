// Package board is the announcement board feature: the JSON feed and
// comment endpoints plus their live websocket streams. All mutations go
// through the gateway; handlers only translate HTTP to gateway calls and
// compose role-gated views of the results.
package board

import (
	"go.uber.org/zap"

	"github.com/clubboard/clubboard/internal/app/directory"
	"github.com/clubboard/clubboard/internal/app/feedsync"
	"github.com/clubboard/clubboard/internal/app/gateway"
	"github.com/clubboard/clubboard/internal/app/signal"
	commentstore "github.com/clubboard/clubboard/internal/app/store/comments"
	poststore "github.com/clubboard/clubboard/internal/app/store/posts"
)

// Handler owns all board handlers.
type Handler struct {
	Posts    *poststore.Store
	Comments *commentstore.Store
	Gateway  *gateway.Gateway
	Dir      *directory.Cache
	Feed     *feedsync.FeedSynchronizer
	Bus      *signal.Bus
	Log      *zap.Logger
}

// NewHandler constructs a board Handler.
func NewHandler(posts *poststore.Store, comments *commentstore.Store, gw *gateway.Gateway, dir *directory.Cache, feed *feedsync.FeedSynchronizer, bus *signal.Bus, logger *zap.Logger) *Handler {
	return &Handler{
		Posts:    posts,
		Comments: comments,
		Gateway:  gw,
		Dir:      dir,
		Feed:     feed,
		Bus:      bus,
		Log:      logger,
	}
}
