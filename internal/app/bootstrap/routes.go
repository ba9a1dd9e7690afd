// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/clubboard/clubboard/internal/app/directory"
	authgooglefeature "github.com/clubboard/clubboard/internal/app/features/authgoogle"
	boardfeature "github.com/clubboard/clubboard/internal/app/features/board"
	healthfeature "github.com/clubboard/clubboard/internal/app/features/health"
	loginfeature "github.com/clubboard/clubboard/internal/app/features/login"
	logoutfeature "github.com/clubboard/clubboard/internal/app/features/logout"
	"github.com/clubboard/clubboard/internal/app/feedsync"
	"github.com/clubboard/clubboard/internal/app/gateway"
	"github.com/clubboard/clubboard/internal/app/signal"
	commentstore "github.com/clubboard/clubboard/internal/app/store/comments"
	"github.com/clubboard/clubboard/internal/app/store/oauthstate"
	poststore "github.com/clubboard/clubboard/internal/app/store/posts"
	userstore "github.com/clubboard/clubboard/internal/app/store/users"
	"github.com/clubboard/clubboard/internal/app/system/auth"
)

// BuildHandler constructs the root HTTP handler. WAFFLE calls this after
// config, DB connections, schema setup, and Startup have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user fetch per request so disabled accounts and renames take
	// effect without waiting for the cookie to expire.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	posts := poststore.New(deps.MongoDatabase)
	comments := commentstore.New(deps.MongoDatabase)
	users := userstore.New(deps.MongoDatabase)
	states := oauthstate.New(deps.MongoDatabase)

	bus := signal.NewBus(deps.Redis, logger)
	dir := directory.NewCache(users, logger)
	gw := gateway.New(deps.MongoClient, posts, comments, bus, logger)
	feed := feedsync.NewFeedSynchronizer(posts, bus, dir, logger)

	r := chi.NewRouter()

	// Loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	loginHandler := loginfeature.NewHandler(users, sessionMgr, logger)
	r.Mount("/auth/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/auth/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	googleHandler := authgooglefeature.NewHandler(users, states, sessionMgr,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	boardHandler := boardfeature.NewHandler(posts, comments, gw, dir, feed, bus, logger)
	r.Route("/api/board", func(pr chi.Router) {
		pr.Use(sessionMgr.RequireSignedIn)
		boardHandler.MountRoutes(pr)
	})

	return r, nil
}
