package http

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/anihub/internal/platform/analytics"
	"github.com/example/anihub/internal/platform/auth"
	"github.com/example/anihub/internal/platform/httpserver"
	"github.com/example/anihub/services/api/internal/handlers"
	"github.com/example/anihub/services/api/internal/store"
	"github.com/example/anihub/services/api/internal/tokens"
)

// Deps are the collaborators of the public HTTP surface.
type Deps struct {
	Store     store.Store
	Tokens    tokens.Service
	Catalog   handlers.Catalog
	Video     handlers.Watcher
	Analytics *analytics.Publisher
	Log       *zap.Logger
	// WatchLimiter guards /watch; nil disables limiting.
	WatchLimiter *RateLimiter
	// Ready backs /readyz.
	Ready func() error
}

func NewRouter(d Deps) chi.Router {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: d.Ready})

	r.Get("/home", handlers.Home(d.Catalog, log))
	r.Get("/anime/{anime_name}", handlers.Anime(d.Catalog, d.Analytics, log))
	r.Get("/search/suggest/{term}", handlers.Suggest(d.Catalog, d.Analytics, log))

	r.Group(func(r chi.Router) {
		if d.WatchLimiter != nil {
			r.Use(d.WatchLimiter.Middleware)
		}
		r.Get("/watch/{anime_name}/{episode}", handlers.Watch(d.Video))
	})

	r.Post("/register", handlers.Register(d.Store, d.Analytics, log))
	r.Post("/login", handlers.Login(d.Store, d.Tokens, d.Analytics, log))

	r.Route("/users", func(r chi.Router) {
		r.Use(auth.RequireUser(auth.JWTVerifier{Secret: d.Tokens.Secret}))

		r.Post("/favorites", handlers.AddListItem(d.Store, store.Favorites, log))
		r.Delete("/favorites/{anime_id}", handlers.RemoveListItem(d.Store, store.Favorites, log))
		r.Get("/me/favorites", handlers.ListItems(d.Store, store.Favorites, log))

		r.Post("/watchlist", handlers.AddListItem(d.Store, store.Watchlist, log))
		r.Delete("/watchlist/{anime_id}", handlers.RemoveListItem(d.Store, store.Watchlist, log))
		r.Get("/me/watchlist", handlers.ListItems(d.Store, store.Watchlist, log))

		r.Post("/history", handlers.UpdateHistory(d.Store, log))
		r.Get("/me/history", handlers.ListHistory(d.Store, log))

		r.Get("/me", handlers.Me(d.Store, log))
		r.Put("/me", handlers.UpdateMe(d.Store, log))
	})
	return r
}
