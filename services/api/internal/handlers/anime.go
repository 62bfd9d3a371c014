package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/anihub/internal/platform/analytics"
	"github.com/example/anihub/internal/platform/api"
	"github.com/example/anihub/internal/platform/httpserver"
	"github.com/example/anihub/services/api/internal/anilist"
)

// Catalog is the metadata source used by the anime handlers.
type Catalog interface {
	Home(ctx context.Context) (anilist.Home, error)
	Anime(ctx context.Context, name string) (anilist.Anime, error)
	Suggest(ctx context.Context, term string) ([]anilist.Suggestion, error)
}

type animeError struct {
	Error string `json:"error"`
}

// Home always answers 200; an unavailable catalog yields empty sections.
func Home(c Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		home, err := c.Home(r.Context())
		if err != nil {
			log.Warn("home showcase unavailable",
				zap.String("request_id", httpserver.RequestIDFromContext(r.Context())),
				zap.Error(err))
			home = anilist.EmptyHome()
		}
		api.WriteJSON(w, http.StatusOK, home)
	}
}

func Anime(c Catalog, ap *analytics.Publisher, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := pathParam(r, "anime_name")
		a, err := c.Anime(r.Context(), name)
		if err != nil {
			if errors.Is(err, anilist.ErrNotFound) {
				api.WriteJSON(w, http.StatusNotFound, animeError{Error: "Anime não encontrado"})
				return
			}
			log.Warn("anime details unavailable",
				zap.String("request_id", httpserver.RequestIDFromContext(r.Context())),
				zap.String("anime", name),
				zap.Error(err))
			api.WriteJSON(w, http.StatusBadGateway, animeError{Error: "Erro interno"})
			return
		}
		ap.Publish(analytics.SubjectAnimeViewed, "anime_viewed", "", map[string]any{"title": a.Title})
		api.WriteJSON(w, http.StatusOK, a)
	}
}

// Suggest always answers 200 with a (possibly empty) list.
func Suggest(c Catalog, ap *analytics.Publisher, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term := pathParam(r, "term")
		items, err := c.Suggest(r.Context(), term)
		if err != nil {
			log.Warn("suggest unavailable",
				zap.String("request_id", httpserver.RequestIDFromContext(r.Context())),
				zap.String("term", term),
				zap.Error(err))
			items = []anilist.Suggestion{}
		}
		if items == nil {
			items = []anilist.Suggestion{}
		}
		ap.Publish(analytics.SubjectSearchPerformed, "search_performed", "", map[string]any{
			"term":    term,
			"results": len(items),
		})
		api.WriteJSON(w, http.StatusOK, items)
	}
}
