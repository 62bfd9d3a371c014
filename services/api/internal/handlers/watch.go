package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/example/anihub/internal/platform/api"
	"github.com/example/anihub/internal/platform/httpserver"
	"github.com/example/anihub/services/api/internal/video"
)

// Watcher resolves a stream for one episode. video.Service implements it.
type Watcher interface {
	Watch(ctx context.Context, title string, episode int) video.Response
}

// Watch answers {"stream_url": "..."} or {"stream_url": null}; only a
// malformed request gets a non-200 status.
func Watch(v Watcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		title := pathParam(r, "anime_name")
		if title == "" {
			api.BadRequest(w, "INVALID_TITLE", "anime name is required", rid, nil)
			return
		}
		episode, err := strconv.Atoi(pathParam(r, "episode"))
		if err != nil || episode < 1 {
			api.BadRequest(w, "INVALID_EPISODE", "episode must be an integer >= 1", rid, nil)
			return
		}
		api.WriteJSON(w, http.StatusOK, v.Watch(r.Context(), title, episode))
	}
}
