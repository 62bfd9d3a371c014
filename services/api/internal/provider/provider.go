// Package provider defines the video-source capability shared by every
// scraping backend and the error taxonomy used to report why a stream could
// not be resolved.
package provider

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidRequest is returned when a Request fails validation before any
// network access happens.
var ErrInvalidRequest = errors.New("provider: invalid request")

// Identity is the static identity of a scraping backend.
type Identity struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
}

// Request asks for the stream of one episode of one anime.
type Request struct {
	AnimeTitle string
	Episode    int
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.AnimeTitle) == "" {
		return errors.Join(ErrInvalidRequest, errors.New("anime title is required"))
	}
	if r.Episode < 1 {
		return errors.Join(ErrInvalidRequest, errors.New("episode must be >= 1"))
	}
	return nil
}

// Provider resolves a playable (or embeddable) stream URL for an episode.
//
// Implementations hold no per-call state and must be safe for concurrent use.
// Resolve returns either a non-empty URL and a nil error, or an empty URL and
// an error; failures caused by the remote site are reported as *Error.
type Provider interface {
	Identity() Identity
	Resolve(ctx context.Context, req Request) (string, error)
}
