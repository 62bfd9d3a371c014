// Package video is the playback boundary: it asks the active provider for a
// stream and reports every failure as an absent stream.
package video

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/anihub/internal/platform/analytics"
	"github.com/example/anihub/services/api/internal/provider"
)

// Response is the body of GET /watch. StreamURL is nil when nothing was found.
type Response struct {
	StreamURL *string `json:"stream_url"`
}

type Service struct {
	Provider  provider.Provider
	Log       *zap.Logger
	Analytics *analytics.Publisher
}

func New(p provider.Provider, log *zap.Logger, ap *analytics.Publisher) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Provider: p, Log: log, Analytics: ap}
}

// Watch never fails: provider errors and panics are logged and returned as a
// nil StreamURL.
func (s *Service) Watch(ctx context.Context, title string, episode int) Response {
	start := time.Now()
	url, err := s.resolve(ctx, provider.Request{AnimeTitle: title, Episode: episode})
	elapsed := time.Since(start)

	id := s.Provider.Identity()
	if err != nil || url == "" {
		if err == nil {
			err = provider.ParseFailure
		}
		kind := provider.KindOf(err)
		fields := []zap.Field{
			zap.String("provider", id.Name),
			zap.String("stage", string(provider.StageOf(err))),
			zap.String("kind", string(kind)),
			zap.String("title", title),
			zap.Int("episode", episode),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		}
		switch kind {
		case provider.NoSearchMatch, provider.NoEpisodeMatch:
			s.log().Info("stream not found", fields...)
		default:
			s.log().Warn("stream resolution failed", fields...)
		}
		s.Analytics.Publish(analytics.SubjectStreamingMissed, "stream_missed", "", map[string]any{
			"provider": id.Name,
			"title":    title,
			"episode":  episode,
			"kind":     string(kind),
			"stage":    string(provider.StageOf(err)),
		})
		return Response{}
	}

	s.log().Info("stream resolved",
		zap.String("provider", id.Name),
		zap.String("title", title),
		zap.Int("episode", episode),
		zap.Duration("elapsed", elapsed))
	s.Analytics.Publish(analytics.SubjectStreamingStarted, "stream_resolved", "", map[string]any{
		"provider": id.Name,
		"title":    title,
		"episode":  episode,
	})
	return Response{StreamURL: &url}
}

func (s *Service) resolve(ctx context.Context, req provider.Request) (url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			url = ""
			err = &provider.Error{
				Provider: s.Provider.Identity().Name,
				Kind:     provider.ParseFailure,
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
	}()
	return s.Provider.Resolve(ctx, req)
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
