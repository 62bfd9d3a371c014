package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/anihub/services/api/internal/anilist"
	"github.com/example/anihub/services/api/internal/video"
)

type stubCatalog struct {
	home       anilist.Home
	homeErr    error
	anime      anilist.Anime
	animeErr   error
	suggest    []anilist.Suggestion
	suggestErr error
	lastName   string
}

func (s *stubCatalog) Home(context.Context) (anilist.Home, error) { return s.home, s.homeErr }
func (s *stubCatalog) Anime(_ context.Context, name string) (anilist.Anime, error) {
	s.lastName = name
	return s.anime, s.animeErr
}
func (s *stubCatalog) Suggest(context.Context, string) ([]anilist.Suggestion, error) {
	return s.suggest, s.suggestErr
}

func TestHome_FailureServesEmptySections(t *testing.T) {
	rr := httptest.NewRecorder()
	Home(&stubCatalog{homeErr: errors.New("down")}, nopLog).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/home", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, s := range []string{"trending", "popular", "action", "romance", "horror", "sports"} {
		if !strings.Contains(body, `"`+s+`":{"media":[]}`) {
			t.Fatalf("expected empty %s section in %s", s, body)
		}
	}
}

func TestAnime_OK(t *testing.T) {
	score := 88
	stub := &stubCatalog{anime: anilist.Anime{Title: "Naruto", Cover: "xl.jpg", Score: &score, Status: "FINISHED"}}
	rr := httptest.NewRecorder()
	Anime(stub, nil, nopLog).ServeHTTP(rr, chiReq(http.MethodGet, "/anime/Naruto", map[string]string{"anime_name": "Naruto"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	a := decode[anilist.Anime](t, rr)
	if a.Title != "Naruto" || a.Score == nil || *a.Score != 88 {
		t.Fatalf("unexpected anime %+v", a)
	}
	if stub.lastName != "Naruto" {
		t.Fatalf("expected lookup of Naruto, got %q", stub.lastName)
	}
}

func TestAnime_NotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	Anime(&stubCatalog{animeErr: anilist.ErrNotFound}, nil, nopLog).ServeHTTP(rr, chiReq(http.MethodGet, "/anime/zzz", map[string]string{"anime_name": "zzz"}))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if got := decode[animeError](t, rr); got.Error != "Anime não encontrado" {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestAnime_UpstreamError(t *testing.T) {
	rr := httptest.NewRecorder()
	Anime(&stubCatalog{animeErr: errors.New("breaker open")}, nil, nopLog).ServeHTTP(rr, chiReq(http.MethodGet, "/anime/x", map[string]string{"anime_name": "x"}))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}

func TestSuggest_FailureIsEmptyArray(t *testing.T) {
	rr := httptest.NewRecorder()
	Suggest(&stubCatalog{suggestErr: errors.New("down")}, nil, nopLog).ServeHTTP(rr, chiReq(http.MethodGet, "/search/suggest/nar", map[string]string{"term": "nar"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Body.String(); got != "[]\n" {
		t.Fatalf("expected [], got %q", got)
	}
}

// ─── Watch handler ────────────────────────────────────────────────────────────

type stubWatcher struct {
	url     string
	calls   int
	title   string
	episode int
}

func (s *stubWatcher) Watch(_ context.Context, title string, episode int) video.Response {
	s.calls++
	s.title, s.episode = title, episode
	if s.url == "" {
		return video.Response{}
	}
	u := s.url
	return video.Response{StreamURL: &u}
}

func TestWatch_Found(t *testing.T) {
	w := &stubWatcher{url: "https://player.example/x2"}
	rr := httptest.NewRecorder()
	Watch(w).ServeHTTP(rr, chiReq(http.MethodGet, "/watch/Demo%20Show/2", map[string]string{"anime_name": "Demo Show", "episode": "2"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"stream_url":"https://player.example/x2"}` {
		t.Fatalf("unexpected body %s", got)
	}
	if w.title != "Demo Show" || w.episode != 2 {
		t.Fatalf("unexpected call %q/%d", w.title, w.episode)
	}
}

func TestWatch_MissIsNull(t *testing.T) {
	rr := httptest.NewRecorder()
	Watch(&stubWatcher{}).ServeHTTP(rr, chiReq(http.MethodGet, "/watch/x/1", map[string]string{"anime_name": "x", "episode": "1"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"stream_url":null}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestWatch_InvalidEpisode(t *testing.T) {
	for _, ep := range []string{"0", "-1", "abc", "1.5"} {
		w := &stubWatcher{}
		rr := httptest.NewRecorder()
		Watch(w).ServeHTTP(rr, chiReq(http.MethodGet, "/watch/x/"+ep, map[string]string{"anime_name": "x", "episode": ep}))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("episode %q: expected 400, got %d", ep, rr.Code)
		}
		if code := errorCode(t, rr); code != "INVALID_EPISODE" {
			t.Fatalf("episode %q: expected INVALID_EPISODE, got %q", ep, code)
		}
		if w.calls != 0 {
			t.Fatalf("episode %q: provider must not be called", ep)
		}
	}
}
