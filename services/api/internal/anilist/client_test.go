package anilist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/anihub/services/api/internal/cache"
)

type graphQLServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newGraphQLServer(t *testing.T, handler func(w http.ResponseWriter, req gqlRequest)) *graphQLServer {
	t.Helper()
	s := &graphQLServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req gqlRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
	t.Cleanup(s.Close)
	return s
}

func fastConfig() ClientConfig {
	return ClientConfig{MaxRetries: 2, RetryBaseDelay: time.Millisecond, Timeout: 2 * time.Second}
}

func TestAnime_OK(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, req gqlRequest) {
		assert.Equal(t, "Frieren", req.Variables["search"])
		assert.Contains(t, req.Query, "Media(search: $search, type: ANIME)")
		_, _ = w.Write([]byte(`{"data":{"Media":{
			"title":{"romaji":"Sousou no Frieren"},
			"coverImage":{"extraLarge":"https://img/xl.jpg","large":"https://img/l.jpg"},
			"description":"An elf mage.",
			"averageScore":91,"episodes":28,"status":"FINISHED","format":"TV"}}}`))
	})

	a, err := New(srv.URL, fastConfig()).Anime(context.Background(), "Frieren")
	require.NoError(t, err)
	assert.Equal(t, "Sousou no Frieren", a.Title)
	assert.Equal(t, "https://img/xl.jpg", a.Cover)
	require.NotNil(t, a.Score)
	assert.Equal(t, 91, *a.Score)
	require.NotNil(t, a.Episodes)
	assert.Equal(t, 28, *a.Episodes)
	assert.Equal(t, "FINISHED", a.Status)
	assert.Equal(t, "TV", a.Format)
}

func TestAnime_NotFoundIsNotRetried(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Not Found.","status":404}],"data":{"Media":null}}`))
	})

	_, err := New(srv.URL, fastConfig()).Anime(context.Background(), "zzzz")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, srv.calls.Load())
}

func TestAnime_NullMedia(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		_, _ = w.Write([]byte(`{"data":{"Media":null}}`))
	})

	_, err := New(srv.URL, fastConfig()).Anime(context.Background(), "zzzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnime_RetriesServerErrors(t *testing.T) {
	var n atomic.Int32
	srv := newGraphQLServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		if n.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"Media":{"title":{"romaji":"Naruto"},"coverImage":{},"status":"FINISHED"}}}`))
	})

	a, err := New(srv.URL, fastConfig()).Anime(context.Background(), "Naruto")
	require.NoError(t, err)
	assert.Equal(t, "Naruto", a.Title)
	assert.EqualValues(t, 3, srv.calls.Load())
}

func TestAnime_GivesUpAfterMaxRetries(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := New(srv.URL, fastConfig()).Anime(context.Background(), "Naruto")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 3, srv.calls.Load())
}

func TestAnime_ClientErrorIsNotRetried(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Syntax Error","status":400}]}`))
	})

	_, err := New(srv.URL, fastConfig()).Anime(context.Background(), "Naruto")
	require.Error(t, err)
	assert.EqualValues(t, 1, srv.calls.Load())
}

func TestAnime_UsesCache(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		_, _ = w.Write([]byte(`{"data":{"Media":{"title":{"romaji":"Naruto"},"coverImage":{}}}}`))
	})
	c := New(srv.URL, fastConfig(), WithCache(cache.NewMemoryCache(time.Minute)))

	for i := 0; i < 3; i++ {
		a, err := c.Anime(context.Background(), "Naruto")
		require.NoError(t, err)
		assert.Equal(t, "Naruto", a.Title)
	}
	_, err := c.Anime(context.Background(), " naruto ")
	require.NoError(t, err)
	assert.EqualValues(t, 1, srv.calls.Load())
}

func TestHome_OK(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, req gqlRequest) {
		assert.Contains(t, req.Query, "trending: Page(perPage: 10)")
		_, _ = w.Write([]byte(`{"data":{
			"trending":{"media":[{"id":1,"title":{"romaji":"A"},"coverImage":{"medium":"m"},"bannerImage":"b"}]},
			"popular":{"media":[{"id":2,"title":{"romaji":"B"},"coverImage":{}}]},
			"action":{"media":[]},"romance":{"media":[]},"horror":{"media":[]}}}`))
	})

	h, err := New(srv.URL, fastConfig()).Home(context.Background())
	require.NoError(t, err)
	require.Len(t, h.Trending.Media, 1)
	assert.Equal(t, 1, h.Trending.Media[0].ID)
	assert.Equal(t, "b", h.Trending.Media[0].BannerImage)
	assert.Len(t, h.Popular.Media, 1)
	assert.NotNil(t, h.Sports.Media, "missing sections become empty lists")
}

func TestHome_FailureReturnsEmptySections(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	h, err := New(srv.URL, ClientConfig{RetryBaseDelay: time.Millisecond}).Home(context.Background())
	require.Error(t, err)

	b, _ := json.Marshal(h)
	assert.JSONEq(t, `{"trending":{"media":[]},"popular":{"media":[]},"action":{"media":[]},"romance":{"media":[]},"horror":{"media":[]},"sports":{"media":[]}}`, string(b))
}

func TestSuggest_CapsResults(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, req gqlRequest) {
		assert.Equal(t, "one", req.Variables["search"])
		items := make([]string, 7)
		for i := range items {
			items[i] = `{"title":{"romaji":"One Piece"},"coverImage":{"medium":"m"},"format":"TV"}`
		}
		_, _ = w.Write([]byte(`{"data":{"Page":{"media":[` + strings.Join(items, ",") + `]}}}`))
	})

	got, err := New(srv.URL, fastConfig()).Suggest(context.Background(), "one")
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, "One Piece", got[0].Title.Romaji)
	assert.Equal(t, "TV", got[0].Format)
}

func TestSuggest_FailureReturnsEmptyList(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		_, _ = w.Write([]byte(`not json`))
	})

	got, err := New(srv.URL, ClientConfig{RetryBaseDelay: time.Millisecond}).Suggest(context.Background(), "x")
	require.Error(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	cb := gobreaker.NewCircuitBreaker(BreakerSettings("anilist", 1, time.Minute, time.Minute, 2))
	c := New(srv.URL, ClientConfig{RetryBaseDelay: time.Millisecond}, WithCircuitBreaker(cb))

	for i := 0; i < 2; i++ {
		_, err := c.Anime(context.Background(), "x")
		require.Error(t, err)
	}
	calls := srv.calls.Load()

	_, err := c.Anime(context.Background(), "x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, calls, srv.calls.Load(), "open breaker must not reach upstream")
}

func TestCircuitBreaker_NotFoundKeepsBreakerClosed(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		_, _ = w.Write([]byte(`{"data":{"Media":null}}`))
	})
	cb := gobreaker.NewCircuitBreaker(BreakerSettings("anilist", 1, time.Minute, time.Minute, 2))
	c := New(srv.URL, fastConfig(), WithCircuitBreaker(cb))

	for i := 0; i < 5; i++ {
		_, err := c.Anime(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestRetryHonoursContext(t *testing.T) {
	srv := newGraphQLServer(t, func(w http.ResponseWriter, _ gqlRequest) {
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := New(srv.URL, ClientConfig{MaxRetries: 5, RetryBaseDelay: time.Second})
	start := time.Now()
	_, err := c.Anime(ctx, "x")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
