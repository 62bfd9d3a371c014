package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/anihub/services/api/internal/provider"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestResolveCommand_InvalidEpisodeReportsValidationError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()

	_, err := execute(t, "Demo", "Show", "-e", "0", "--base-url", srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "episode must be >= 1")
	assert.NotContains(t, err.Error(), "stage")
	assert.Zero(t, hits.Load())
}

func TestResolveCommand_PrintsStreamURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<div class="poster"><a href="/anime/demo-show">x</a></div>`)
	})
	mux.HandleFunc("GET /anime/demo-show", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<ul class="episodios"><li><a href="/ep/2">Episódio 2</a></li></ul>`)
	})
	mux.HandleFunc("GET /ep/2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<iframe src="https://player.example/x2"></iframe>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, err := execute(t, "Demo", "Show", "-e", "2", "--base-url", srv.URL, "--rps", "100")
	require.NoError(t, err)
	assert.Equal(t, "https://player.example/x2\n", out)
}

func TestResolveCommand_SiteFailureReportsKindAndStage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := execute(t, "Demo", "-e", "1", "--base-url", srv.URL)
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf("%s (stage %s)", provider.SiteRejected, provider.StageSearch), err.Error())
}
