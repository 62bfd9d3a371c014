package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesKind(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("resolve: %w", &Error{Provider: "AnimesOnlineCC", Stage: StagePlayer, Kind: NoVideoFrame})

	assert.ErrorIs(t, err, NoVideoFrame)
	assert.NotErrorIs(t, err, NoSearchMatch)
	assert.Equal(t, NoVideoFrame, KindOf(err))
	assert.Equal(t, StagePlayer, StageOf(err))
}

func TestErrorMessageCarriesStatusAndCause(t *testing.T) {
	t.Parallel()

	err := &Error{Provider: "p", Stage: StageSearch, Kind: SiteRejected, Status: 503, Err: errors.New("upstream")}

	assert.Equal(t, "p: search stage: site_rejected (status 503): upstream", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "upstream")
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, SiteUnreachable, KindOf(context.DeadlineExceeded))
	assert.Equal(t, SiteUnreachable, KindOf(fmt.Errorf("get: %w", context.Canceled)))
	assert.Equal(t, ParseFailure, KindOf(errors.New("something odd")))
	assert.Equal(t, NoSearchMatch, KindOf(NoSearchMatch))
	assert.Equal(t, Stage(""), StageOf(errors.New("plain")))
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Request{AnimeTitle: "Demo Show", Episode: 1}.Validate())
	assert.ErrorIs(t, Request{AnimeTitle: "  ", Episode: 1}.Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, Request{AnimeTitle: "Demo Show", Episode: 0}.Validate(), ErrInvalidRequest)
}
