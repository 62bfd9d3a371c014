package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	id Identity
}

func (s stubProvider) Identity() Identity { return s.id }

func (s stubProvider) Resolve(context.Context, Request) (string, error) {
	return "https://player.example/" + s.id.Name, nil
}

func TestRegistry_DefaultIsFirstRegistered(t *testing.T) {
	t.Parallel()

	r := NewRegistry(
		stubProvider{id: Identity{Name: "AnimesOnlineCC"}},
		stubProvider{id: Identity{Name: "Mirror"}},
	)

	p, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "AnimesOnlineCC", p.Identity().Name)
	assert.Equal(t, []string{"AnimesOnlineCC", "Mirror"}, r.Names())
}

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	r := NewRegistry(stubProvider{id: Identity{Name: "AnimesOnlineCC"}})

	p, err := r.Get(" animesonlinecc ")
	require.NoError(t, err)
	assert.Equal(t, "AnimesOnlineCC", p.Identity().Name)
}

func TestRegistry_UnknownProvider(t *testing.T) {
	t.Parallel()

	r := NewRegistry(stubProvider{id: Identity{Name: "AnimesOnlineCC"}})

	_, err := r.Get("gogo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AnimesOnlineCC")
}

func TestRegistry_ReRegisterReplaces(t *testing.T) {
	t.Parallel()

	r := NewRegistry(stubProvider{id: Identity{Name: "A", BaseURL: "https://old"}})
	r.Register(stubProvider{id: Identity{Name: "a", BaseURL: "https://new"}})

	p, err := r.Get("A")
	require.NoError(t, err)
	assert.Equal(t, "https://new", p.Identity().BaseURL)
	assert.Len(t, r.Names(), 1)
}
