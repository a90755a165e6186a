package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/adapter/resolver/ipfs"
	"github.com/echoverse/echoverse/internal/domain"
)

type staticResolver map[string]string

func (s staticResolver) Resolve(_ context.Context, locator string) (string, error) {
	if url, ok := s[locator]; ok {
		return url, nil
	}
	return "", domain.NewResolutionError(locator, domain.ErrUnknownContent)
}

func TestRouterDispatch(t *testing.T) {
	r := NewRouter(nil)
	r.Handle("IPFS", ipfs.New(nil, ipfs.Options{}))
	r.Handle("ar", staticResolver{"ar://tx1": "https://arweave.test/tx1"})

	ctx := context.Background()

	url, err := r.Resolve(ctx, "ipfs://QmbtFKnBuyUmRoFAoxEJxqZBCTamYeGnZ4MrHCLehWkHre")
	require.NoError(t, err)
	assert.Equal(t, "https://www2.cs.uic.edu/~i101/SoundFiles/gettysburg10.wav", url)

	url, err = r.Resolve(ctx, "ar://tx1")
	require.NoError(t, err)
	assert.Equal(t, "https://arweave.test/tx1", url)

	url, err = r.Resolve(ctx, "https://cdn.test/a.wav")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/a.wav", url)

	assert.ElementsMatch(t, []string{"http", "https", "ipfs", "ar"}, r.Schemes())
}

func TestRouterUnsupported(t *testing.T) {
	r := NewRouter(nil)

	for _, locator := range []string{"ftp://host/a.wav", "/placeholder.svg", ""} {
		_, err := r.Resolve(context.Background(), locator)
		require.Error(t, err, locator)
		assert.ErrorIs(t, err, domain.ErrResolution)
		assert.ErrorIs(t, err, domain.ErrUnsupportedScheme)
	}
}

func TestRouterPropagatesResolverError(t *testing.T) {
	r := NewRouter(nil)
	r.Handle("ar", staticResolver{})

	_, err := r.Resolve(context.Background(), "ar://missing")
	var resErr *domain.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "ar://missing", resErr.Locator)
}

func TestPassthroughCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Passthrough{}.Resolve(ctx, "https://cdn.test/a.wav")
	assert.ErrorIs(t, err, context.Canceled)
}
