package ipfs

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/domain"
)

func newTestService(opts Options) *Service {
	opts.GatewayURL = "https://gateway.test/ipfs/"
	return New(nil, opts)
}

func TestResolveKnownCID(t *testing.T) {
	svc := newTestService(Options{})

	url, err := svc.Resolve(context.Background(), "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	require.NoError(t, err)
	assert.Equal(t, "https://www2.cs.uic.edu/~i101/SoundFiles/BabyElephantWalk60.wav", url)
	assert.True(t, svc.Connected(), "resolve connects lazily")
}

func TestResolveFailures(t *testing.T) {
	svc := newTestService(Options{})

	_, err := svc.Resolve(context.Background(), "ipfs://QmMissing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResolution)
	assert.ErrorIs(t, err, domain.ErrUnknownContent)

	_, err = svc.Resolve(context.Background(), "https://example.test/a.wav")
	assert.ErrorIs(t, err, domain.ErrUnsupportedScheme)

	var resErr *domain.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "https://example.test/a.wav", resErr.Locator)
}

func TestResolveHonorsContext(t *testing.T) {
	svc := newTestService(Options{FetchDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.Resolve(ctx, "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrResolution)
}

func TestStat(t *testing.T) {
	svc := newTestService(Options{})

	c, err := svc.Stat(context.Background(), "QmPCawMTd7csXKf7QVrAFbHGiLPPn3qcjNBg1g6gWHkF3m")
	require.NoError(t, err)
	assert.Equal(t, "ipfs-file-QmPCawMT", c.Name)
	assert.Equal(t, "audio/wav", c.Type)
	assert.False(t, c.LastModified.IsZero())
}

func TestUploadAndPin(t *testing.T) {
	svc := newTestService(Options{})
	ctx := context.Background()

	cid, err := svc.Upload(ctx, "demo.mp3", strings.NewReader("not really an mp3 but long enough"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cid, "Qm"))

	again, err := svc.Upload(ctx, "copy.mp3", strings.NewReader("not really an mp3 but long enough"))
	require.NoError(t, err)
	assert.Equal(t, cid, again, "same payload, same CID")

	url, ok := svc.CIDToURL(cid)
	require.True(t, ok)
	assert.Equal(t, "https://gateway.test/ipfs/"+cid, url)

	resolved, err := svc.Resolve(ctx, "ipfs://"+cid)
	require.NoError(t, err)
	assert.Equal(t, url, resolved)

	pinned, err := svc.Pin(ctx, cid)
	require.NoError(t, err)
	assert.True(t, pinned)

	pinned, err = svc.Pin(ctx, "QmNope")
	require.NoError(t, err)
	assert.False(t, pinned)
}

func TestContentIDShortPayload(t *testing.T) {
	id := ContentID([]byte("x"))
	assert.Len(t, id, 2+64, "short payloads fall back to sha256")
}

func TestDisconnect(t *testing.T) {
	svc := newTestService(Options{})
	require.NoError(t, svc.Connect(context.Background()))
	svc.Disconnect()
	assert.False(t, svc.Connected())
}

func TestCustomContent(t *testing.T) {
	svc := New(nil, Options{Content: map[string]string{"QmLocal": "http://localhost/a.flac"}})
	_, ok := svc.CIDToURL("QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	assert.False(t, ok)
	url, ok := svc.CIDToURL("QmLocal")
	assert.True(t, ok)
	assert.Equal(t, "http://localhost/a.flac", url)
}

func TestStoreReturnsResolvableLocator(t *testing.T) {
	svc := newTestService(Options{})
	ctx := context.Background()

	locator, err := svc.Store(ctx, "cover.jpg", strings.NewReader("jpeg bytes for a cover image"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(locator, "ipfs://Qm"))

	url, err := svc.Resolve(ctx, locator)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://gateway.test/ipfs/Qm"))

	content, err := svc.Stat(ctx, strings.TrimPrefix(locator, "ipfs://"))
	require.NoError(t, err)
	assert.Equal(t, "cover.jpg", content.Name)
}
