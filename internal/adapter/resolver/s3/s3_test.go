package s3

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/domain"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		locator    string
		bucket     string
		key        string
		wantErr    error
		defaultBkt string
	}{
		{locator: "s3://music/tracks/a.mp3", bucket: "music", key: "tracks/a.mp3"},
		{locator: "s3:///a.mp3", defaultBkt: "echoverse", bucket: "echoverse", key: "a.mp3"},
		{locator: "s3:///a.mp3", wantErr: domain.ErrUnknownContent},
		{locator: "s3://music", wantErr: domain.ErrUnknownContent},
		{locator: "ipfs://Qm", wantErr: domain.ErrUnsupportedScheme},
	}
	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			bucket, key, err := ParseLocator(tt.locator, tt.defaultBkt)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestResolvePresigns(t *testing.T) {
	r, err := New(nil, Config{
		Endpoint:  "storage.example.test:9000",
		AccessKey: "access",
		SecretKey: "secret",
		Region:    "us-east-1",
		Bucket:    "echoverse",
		Expiry:    10 * time.Minute,
	})
	require.NoError(t, err)

	raw, err := r.Resolve(context.Background(), "s3://music/tracks/a.mp3")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "storage.example.test:9000", u.Host)
	assert.Equal(t, "/music/tracks/a.mp3", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestResolveRejectsForeignScheme(t *testing.T) {
	r, err := New(nil, Config{Endpoint: "storage.example.test:9000"})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "https://example.test/a.mp3")
	assert.ErrorIs(t, err, domain.ErrResolution)
	assert.ErrorIs(t, err, domain.ErrUnsupportedScheme)
}

func TestUploadRequiresBucket(t *testing.T) {
	r, err := New(nil, Config{Endpoint: "storage.example.test:9000"})
	require.NoError(t, err)

	_, err = r.Upload(context.Background(), "a.mp3", nil, 0, "audio/mpeg")
	assert.Error(t, err)
}
