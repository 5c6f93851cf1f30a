package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artverse/ingest/service/persist"
	"github.com/artverse/ingest/util"
)

// pngBytes carries a real PNG signature so content sniffing sees an image
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), []byte("not really pixel data")...)

type recordingUploader struct {
	keys         []string
	contentTypes []string
	bodies       [][]byte
	err          error
}

func (u *recordingUploader) Upload(ctx context.Context, key string, contentType string, body []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.keys = append(u.keys, key)
	u.contentTypes = append(u.contentTypes, contentType)
	u.bodies = append(u.bodies, body)
	return "https://test-bucket.s3.amazonaws.com/" + key, nil
}

func (u *recordingUploader) Backend() persist.StorageBackend {
	return persist.StorageBackendS3
}

func TestStorageKey(t *testing.T) {
	a := assert.New(t)

	t.Run("hashes the pre-resolution URL and keeps the resolved extension", func(t *testing.T) {
		a.Equal(
			"1209201c75c3f7f01870c76179bbd619aaeea04a505bc94f588b4be6248ee7c5.png",
			StorageKey("ipfs://QmY", "https://ipfs.io/ipfs/QmY/image.png"),
		)
	})

	t.Run("falls back to bin when the resolved URL has no usable extension", func(t *testing.T) {
		// sha256("hello")
		a.Equal("2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824.bin", StorageKey("hello", "hello"))

		// The last '.' sits in the host, so the suffix spans a '/'
		a.Equal("bin", keyExtension(StorageKey("u", "https://example.com/nodotafter")))
		a.Equal("bin", keyExtension(StorageKey("u", "https://example/file.")))
	})

	t.Run("keeps whatever trails the final dot, query strings included", func(t *testing.T) {
		a.Equal("png?v=2", keyExtension(StorageKey("u", "https://example.com/img.png?v=2")))
	})

	t.Run("is deterministic across calls", func(t *testing.T) {
		a.Equal(StorageKey("ipfs://QmY", "https://ipfs.io/ipfs/QmY"), StorageKey("ipfs://QmY", "https://ipfs.io/ipfs/QmY"))
	})
}

func TestFetchAndCache(t *testing.T) {
	t.Run("mirrors a blob and returns its public URL", func(t *testing.T) {
		a := assert.New(t)

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(pngBytes)
		}))
		defer ts.Close()

		uploader := &recordingUploader{}
		mediaURL := ts.URL + "/piece.png"

		cachedURL, err := FetchAndCache(context.Background(), mediaURL, uploader, http.DefaultClient)
		a.NoError(err)

		digest := sha256.Sum256([]byte(mediaURL))
		wantKey := hex.EncodeToString(digest[:]) + ".png"
		a.Equal("https://test-bucket.s3.amazonaws.com/"+wantKey, cachedURL)

		a.Len(uploader.keys, 1)
		a.Equal(wantKey, uploader.keys[0])
		a.Equal(pngBytes, uploader.bodies[0])
		a.Equal("image/png", uploader.contentTypes[0])
	})

	t.Run("mirroring the same URL twice lands on the same key and URL", func(t *testing.T) {
		a := assert.New(t)

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(pngBytes)
		}))
		defer ts.Close()

		uploader := &recordingUploader{}
		mediaURL := ts.URL + "/piece.png"

		first, err := FetchAndCache(context.Background(), mediaURL, uploader, http.DefaultClient)
		a.NoError(err)
		second, err := FetchAndCache(context.Background(), mediaURL, uploader, http.DefaultClient)
		a.NoError(err)

		a.Equal(first, second)
		a.Len(uploader.keys, 2)
		a.Equal(uploader.keys[0], uploader.keys[1])
	})

	t.Run("a non-200 status fails without uploading", func(t *testing.T) {
		a := assert.New(t)

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusGone)
		}))
		defer ts.Close()

		uploader := &recordingUploader{}

		_, err := FetchAndCache(context.Background(), ts.URL+"/piece.png", uploader, http.DefaultClient)
		a.Error(err)

		httpErr, ok := util.ErrorAs[util.ErrHTTP](err)
		a.True(ok)
		a.Equal(http.StatusGone, httpErr.Status)
		a.Empty(uploader.keys)
	})

	t.Run("fails when no storage backend is configured", func(t *testing.T) {
		a := assert.New(t)

		_, err := FetchAndCache(context.Background(), "https://example.com/piece.png", nil, http.DefaultClient)
		a.ErrorIs(err, ErrStorageNotConfigured)
	})

	t.Run("an upload failure surfaces to the caller", func(t *testing.T) {
		a := assert.New(t)

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(pngBytes)
		}))
		defer ts.Close()

		uploader := &recordingUploader{err: errors.New("bucket on fire")}

		_, err := FetchAndCache(context.Background(), ts.URL+"/piece.png", uploader, http.DefaultClient)
		a.ErrorContains(err, "bucket on fire")
	})
}

func keyExtension(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '.' {
			return key[i+1:]
		}
	}
	return ""
}
