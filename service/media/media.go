package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artverse/ingest/service/metadata"
	"github.com/artverse/ingest/service/persist"
	"github.com/artverse/ingest/util"
)

const defaultFetchTimeout = time.Second * 20

// ErrStorageNotConfigured is returned when media mirroring runs without a storage backend
var ErrStorageNotConfigured = errors.New("media storage is not configured")

// Uploader mirrors a blob into backing storage and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, key string, contentType string, body []byte) (string, error)
	Backend() persist.StorageBackend
}

// FetchAndCache downloads the media behind a metadata URL and mirrors it into storage,
// returning the mirrored blob's public URL.
func FetchAndCache(ctx context.Context, pURL string, uploader Uploader, httpClient *http.Client) (string, error) {
	if uploader == nil {
		return "", ErrStorageNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, defaultFetchTimeout)
	defer cancel()

	resolved := metadata.ResolveURI(pURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return "", err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", util.ErrHTTP{Status: resp.StatusCode, URL: resolved}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return uploader.Upload(ctx, StorageKey(pURL, resolved), http.DetectContentType(body), body)
}

// StorageKey derives the stable object key for a media URL. The digest covers the URL
// exactly as it appears in metadata, so the same field value always maps to the same
// object even if gateway resolution changes later.
func StorageKey(pURL, pResolvedURL string) string {
	digest := sha256.Sum256([]byte(pURL))
	return hex.EncodeToString(digest[:]) + "." + extension(pResolvedURL)
}

func extension(url string) string {
	idx := strings.LastIndexByte(url, '.')
	if idx < 0 {
		return "bin"
	}
	ext := url[idx+1:]
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		return "bin"
	}
	return ext
}
