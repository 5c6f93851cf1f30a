package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/artverse/ingest/service/persist"
	"github.com/artverse/ingest/util"
)

const defaultFetchTimeout = time.Second * 10

const (
	ipfsGatewayURL    = "https://ipfs.io/ipfs/"
	arweaveGatewayURL = "https://arweave.net/"
)

// Normalized holds the well-known fields extracted from a token metadata document.
// Text fields are nil when the document omits them or carries them as a non-string
// type. Attributes is invalid only when the document has no attributes key at all,
// so an explicit JSON null still round-trips.
type Normalized struct {
	Name         *string
	Description  *string
	ImageURL     *string
	AnimationURL *string
	Attributes   persist.JSONB
}

// ResolveURI maps ipfs:// and ar:// URIs to their public HTTP gateways. Anything
// else, including data URIs and unknown schemes, passes through unchanged.
func ResolveURI(pURI string) string {
	switch {
	case strings.HasPrefix(pURI, "ipfs://"):
		return ipfsGatewayURL + strings.TrimPrefix(pURI, "ipfs://")
	case strings.HasPrefix(pURI, "ar://"):
		return arweaveGatewayURL + strings.TrimPrefix(pURI, "ar://")
	default:
		return pURI
	}
}

// FetchMetadata retrieves and parses the metadata document behind a token URI.
// Numbers are decoded as json.Number so high-precision values survive the trip
// into the database.
func FetchMetadata(ctx context.Context, pURI string, httpClient *http.Client) (persist.TokenMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultFetchTimeout)
	defer cancel()

	resolved := ResolveURI(pURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, util.ErrHTTP{Status: resp.StatusCode, URL: resolved}
	}

	var metadata persist.TokenMetadata
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&metadata); err != nil {
		return nil, err
	}

	return metadata, nil
}

// Normalize extracts the well-known fields from a metadata document. Only top-level
// keys count, and the text fields are taken only when they are JSON strings. The
// attributes value is carried through verbatim, whatever shape it has.
func Normalize(pMetadata persist.TokenMetadata) Normalized {
	normalized := Normalized{
		Name:         stringField(pMetadata, "name"),
		Description:  stringField(pMetadata, "description"),
		ImageURL:     stringField(pMetadata, "image"),
		AnimationURL: stringField(pMetadata, "animation_url"),
	}

	if attributes, ok := pMetadata["attributes"]; ok {
		normalized.Attributes = persist.JSONBFrom(attributes)
	}

	return normalized
}

func stringField(metadata persist.TokenMetadata, key string) *string {
	if s, ok := metadata[key].(string); ok {
		return &s
	}
	return nil
}
