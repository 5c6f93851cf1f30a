package persist

import (
	"context"
	"fmt"
	"time"
)

// NftMetadata is the persisted metadata row for one minted token. The
// natural key is (contract_address, token_id, chain); only the first ingest
// for a key creates a row, later ones are no-ops.
type NftMetadata struct {
	ContractAddress Address   `json:"contract_address"`
	TokenID         TokenID   `json:"token_id"`
	Chain           Chain     `json:"chain"`
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	Attributes      JSONB     `json:"attributes"`
	RawMetadata     JSONB     `json:"raw_metadata"`
	CreatedAt       time.Time `json:"created_at"`
}

// NftMedia is one mirrored blob for a token. The natural key is
// (contract_address, token_id, media_type); the first successful mirror wins.
type NftMedia struct {
	ContractAddress Address        `json:"contract_address"`
	TokenID         TokenID        `json:"token_id"`
	MediaType       MediaType      `json:"media_type"`
	OriginalURL     string         `json:"original_url"`
	CachedURL       string         `json:"cached_url"`
	StorageBackend  StorageBackend `json:"storage_backend"`
	CreatedAt       time.Time      `json:"created_at"`
}

// NftWithImage is a metadata row joined to its image media row, shaped for
// the read API.
type NftWithImage struct {
	NftMetadata
	CachedImageURL *string `json:"cached_image_url"`
}

// NftDetails is a metadata row with every media row mirrored for the token.
type NftDetails struct {
	NftMetadata
	Media []NftMedia `json:"media"`
}

// NftRepository is the persistence gateway for token metadata and media.
// Both insert operations are idempotent on their natural keys and report
// success when the row already exists.
type NftRepository interface {
	InsertMetadata(ctx context.Context, metadata NftMetadata) error
	InsertMedia(ctx context.Context, media NftMedia) error
	GetNftsWithImages(ctx context.Context, limit int) ([]NftWithImage, error)
	GetNftByIdentifiers(ctx context.Context, contractAddress Address, tokenID TokenID, chain Chain) (NftDetails, error)
}

// ErrNftNotFound is returned when no metadata row matches the identifiers
type ErrNftNotFound struct {
	ContractAddress Address
	TokenID         TokenID
	Chain           Chain
}

func (e ErrNftNotFound) Error() string {
	return fmt.Sprintf("nft not found with contract address %s, token ID %s, chain %s", e.ContractAddress, e.TokenID, e.Chain)
}
