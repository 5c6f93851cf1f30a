package mintjobs

import (
	"github.com/artverse/ingest/service/persist"
)

// MintJob describes one minted token for the metadata worker to ingest.
// MetadataURI is nil when on-chain enrichment could not produce a URI; the
// worker still records that the mint happened.
type MintJob struct {
	ContractAddress persist.Address `json:"contract_address"`
	TokenID         persist.TokenID `json:"token_id"`
	Chain           persist.Chain   `json:"chain"`
	MetadataURI     *string         `json:"metadata_uri"`
}
