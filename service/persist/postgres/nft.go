package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artverse/ingest/service/persist"
)

// NftRepository is a repository that stores minted token metadata and mirrored media in a postgres database
type NftRepository struct {
	db                   *sql.DB
	insertMetadataStmt   *sql.Stmt
	insertMediaStmt      *sql.Stmt
	getWithImagesStmt    *sql.Stmt
	getByIdentifiersStmt *sql.Stmt
	getMediaStmt         *sql.Stmt
}

// NewNftRepository creates a new postgres repository for minted token metadata and media
func NewNftRepository(db *sql.DB) *NftRepository {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	insertMetadataStmt, err := db.PrepareContext(ctx, `INSERT INTO nft_metadata (CONTRACT_ADDRESS,TOKEN_ID,CHAIN,NAME,DESCRIPTION,ATTRIBUTES,RAW_METADATA,CREATED_AT) VALUES ($1,$2,$3,$4,$5,$6,$7,now()) ON CONFLICT (CONTRACT_ADDRESS,TOKEN_ID,CHAIN) DO NOTHING;`)
	checkNoErr(err)

	insertMediaStmt, err := db.PrepareContext(ctx, `INSERT INTO nft_media (CONTRACT_ADDRESS,TOKEN_ID,MEDIA_TYPE,ORIGINAL_URL,CACHED_URL,STORAGE_BACKEND,CREATED_AT) VALUES ($1,$2,$3,$4,$5,$6,now()) ON CONFLICT (CONTRACT_ADDRESS,TOKEN_ID,MEDIA_TYPE) DO NOTHING;`)
	checkNoErr(err)

	getWithImagesStmt, err := db.PrepareContext(ctx, `SELECT n.CONTRACT_ADDRESS,n.TOKEN_ID,n.CHAIN,n.NAME,n.DESCRIPTION,n.ATTRIBUTES,n.RAW_METADATA,n.CREATED_AT,m.CACHED_URL FROM nft_metadata n LEFT JOIN nft_media m ON m.CONTRACT_ADDRESS = n.CONTRACT_ADDRESS AND m.TOKEN_ID = n.TOKEN_ID AND m.MEDIA_TYPE = 'image' ORDER BY n.CREATED_AT DESC LIMIT $1;`)
	checkNoErr(err)

	getByIdentifiersStmt, err := db.PrepareContext(ctx, `SELECT CONTRACT_ADDRESS,TOKEN_ID,CHAIN,NAME,DESCRIPTION,ATTRIBUTES,RAW_METADATA,CREATED_AT FROM nft_metadata WHERE CONTRACT_ADDRESS = $1 AND TOKEN_ID = $2 AND CHAIN = $3;`)
	checkNoErr(err)

	getMediaStmt, err := db.PrepareContext(ctx, `SELECT CONTRACT_ADDRESS,TOKEN_ID,MEDIA_TYPE,ORIGINAL_URL,CACHED_URL,STORAGE_BACKEND,CREATED_AT FROM nft_media WHERE CONTRACT_ADDRESS = $1 AND TOKEN_ID = $2 ORDER BY MEDIA_TYPE;`)
	checkNoErr(err)

	return &NftRepository{
		db:                   db,
		insertMetadataStmt:   insertMetadataStmt,
		insertMediaStmt:      insertMediaStmt,
		getWithImagesStmt:    getWithImagesStmt,
		getByIdentifiersStmt: getByIdentifiersStmt,
		getMediaStmt:         getMediaStmt,
	}
}

// InsertMetadata inserts a metadata row for a minted token. A row that already exists for the
// token's natural key is left untouched and no error is returned.
func (n *NftRepository) InsertMetadata(pCtx context.Context, pMetadata persist.NftMetadata) error {
	_, err := n.insertMetadataStmt.ExecContext(pCtx, pMetadata.ContractAddress, pMetadata.TokenID, pMetadata.Chain, pMetadata.Name, pMetadata.Description, pMetadata.Attributes, pMetadata.RawMetadata)
	return err
}

// InsertMedia inserts a mirrored media row for a minted token. A row that already exists for the
// token and media type is left untouched and no error is returned.
func (n *NftRepository) InsertMedia(pCtx context.Context, pMedia persist.NftMedia) error {
	_, err := n.insertMediaStmt.ExecContext(pCtx, pMedia.ContractAddress, pMedia.TokenID, pMedia.MediaType, pMedia.OriginalURL, pMedia.CachedURL, pMedia.StorageBackend)
	return err
}

// GetNftsWithImages retrieves the most recently ingested tokens joined with their mirrored image, if any
func (n *NftRepository) GetNftsWithImages(pCtx context.Context, pLimit int) ([]persist.NftWithImage, error) {
	rows, err := n.getWithImagesStmt.QueryContext(pCtx, pLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nfts := make([]persist.NftWithImage, 0, pLimit)
	for rows.Next() {
		nft := persist.NftWithImage{}
		if err := rows.Scan(&nft.ContractAddress, &nft.TokenID, &nft.Chain, &nft.Name, &nft.Description, &nft.Attributes, &nft.RawMetadata, &nft.CreatedAt, &nft.CachedImageURL); err != nil {
			return nil, err
		}
		nfts = append(nfts, nft)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nfts, nil
}

// GetNftByIdentifiers retrieves one token's metadata and all of its mirrored media
func (n *NftRepository) GetNftByIdentifiers(pCtx context.Context, pContractAddress persist.Address, pTokenID persist.TokenID, pChain persist.Chain) (persist.NftDetails, error) {
	nft := persist.NftDetails{}
	err := n.getByIdentifiersStmt.QueryRowContext(pCtx, pContractAddress, pTokenID, pChain).Scan(&nft.ContractAddress, &nft.TokenID, &nft.Chain, &nft.Name, &nft.Description, &nft.Attributes, &nft.RawMetadata, &nft.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persist.NftDetails{}, persist.ErrNftNotFound{ContractAddress: pContractAddress, TokenID: pTokenID, Chain: pChain}
		}
		return persist.NftDetails{}, err
	}

	rows, err := n.getMediaStmt.QueryContext(pCtx, pContractAddress, pTokenID)
	if err != nil {
		return persist.NftDetails{}, err
	}
	defer rows.Close()

	nft.Media = make([]persist.NftMedia, 0, 2)
	for rows.Next() {
		media := persist.NftMedia{}
		if err := rows.Scan(&media.ContractAddress, &media.TokenID, &media.MediaType, &media.OriginalURL, &media.CachedURL, &media.StorageBackend, &media.CreatedAt); err != nil {
			return persist.NftDetails{}, err
		}
		nft.Media = append(nft.Media, media)
	}

	if err := rows.Err(); err != nil {
		return persist.NftDetails{}, err
	}

	return nft, nil
}
