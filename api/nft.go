package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/service/persist"
	"github.com/artverse/ingest/util"
)

// maxNftsPage caps the list endpoint. The frontend paginates client-side.
const maxNftsPage = 50

type getNftByIdentifiersInput struct {
	Chain persist.Chain `form:"chain"`
}

func getNfts(nftRepo persist.NftRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		nfts, err := nftRepo.GetNftsWithImages(c, maxNftsPage)
		if err != nil {
			util.ErrResponse(c, http.StatusInternalServerError, err)
			return
		}

		c.JSON(http.StatusOK, nfts)
	}
}

func getNftByIdentifiers(nftRepo persist.NftRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		input := &getNftByIdentifiersInput{}
		if err := c.ShouldBindQuery(input); err != nil {
			util.ErrResponse(c, http.StatusBadRequest, err)
			return
		}

		chain := input.Chain
		if chain == "" {
			chain = persist.Chain(env.GetString("CHAIN"))
		}

		contractAddress := persist.Address(strings.ToLower(c.Param("contract")))
		tokenID := persist.TokenID(c.Param("token_id"))

		nft, err := nftRepo.GetNftByIdentifiers(c, contractAddress, tokenID, chain)
		if err != nil {
			if _, ok := util.ErrorAs[persist.ErrNftNotFound](err); ok {
				util.ErrResponse(c, http.StatusNotFound, err)
				return
			}

			util.ErrResponse(c, http.StatusInternalServerError, err)
			return
		}

		c.JSON(http.StatusOK, nft)
	}
}
