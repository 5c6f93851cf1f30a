package backfill

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/service/logger"
	"github.com/artverse/ingest/service/mintjobs"
	"github.com/artverse/ingest/service/persist"
	"github.com/artverse/ingest/service/rpc"
)

const contractCallTimeout = 10 * time.Second

// Producer is the slice of the job bus the backfiller needs
type Producer interface {
	Produce(job mintjobs.MintJob) error
}

type supplyFetcher func(ctx context.Context, contractAddress persist.Address) (*big.Int, error)

type uriFetcher func(ctx context.Context, contractAddress persist.Address, tokenID persist.TokenID) (string, error)

// Backfiller enumerates already minted tokens of enumerable ERC-721 contracts
// and produces one mint job per token whose URI is readable. Tokens whose URI
// call fails are skipped outright; the steady-state listener is the only path
// that produces jobs with no URI.
type Backfiller struct {
	producer    Producer
	fetchSupply supplyFetcher
	fetchURI    uriFetcher
	chain       persist.Chain
}

// NewBackfiller wires a backfiller to a chain node and a producer
func NewBackfiller(ethClient *ethclient.Client, producer Producer) *Backfiller {
	return &Backfiller{
		producer: producer,
		fetchSupply: func(ctx context.Context, contractAddress persist.Address) (*big.Int, error) {
			return rpc.GetTotalSupply(ctx, contractAddress, ethClient)
		},
		fetchURI: func(ctx context.Context, contractAddress persist.Address, tokenID persist.TokenID) (string, error) {
			return rpc.GetTokenURI(ctx, persist.TokenTypeERC721, contractAddress, tokenID, ethClient)
		},
		chain: persist.Chain(env.GetString("CHAIN")),
	}
}

// Run backfills every contract in order. A contract whose supply cannot be
// read is logged and skipped; it never aborts the run.
func (b *Backfiller) Run(ctx context.Context, pContracts []persist.Address) {
	for _, contractAddress := range pContracts {
		b.backfillContract(ctx, contractAddress)
	}

	logger.For(ctx).Info("backfill finished")
}

func (b *Backfiller) backfillContract(pCtx context.Context, pContractAddress persist.Address) {
	ctx := logger.NewContextWithFields(pCtx, logrus.Fields{"contractAddress": pContractAddress})

	supplyCtx, cancel := context.WithTimeout(ctx, contractCallTimeout)
	defer cancel()

	totalSupply, err := b.fetchSupply(supplyCtx, pContractAddress)
	if err != nil {
		logger.For(ctx).WithError(err).Error("failed to fetch total supply, skipping contract")
		return
	}

	logger.For(ctx).Infof("backfilling %s tokens", totalSupply)

	// Token ids are assumed to run 1 through totalSupply inclusive, the common
	// enumerable layout. Zero-based collections miss token 0.
	one := big.NewInt(1)
	for i := big.NewInt(1); i.Cmp(totalSupply) <= 0; i.Add(i, one) {
		tokenID := persist.TokenIDFromBig(i)

		turi, err := b.fetchTokenURI(ctx, pContractAddress, tokenID)
		if err != nil {
			logger.For(ctx).WithError(err).Errorf("failed to fetch URI for token %s, skipping", tokenID)
			continue
		}

		job := mintjobs.MintJob{
			ContractAddress: pContractAddress,
			TokenID:         tokenID,
			Chain:           b.chain,
			MetadataURI:     &turi,
		}

		if err := b.producer.Produce(job); err != nil {
			logger.For(ctx).WithError(err).Errorf("failed to produce job for token %s", tokenID)
			continue
		}

		logger.For(ctx).Debugf("queued job for token %s", tokenID)
	}
}

func (b *Backfiller) fetchTokenURI(pCtx context.Context, pContractAddress persist.Address, pTokenID persist.TokenID) (string, error) {
	ctx, cancel := context.WithTimeout(pCtx, contractCallTimeout)
	defer cancel()

	return b.fetchURI(ctx, pContractAddress, pTokenID)
}
