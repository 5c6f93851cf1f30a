package listener

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/artverse/ingest/contracts"
	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/service/logger"
	"github.com/artverse/ingest/service/mintjobs"
	"github.com/artverse/ingest/service/persist"
	"github.com/artverse/ingest/service/rpc"
)

type eventHash string

const (
	// transferEventHash represents the keccak256 hash of Transfer(address,address,uint256)
	transferEventHash eventHash = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	// transferSingleEventHash represents the keccak256 hash of TransferSingle(address,address,address,uint256,uint256)
	transferSingleEventHash eventHash = "0xc3d58168c5ae7397731d063d5bbf3d657854427343f4c083240f7aacaa2d0f62"
	// transferBatchEventHash represents the keccak256 hash of TransferBatch(address,address,address,uint256[],uint256[])
	transferBatchEventHash eventHash = "0x4a39dc06d4c0dbc64b70af90fd698a233a518aa5d07e595d983b8c0526c8f7fb"
)

const uriCallTimeout = time.Second * 10

// Producer is the slice of the job bus the listener needs
type Producer interface {
	Produce(job mintjobs.MintJob) error
}

type uriFetcher func(ctx context.Context, tokenType persist.TokenType, contractAddress persist.Address, tokenID persist.TokenID) (string, error)

// mint is one token observed entering circulation
type mint struct {
	contractAddress persist.Address
	tokenID         persist.TokenID
	tokenType       persist.TokenType
}

// Listener subscribes to the transfer event streams and emits one mint job per
// minted token, in log order.
type Listener struct {
	ethClient *ethclient.Client
	producer  Producer
	fetchURI  uriFetcher
	chain     persist.Chain
}

// NewListener creates a listener that publishes mint jobs through the given producer
func NewListener(ethClient *ethclient.Client, producer Producer) *Listener {
	return &Listener{
		ethClient: ethClient,
		producer:  producer,
		fetchURI: func(ctx context.Context, tokenType persist.TokenType, contractAddress persist.Address, tokenID persist.TokenID) (string, error) {
			return rpc.GetTokenURI(ctx, tokenType, contractAddress, tokenID, ethClient)
		},
		chain: persist.Chain(env.GetString("CHAIN")),
	}
}

// Start subscribes to transfer logs and processes them until the subscription
// fails or the context ends. The error it returns is fatal to the service;
// per-log problems are logged and skipped.
func (l *Listener) Start(ctx context.Context) error {
	logsChan := make(chan types.Log)

	query := ethereum.FilterQuery{
		Topics: [][]common.Hash{{
			common.HexToHash(string(transferEventHash)),
			common.HexToHash(string(transferSingleEventHash)),
			common.HexToHash(string(transferBatchEventHash)),
		}},
	}

	sub, err := l.ethClient.SubscribeFilterLogs(ctx, query, logsChan)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	logger.For(ctx).Info("listening for transfer logs")

	for {
		select {
		case err := <-sub.Err():
			return err
		case pLog := <-logsChan:
			l.processLog(ctx, pLog)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// processLog turns one log into zero or more mint jobs. The URI view call runs per
// minted token; when it fails the job still goes out with a null URI so the mint is
// never lost.
func (l *Listener) processLog(pCtx context.Context, pLog types.Log) {
	for _, m := range logToMints(pCtx, pLog) {
		job := mintjobs.MintJob{
			ContractAddress: m.contractAddress,
			TokenID:         m.tokenID,
			Chain:           l.chain,
		}

		ctx, cancel := context.WithTimeout(pCtx, uriCallTimeout)
		turi, err := l.fetchURI(ctx, m.tokenType, m.contractAddress, m.tokenID)
		cancel()
		if err != nil {
			logger.For(pCtx).WithError(err).Warnf("could not read URI for token %s of contract %s", m.tokenID, m.contractAddress)
		} else {
			job.MetadataURI = &turi
		}

		if err := l.producer.Produce(job); err != nil {
			logger.For(pCtx).WithError(err).Errorf("failed to enqueue mint job for token %s of contract %s", m.tokenID, m.contractAddress)
		}
	}
}

// logToMints extracts the tokens a transfer log minted. Transfers between two live
// addresses produce nothing, and malformed logs are logged and skipped.
func logToMints(pCtx context.Context, pLog types.Log) []mint {
	// ERC-20 transfers share the Transfer signature but carry only 3 topics
	if len(pLog.Topics) < 4 {
		logger.For(pCtx).Debugf("skipping transfer log with %d topics at block %d", len(pLog.Topics), pLog.BlockNumber)
		return nil
	}

	contractAddress := persist.AddressFromCommon(pLog.Address)

	switch pLog.Topics[0] {
	case common.HexToHash(string(transferEventHash)):
		if pLog.Topics[1] != (common.Hash{}) {
			return nil
		}

		return []mint{{
			contractAddress: contractAddress,
			tokenID:         persist.TokenIDFromBig(pLog.Topics[3].Big()),
			tokenType:       persist.TokenTypeERC721,
		}}
	case common.HexToHash(string(transferSingleEventHash)):
		if pLog.Topics[2] != (common.Hash{}) {
			return nil
		}

		// A few contracts index the id as a fourth topic; standard contracts
		// carry (id, value) in the data segment.
		var id *big.Int
		if len(pLog.Topics) >= 5 {
			id = pLog.Topics[4].Big()
		} else {
			eventData, err := unpackERC1155Event(pCtx, "TransferSingle", pLog.Data)
			if err != nil {
				return nil
			}

			var ok bool
			id, ok = eventData["id"].(*big.Int)
			if !ok {
				logger.For(pCtx).Warnf("TransferSingle log at block %d carries no id", pLog.BlockNumber)
				return nil
			}
		}

		return []mint{{
			contractAddress: contractAddress,
			tokenID:         persist.TokenIDFromBig(id),
			tokenType:       persist.TokenTypeERC1155,
		}}
	case common.HexToHash(string(transferBatchEventHash)):
		if pLog.Topics[2] != (common.Hash{}) {
			return nil
		}

		eventData, err := unpackERC1155Event(pCtx, "TransferBatch", pLog.Data)
		if err != nil {
			return nil
		}

		ids, ok := eventData["ids"].([]*big.Int)
		if !ok {
			logger.For(pCtx).Warnf("TransferBatch log at block %d carries no ids", pLog.BlockNumber)
			return nil
		}

		mints := make([]mint, 0, len(ids))
		for _, id := range ids {
			mints = append(mints, mint{
				contractAddress: contractAddress,
				tokenID:         persist.TokenIDFromBig(id),
				tokenType:       persist.TokenTypeERC1155,
			})
		}
		return mints
	default:
		logger.For(pCtx).Warnf("skipping log with unknown event %s at block %d", pLog.Topics[0], pLog.BlockNumber)
		return nil
	}
}

func unpackERC1155Event(pCtx context.Context, event string, data []byte) (map[string]interface{}, error) {
	erc1155ABI, err := contracts.IERC1155MetaData.GetAbi()
	if err != nil {
		return nil, err
	}

	eventData := map[string]interface{}{}
	if err := erc1155ABI.UnpackIntoMap(eventData, event, data); err != nil {
		logger.For(pCtx).WithError(err).Errorf("failed to unpack %s event", event)
		return nil, err
	}

	return eventData, nil
}
