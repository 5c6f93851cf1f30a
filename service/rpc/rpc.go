package rpc

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/websocket"

	"github.com/artverse/ingest/contracts"
	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/service/persist"
)

const defaultDialTimeout = time.Second * 10

// NewEthClient returns an ethereum client connected over a websocket, suitable for log subscriptions
func NewEthClient() *ethclient.Client {
	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	dialer := *websocket.DefaultDialer
	dialer.ReadBufferSize = 1024 * 20
	rpcClient, err := rpc.DialWebsocketWithDialer(ctx, env.GetString("ETHEREUM_WS_URL"), "", dialer)
	if err != nil {
		panic(err)
	}

	return ethclient.NewClient(rpcClient)
}

// NewEthHTTPClient returns an ethereum client connected over HTTP, suitable for one-off contract calls
func NewEthHTTPClient() *ethclient.Client {
	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, env.GetString("ETHEREUM_HTTP_URL"))
	if err != nil {
		panic(err)
	}

	return client
}

// GetTokenURI returns the metadata URI for a given token. Some contracts pad the returned
// string with NUL bytes, which are stripped before use.
func GetTokenURI(ctx context.Context, pTokenType persist.TokenType, pContractAddress persist.Address, pTokenID persist.TokenID, ethClient *ethclient.Client) (string, error) {
	contract := pContractAddress.ToCommon()

	switch pTokenType {
	case persist.TokenTypeERC721:
		instance, err := contracts.NewIERC721MetadataCaller(contract, ethClient)
		if err != nil {
			return "", err
		}

		turi, err := instance.TokenURI(&bind.CallOpts{
			Context: ctx,
		}, pTokenID.BigInt())
		if err != nil {
			return "", err
		}

		return strings.ReplaceAll(turi, "\x00", ""), nil
	case persist.TokenTypeERC1155:
		instance, err := contracts.NewIERC1155MetadataURICaller(contract, ethClient)
		if err != nil {
			return "", err
		}

		turi, err := instance.Uri(&bind.CallOpts{
			Context: ctx,
		}, pTokenID.BigInt())
		if err != nil {
			return "", err
		}

		return strings.ReplaceAll(turi, "\x00", ""), nil
	default:
		return "", fmt.Errorf("unknown token type: %s", pTokenType)
	}
}

// GetTotalSupply returns the number of tokens minted by an ERC-721 Enumerable contract
func GetTotalSupply(ctx context.Context, pContractAddress persist.Address, ethClient *ethclient.Client) (*big.Int, error) {
	instance, err := contracts.NewIERC721EnumerableCaller(pContractAddress.ToCommon(), ethClient)
	if err != nil {
		return nil, err
	}

	return instance.TotalSupply(&bind.CallOpts{
		Context: ctx,
	})
}
