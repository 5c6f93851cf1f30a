package backfill

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/service/logger"
	"github.com/artverse/ingest/service/mintjobs"
	"github.com/artverse/ingest/service/persist"
	"github.com/artverse/ingest/service/rpc"
	"github.com/artverse/ingest/service/sentryutil"
	"github.com/artverse/ingest/util"
)

// Init runs the backfill once and returns when every queued job is flushed.
func Init() {
	setDefaults()

	logger.InitWithDefaults("backfill", env.GetString("ENV"))
	sentryutil.Init("backfill")

	ctx := context.Background()
	defer sentryutil.RecoverAndRaise(ctx)

	contracts := parseContracts(env.GetString("BACKFILL_CONTRACTS"))
	if len(contracts) == 0 {
		logger.For(ctx).Fatal("BACKFILL_CONTRACTS names no contracts")
	}

	producer, err := mintjobs.NewProducer(mintjobs.WithMessageTimeout(5 * time.Second))
	if err != nil {
		panic(err)
	}
	defer producer.Close()

	backfiller := NewBackfiller(rpc.NewEthHTTPClient(), producer)
	backfiller.Run(ctx, contracts)
}

func parseContracts(raw string) []persist.Address {
	split := util.SplitAndTrim(raw)

	contracts := make([]persist.Address, 0, len(split))
	for _, addr := range split {
		contracts = append(contracts, persist.Address(strings.ToLower(addr)))
	}
	return contracts
}

func setDefaults() {
	viper.SetDefault("ENV", "local")
	viper.SetDefault("ETHEREUM_HTTP_URL", "http://localhost:8545")
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPIC", "nft_mint_jobs")
	viper.SetDefault("KAFKA_USERNAME", "")
	viper.SetDefault("KAFKA_PASSWORD", "")
	viper.SetDefault("KAFKA_SECURITY_PROTOCOL", "SASL_SSL")
	viper.SetDefault("KAFKA_SASL_MECHANISMS", "PLAIN")
	viper.SetDefault("BACKFILL_CONTRACTS", "")
	viper.SetDefault("CHAIN", "ethereum")
	viper.SetDefault("SENTRY_DSN", "")

	viper.AutomaticEnv()

	env.RegisterValidation("ETHEREUM_HTTP_URL", "required")
	env.RegisterValidation("KAFKA_BROKERS", "required")
	env.RegisterValidation("BACKFILL_CONTRACTS", "required")
}
