package listener

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/service/logger"
	"github.com/artverse/ingest/service/mintjobs"
	"github.com/artverse/ingest/service/rpc"
	"github.com/artverse/ingest/service/sentryutil"
	"github.com/artverse/ingest/util"
)

// Init starts the mint listener: the log subscription runs in the background
// while a health endpoint serves on LISTENER_PORT.
func Init() {
	setDefaults()

	logger.InitWithDefaults("listener", env.GetString("ENV"))
	sentryutil.Init("listener")

	listener := coreInit()

	ctx := context.Background()
	go func() {
		defer sentryutil.RecoverAndRaise(ctx)

		// A lost subscription is not recoverable in-process; restart and resubscribe
		if err := listener.Start(ctx); err != nil {
			logger.For(ctx).WithError(err).Fatal("log subscription ended")
		}
	}()

	router := gin.Default()
	router.GET("/health", util.HealthCheckHandler())

	if err := router.Run(fmt.Sprintf(":%d", env.GetInt("LISTENER_PORT"))); err != nil {
		panic(fmt.Errorf("error running router: %w", err))
	}
}

func coreInit() *Listener {
	ethClient := rpc.NewEthClient()

	producer, err := mintjobs.NewProducer()
	if err != nil {
		panic(err)
	}

	return NewListener(ethClient, producer)
}

func setDefaults() {
	viper.SetDefault("ENV", "local")
	viper.SetDefault("ETHEREUM_WS_URL", "ws://localhost:8546")
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPIC", "nft_mint_jobs")
	viper.SetDefault("KAFKA_USERNAME", "")
	viper.SetDefault("KAFKA_PASSWORD", "")
	viper.SetDefault("KAFKA_SECURITY_PROTOCOL", "SASL_SSL")
	viper.SetDefault("KAFKA_SASL_MECHANISMS", "PLAIN")
	viper.SetDefault("CHAIN", "ethereum")
	viper.SetDefault("LISTENER_PORT", 4000)
	viper.SetDefault("SENTRY_DSN", "")

	viper.AutomaticEnv()

	env.RegisterValidation("ETHEREUM_WS_URL", "required")
	env.RegisterValidation("KAFKA_BROKERS", "required")
}
