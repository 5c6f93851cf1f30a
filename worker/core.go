package worker

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/service/logger"
	"github.com/artverse/ingest/service/media"
	"github.com/artverse/ingest/service/mintjobs"
	"github.com/artverse/ingest/service/persist/postgres"
	"github.com/artverse/ingest/service/sentryutil"
	"github.com/artverse/ingest/util"
)

// Init boots the metadata worker and blocks serving its health endpoint.
func Init() {
	setDefaults()

	logger.InitWithDefaults("worker", env.GetString("ENV"))
	sentryutil.Init("worker")

	worker := coreInit()

	ctx := context.Background()
	go func() {
		defer sentryutil.RecoverAndRaise(ctx)
		worker.Run(ctx)
	}()

	router := gin.Default()
	router.GET("/health", util.HealthCheckHandler())

	if err := router.Run(fmt.Sprintf(":%d", env.GetInt("WORKER_PORT"))); err != nil {
		panic(fmt.Errorf("error running router: %w", err))
	}
}

func coreInit() *Worker {
	db := postgres.MustCreateClient()
	nftRepo := postgres.NewNftRepository(db)

	consumer, err := mintjobs.NewConsumer()
	if err != nil {
		panic(err)
	}

	// a typed nil would make the interface non-nil downstream
	var uploader media.Uploader
	if s3 := media.NewS3Uploader(context.Background()); s3 != nil {
		uploader = s3
	}

	return NewWorker(consumer, nftRepo, uploader)
}

func setDefaults() {
	viper.SetDefault("ENV", "local")
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPIC", "nft_mint_jobs")
	viper.SetDefault("KAFKA_GROUP_ID", "metadata_worker_group")
	viper.SetDefault("KAFKA_SESSION_TIMEOUT_MS", 45000)
	viper.SetDefault("KAFKA_USERNAME", "")
	viper.SetDefault("KAFKA_PASSWORD", "")
	viper.SetDefault("KAFKA_SECURITY_PROTOCOL", "SASL_SSL")
	viper.SetDefault("KAFKA_SASL_MECHANISMS", "PLAIN")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("POSTGRES_HOST", "0.0.0.0")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "")
	viper.SetDefault("POSTGRES_DB", "postgres")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("AWS_REGION", "")
	viper.SetDefault("AWS_ACCESS_KEY_ID", "")
	viper.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	viper.SetDefault("WORKER_PORT", 3001)
	viper.SetDefault("SENTRY_DSN", "")

	viper.AutomaticEnv()

	env.RegisterValidation("KAFKA_BROKERS", "required")
}
