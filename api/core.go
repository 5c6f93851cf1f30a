package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/middleware"
	"github.com/artverse/ingest/service/logger"
	"github.com/artverse/ingest/service/persist"
	"github.com/artverse/ingest/service/persist/postgres"
	"github.com/artverse/ingest/service/sentryutil"
	"github.com/artverse/ingest/util"
)

// Init boots the read API and blocks serving it.
func Init() {
	setDefaults()

	logger.InitWithDefaults("api", env.GetString("ENV"))
	sentryutil.Init("api")

	router := CoreInitServer()

	if err := router.Run(fmt.Sprintf(":%d", env.GetInt("PORT"))); err != nil {
		panic(fmt.Errorf("error running router: %w", err))
	}
}

// CoreInitServer builds the router with its repositories attached
func CoreInitServer() *gin.Engine {
	db := postgres.MustCreateClient()
	nftRepo := postgres.NewNftRepository(db)

	router := gin.Default()
	router.Use(middleware.HandleCORS())

	return handlersInitServer(router, nftRepo)
}

func handlersInitServer(router *gin.Engine, nftRepo persist.NftRepository) *gin.Engine {
	router.GET("/health", util.HealthCheckHandler())

	nftsGroup := router.Group("/nfts")
	nftsGroup.GET("", getNfts(nftRepo))
	nftsGroup.GET("/:contract/:token_id", getNftByIdentifiers(nftRepo))

	return router
}

func setDefaults() {
	viper.SetDefault("ENV", "local")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("POSTGRES_HOST", "0.0.0.0")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "")
	viper.SetDefault("POSTGRES_DB", "postgres")
	viper.SetDefault("CHAIN", "ethereum")
	viper.SetDefault("PORT", 3000)
	viper.SetDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	viper.SetDefault("SENTRY_DSN", "")

	viper.AutomaticEnv()
}
