package cmd

import (
	"context"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chasseuragace/videsh/internal/logger"
	"github.com/chasseuragace/videsh/internal/store"
)

const promptYes = "Yes"

var assumeYes bool

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Manage currency exchange rates",
}

var ratesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch rates from the configured provider and store them",
	Run: func(_ *cobra.Command, _ []string) {
		syncRates()
	},
}

func init() {
	ratesSyncCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")

	ratesCmd.AddCommand(ratesSyncCmd)
	rootCmd.AddCommand(ratesCmd)
}

func syncRates() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.DatabaseURL == "" {
		logger.Fatal("database-url is required",
			zap.String("hint", "set VIDESH_DATABASE_URL or the 'database-url' key in the configuration file"),
		)
	}
	if config.Rates == nil || config.Rates.ProviderURL == "" {
		logger.Fatal("rates.provider-url is required for syncing")
	}

	if !assumeYes && !confirm("Overwrite stored exchange rates with the provider's current ones?") {
		logger.Info("sync cancelled")
		return
	}

	pool, err := store.NewPostgresPool(ctx, config.DatabaseURL)
	if err != nil {
		logger.Fatal("connecting to postgres", zap.Error(err))
	}
	defer pool.Close()

	st := store.New(pool, logger)

	var cache *store.SnapshotCache
	if config.RedisURL != "" {
		rdb, err := store.NewRedisClient(ctx, config.RedisURL)
		if err != nil {
			logger.Fatal("connecting to redis", zap.Error(err))
		}
		defer rdb.Close()

		cache = store.NewSnapshotCache(rdb, cacheTTLFromConfig(config.Rates, logger), logger)
	}

	syncer := prepareSyncer(config.Rates, st, cache, logger)

	if err := syncer.RunOnce(ctx); err != nil {
		logger.Fatal("syncing rates", zap.Error(err))
	}
}

func confirm(question string) bool {
	prompt := promptui.Select{
		Label: question,
		Items: []string{promptYes, "No"},
	}

	_, answer, err := prompt.Run()
	if err != nil {
		log.Fatalf("running a confirmation prompt: %s", err)
	}

	return answer == promptYes
}
