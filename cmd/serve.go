package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chasseuragace/videsh/internal/fitness"
	"github.com/chasseuragace/videsh/internal/httpapi"
	"github.com/chasseuragace/videsh/internal/logger"
	"github.com/chasseuragace/videsh/internal/ranking"
	"github.com/chasseuragace/videsh/internal/ratesync"
	"github.com/chasseuragace/videsh/internal/secrets"
	"github.com/chasseuragace/videsh/internal/store"
)

const (
	defaultListen   = ":8080"
	defaultCacheTTL = 15 * time.Minute
	defaultSyncSpec = "@every 6h"
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relevance API server",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	logger.Info("starting videsh", zap.String("version", version))

	scorer, err := fitness.NewScorer(weightsFromConfig(config.Ranking))
	if err != nil {
		logger.Fatal("building the fitness scorer", zap.Error(err))
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
	} else {
		logger.Info("redis-url not set, rate snapshots will hit postgres directly")
	}

	rates := store.NewRateSource(st, cache, logger)

	if syncer := prepareSyncer(config.Rates, st, cache, logger); syncer != nil {
		if err := syncer.Start(ctx); err != nil {
			logger.Fatal("starting rate sync", zap.Error(err))
		}
		defer syncer.Stop()
	} else {
		logger.Info("rate provider not configured, serving whatever rates are in the table")
	}

	rankingCfg := ranking.Config{}
	if config.Ranking != nil {
		rankingCfg.DefaultLimit = config.Ranking.DefaultLimit
		rankingCfg.MaxLimit = config.Ranking.MaxLimit
	}

	ranker := ranking.New(st, st, rates, scorer, rankingCfg, logger)
	server := httpapi.NewServer(ranker, rankingCfg.MaxLimit, logger)

	listen := config.Listen
	if listen == "" {
		listen = defaultListen
	}

	srv := &http.Server{
		Addr:    listen,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("listening", zap.String("addr", listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func weightsFromConfig(cfg *RankingConfig) fitness.Weights {
	weights := fitness.DefaultWeights()
	if cfg == nil || cfg.Weights == nil {
		return weights
	}

	weights.Skills = cfg.Weights.Skills
	weights.Education = cfg.Weights.Education
	weights.Experience = cfg.Weights.Experience
	if cfg.Weights.ReferenceSkillMonths > 0 {
		weights.ReferenceMonths = cfg.Weights.ReferenceSkillMonths
	}
	return weights
}

func cacheTTLFromConfig(cfg *RatesConfig, logger *zap.Logger) time.Duration {
	if cfg == nil || cfg.CacheTTL == "" {
		return defaultCacheTTL
	}
	ttl, err := time.ParseDuration(cfg.CacheTTL)
	if err != nil {
		logger.Warn("invalid rates.cache-ttl, falling back to default",
			zap.String("cache-ttl", cfg.CacheTTL),
			zap.Duration("default", defaultCacheTTL),
			zap.Error(err),
		)
		return defaultCacheTTL
	}
	return ttl
}

func prepareSyncer(cfg *RatesConfig, st *store.Store, cache *store.SnapshotCache, logger *zap.Logger) *ratesync.Syncer {
	if cfg == nil || cfg.ProviderURL == "" {
		return nil
	}

	token := ""
	if cfg.TokenFile != "" {
		loaded, err := secrets.Load(secrets.Source{
			Name: "rate provider token",
			File: cfg.TokenFile,
		})
		if err != nil {
			logger.Fatal("loading rate provider token", zap.Error(err))
		}
		token = loaded
	}

	spec := cfg.SyncSpec
	if spec == "" {
		spec = defaultSyncSpec
	}

	provider := ratesync.NewHTTPProvider(cfg.ProviderURL, token)
	return ratesync.New(provider, st, cache, spec, logger)
}
