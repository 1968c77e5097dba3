package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "videsh"
)

type Config struct {
	Listen      string         `mapstructure:"listen"`
	DatabaseURL string         `mapstructure:"database-url"`
	RedisURL    string         `mapstructure:"redis-url"`
	Ranking     *RankingConfig `mapstructure:"ranking"`
	Rates       *RatesConfig   `mapstructure:"rates"`
}

type RankingConfig struct {
	DefaultLimit int            `mapstructure:"default-limit"`
	MaxLimit     int            `mapstructure:"max-limit"`
	Weights      *WeightsConfig `mapstructure:"weights"`
}

type WeightsConfig struct {
	Skills               float64 `mapstructure:"skills"`
	Education            float64 `mapstructure:"education"`
	Experience           float64 `mapstructure:"experience"`
	ReferenceSkillMonths int     `mapstructure:"reference-skill-months"`
}

type RatesConfig struct {
	ProviderURL string `mapstructure:"provider-url"`
	TokenFile   string `mapstructure:"token-file"`
	SyncSpec    string `mapstructure:"sync-spec"`
	CacheTTL    string `mapstructure:"cache-ttl"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "videsh serves relevance-ranked overseas job postings to candidates",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("database-url", "VIDESH_DATABASE_URL"); err != nil {
		log.Fatalf("binding VIDESH_DATABASE_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("redis-url", "VIDESH_REDIS_URL"); err != nil {
		log.Fatalf("binding VIDESH_REDIS_URL environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is videsh.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Only the serving and syncing commands need a config file.
	if serveCmd.CalledAs() == "" && ratesSyncCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
