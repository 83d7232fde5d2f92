package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "job-search"
)

type Config struct {
	Keywords []string         `mapstructure:"keywords"`
	Profile  *ProfileConfig   `mapstructure:"profile"`
	Sources  *SourcesConfig   `mapstructure:"sources"`
	Storage  *StorageConfig   `mapstructure:"storage"`
	Oracle   *OracleConfig    `mapstructure:"oracle"`
	Fresh    *FreshnessConfig `mapstructure:"freshness"`
	Scrape   *ScrapeConfig    `mapstructure:"scrape"`
	Scoring  *ScoringConfig   `mapstructure:"scoring"`
	Schedule string           `mapstructure:"schedule"`
}

type ProfileConfig struct {
	ID         string `mapstructure:"id"`
	ResumeFile string `mapstructure:"resume-file"`
}

type SourcesConfig struct {
	HeadHunter *HeadHunterConfig `mapstructure:"headhunter"`
	Adzuna     *AdzunaConfig     `mapstructure:"adzuna"`
	Remotive   *RemotiveConfig   `mapstructure:"remotive"`
}

type HeadHunterConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	UserAgent string `mapstructure:"user-agent"`
}

type AdzunaConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AppID      string `mapstructure:"app-id"`
	AppKeyFile string `mapstructure:"app-key-file"`
	Country    string `mapstructure:"country"`
}

type RemotiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type StorageConfig struct {
	PostgresDSN string       `mapstructure:"postgres-dsn"`
	Redis       *RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type OracleConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type FreshnessConfig struct {
	Window      string `mapstructure:"window"`
	MinListings int    `mapstructure:"min-listings"`
}

type ScrapeConfig struct {
	MaxInFlight int    `mapstructure:"max-in-flight"`
	Timeout     string `mapstructure:"timeout"`
	MaxRetries  int    `mapstructure:"max-retries"`
}

type ScoringConfig struct {
	SemanticFloor float64 `mapstructure:"semantic-floor"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-search scrapes job boards, scores listings against your profile and ranks the matches",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("oracle.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("storage.postgres-dsn", "JOB_SEARCH_POSTGRES_DSN"); err != nil {
		log.Fatalf("binding JOB_SEARCH_POSTGRES_DSN environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-search.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// A missing config file is fine; flags and environment cover the basics.
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			log.Fatal(err)
		}
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
