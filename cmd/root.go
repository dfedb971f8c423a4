package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "match-scorer"
)

type Config struct {
	Source    *SourceConfig    `mapstructure:"source"`
	Recommend *RecommendConfig `mapstructure:"recommend"`
	AI        *AIConfig        `mapstructure:"ai"`
}

type SourceConfig struct {
	Type   string        `mapstructure:"type" validate:"omitempty,oneof=file rest sqlite"`
	File   string        `mapstructure:"file"`
	REST   *RESTConfig   `mapstructure:"rest"`
	SQLite *SQLiteConfig `mapstructure:"sqlite"`
}

type RESTConfig struct {
	URL             string `mapstructure:"url" validate:"omitempty,url"`
	APIKey          string `mapstructure:"api-key"`
	APIKeyFile      string `mapstructure:"api-key-file"`
	JobsTable       string `mapstructure:"jobs-table"`
	CandidatesTable string `mapstructure:"candidates-table"`
	PageSize        int    `mapstructure:"page-size" validate:"gte=0"`
	UserAgent       string `mapstructure:"user-agent"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RecommendConfig struct {
	Limit            int      `mapstructure:"limit" validate:"gte=0"`
	Jitter           float64  `mapstructure:"jitter" validate:"gte=0,lte=100"`
	Seed             uint64   `mapstructure:"seed"`
	MinScore         int      `mapstructure:"min-score" validate:"gte=0,lte=100"`
	ExcludeFile      string   `mapstructure:"exclude-file"`
	ExcludeEmployers []string `mapstructure:"exclude-employers"`
}

type AIConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Provider   string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
	ExplainTop int           `mapstructure:"explain-top" validate:"gte=0"`
	Gemini     *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "match-scorer scores how well candidates fit job postings and ranks recommendations",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("source.rest.api-key-file", "MATCH_SCORER_SOURCE_API_KEY_FILE"); err != nil {
		log.Fatalf("binding MATCH_SCORER_SOURCE_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("source.type", "file")
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.explain-top", 3)
	viper.SetDefault("ai.timeout", 20*time.Second)
	viper.SetDefault("ai.gemini.max-retries", 2)
	viper.SetDefault("ai.gemini.max-log-length", 2000)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is match-scorer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command works without any config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
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

	if config == nil {
		config = &Config{}
	}
	if config.Source == nil {
		config.Source = &SourceConfig{}
	}
	if config.Recommend == nil {
		config.Recommend = &RecommendConfig{}
	}

	if err := validateConfig(config); err != nil {
		return config, err
	}

	return config, nil
}

const redactedValue = "<redacted>"

// redacted returns a copy of the config with inline secrets masked, suitable for logging.
func (c *Config) redacted() *Config {
	out := *c

	if c.Source != nil && c.Source.REST != nil {
		source := *c.Source
		rest := *c.Source.REST
		if rest.APIKey != "" {
			rest.APIKey = redactedValue
		}
		source.REST = &rest
		out.Source = &source
	}

	if c.AI != nil && c.AI.Gemini != nil {
		aiCfg := *c.AI
		gemini := *c.AI.Gemini
		if gemini.APIKey != "" {
			gemini.APIKey = redactedValue
		}
		aiCfg.Gemini = &gemini
		out.AI = &aiCfg
	}

	return &out
}

var validate = validator.New()

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
