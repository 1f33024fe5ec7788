package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config keys. Each is also a flag and a RESCUE_* environment variable
// (dashes become underscores).
const (
	cfgLogLevel        = "log-level"
	cfgLogFormat       = "log-format"
	cfgStore           = "store"
	cfgTable           = "table"
	cfgNamespace       = "namespace"
	cfgConsistentRead  = "consistent-read"
	cfgEndpoint        = "endpoint"
	cfgRegion          = "region"
	cfgListConcurrency = "list-concurrency"
	cfgAddr            = "addr"
	cfgPath            = "path"
	cfgMetrics         = "metrics"
	cfgTimeout         = "timeout"
)

const envPrefix = "RESCUE"

var configFile string

// cfg holds the merged configuration, populated by PersistentPreRunE.
var cfg = viper.New()

var rootCmd = &cobra.Command{
	Use:           "rescue",
	Short:         "Rescue serves animal rescue records over GraphQL",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./rescue.yaml if present)")
	addRootFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lambdaCmd)
	rootCmd.AddCommand(versionCmd)
}

func addRootFlags(fs *pflag.FlagSet) {
	fs.String(cfgLogLevel, "info", "log level: debug, info, warn, error")
	fs.String(cfgLogFormat, "text", "log format: text or json")
	fs.String(cfgStore, storeDynamoDB, "namespace backend: dynamodb or memory")
	fs.String(cfgTable, "rescue_kv", "DynamoDB table holding the namespace")
	fs.String(cfgNamespace, "animal_rescues", "namespace binding name")
	fs.Bool(cfgConsistentRead, true, "use strongly consistent DynamoDB reads")
	fs.String(cfgEndpoint, "", "DynamoDB endpoint override (e.g. DynamoDB Local)")
	fs.String(cfgRegion, "", "AWS region (default: from the AWS config chain)")
	fs.Int(cfgListConcurrency, 64, "maximum concurrent reads while listing records")
}

// loadConfig merges flags, environment and the optional config file into cfg.
// Precedence: flag > environment > config file > default.
func loadConfig(cmd *cobra.Command) error {
	if err := cfg.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	if configFile != "" {
		cfg.SetConfigFile(configFile)
	} else {
		cfg.SetConfigName("rescue")
		cfg.SetConfigType("yaml")
		cfg.AddConfigPath(".")
	}
	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing default config file is not an error.
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// newLogger builds the process logger from configuration.
func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.GetString(cfgLogLevel))); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", cfgLogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch format := cfg.GetString(cfgLogFormat); format {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid %s %q: want text or json", cfgLogFormat, format)
	}
}
