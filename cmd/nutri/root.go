package nutri

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saadjs/nutri-cli/internal/app"
	"github.com/saadjs/nutri-cli/internal/config"
	"github.com/saadjs/nutri-cli/internal/logging"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	cfg    = config.DefaultConfig()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "nutri",
	Short:         "nutri keeps the clinical records of a nutrition practice",
	Long:          "nutri is a local-first record manager for a nutrition clinic: patients, visit notes, measurements, labs, meal plans and adherence.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvironment()
	},
}

func Execute() {
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return app.DefaultConfigPath()
}

// loadEnvironment reads the config file and builds the logger. Flags win over the file.
func loadEnvironment() error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	l, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	logger = l
	logger.Debug("config loaded", zap.String("path", path))
	return nil
}
