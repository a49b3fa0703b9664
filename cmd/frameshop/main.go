package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"frameshop/internal/config"
	"frameshop/internal/logging"
)

var (
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "frameshop",
	Short: "Photo framing shop backend",
	Long: `frameshop serves the storefront API of a photo framing shop: the frame
customizer with live pricing, carts, checkout, order tracking, the blog and the
order dashboard for the staff.

Configuration is read from --config and overridden by environment variables
(PG_HOST, PG_USER, PG_PASS, PG_PORT, PG_NAME, NATS_URL, HTTP_ADDRESS,
RABBITMQ_URI, LOG_LEVEL, STORAGE_DRIVER, TRACKING_SALT, FRAMESHOP_SEED,
FRAMESHOP_QUEUE, FRAMESHOP_ASSETS). PRINT_WORKERS sets how many print jobs
the fulfillment worker handles at once.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Development)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "frameshop.yaml", "path to the YAML config file")

	serveCmd.Flags().BoolVar(&withWorkers, "with-workers", false, "also consume print jobs in this process")
	seedCmd.Flags().StringVar(&seedFile, "file", "catalog.yaml", "YAML file with products, options and blog posts")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, fulfillmentCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
