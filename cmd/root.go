package cmd

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/config"
	"github.com/przemekoduje/overo/internal/media"
	"github.com/przemekoduje/overo/internal/scraper"
	"github.com/przemekoduje/overo/internal/store"
)

var (
	dataDir    string
	verbose    bool
	configPath string
	cfg        *config.Config
	klogFlags  = flag.NewFlagSet("klog", flag.ExitOnError)
)

var rootCmd = &cobra.Command{
	Use:          "overo",
	Short:        "Shoppable lookbook with polygon hotspots",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if cmd.Flags().Changed("data-dir") {
			cfg.Data.Dir = dataDir
		} else {
			dataDir = cfg.Data.Dir
		}
		if verbose {
			klogFlags.Set("v", "1")
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		return nil
	},
}

func init() {
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "Directory for the database and uploaded images")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
}

func Execute() error {
	defer klog.Flush()
	return rootCmd.Execute()
}

func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// openStore connects to the configured database.
func openStore() (*store.Store, error) {
	if cfg.Store.Driver == store.DriverDuckDB && cfg.Store.DSN == "" {
		return store.New(cfg.Data.Dir)
	}
	return store.Open(cfg.Store.Driver, cfg.StoreDSN())
}

func newProcessor() *media.Processor {
	return &media.Processor{
		Dir:      cfg.UploadDir(),
		Widths:   cfg.Media.VariantWidths,
		Quality:  cfg.Media.Quality,
		MaxBytes: int64(cfg.Media.MaxUploadMB) << 20,
	}
}

func newFetcher() *scraper.Fetcher {
	return &scraper.Fetcher{
		Client:    &http.Client{Timeout: cfg.Scrape.Timeout},
		UserAgent: cfg.Scrape.UserAgent,
		Limiter:   scraper.NewHostLimiter(cfg.Scrape.RateLimit),
	}
}
