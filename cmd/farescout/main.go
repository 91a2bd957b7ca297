// FareScout — flight fare search over free-tier travel and FX APIs
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voyago/farescout/api"
	"github.com/voyago/farescout/internal/config"
	"github.com/voyago/farescout/internal/fx"
	"github.com/voyago/farescout/internal/logging"
	"github.com/voyago/farescout/internal/provider"
	"github.com/voyago/farescout/internal/providers"
	"github.com/voyago/farescout/internal/travel"
	"github.com/voyago/farescout/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "farescout",
	Short: "FareScout — flight fare search from the terminal",
	Long: `FareScout searches flight offers through the Amadeus Self-Service API,
resolves free-text place names to IATA codes, and normalizes fares to
EUR and USD using free exchange-rate feeds.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(locationsCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(providersCmd)
}

// setup builds the logger and registers all configured providers.
func setup() (*provider.Registry, *zap.Logger, error) {
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	reg := provider.Global()
	err = providers.RegisterAllTo(reg, providers.Credentials{
		AmadeusClientID:     cfg.Amadeus.ClientID,
		AmadeusClientSecret: cfg.Amadeus.ClientSecret,
		AmadeusBaseURL:      cfg.Amadeus.BaseURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("provider registration failed: %w", err)
	}
	if cfg.FX.Provider != "" {
		if err := reg.SetDefault(provider.ModelCurrencyRates, cfg.FX.Provider); err != nil {
			return nil, nil, fmt.Errorf("invalid fx provider %q: %w", cfg.FX.Provider, err)
		}
	}
	return reg, log, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("FareScout %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting FareScout API server on %s\n", addr)

		srv := api.NewServer(cfg, log, reg)
		return srv.ListenAndServe(addr)
	},
}

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search [origin] [destination]",
	Short: "Search flight offers between two places",
	Long: `Search flight offers between two free-text place names.

Examples:
  farescout search "Mexico City" Madrid --date 2025-06-01
  farescout search MEX MAD --date 2025-06-01 --adults 2`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dateFlag, _ := cmd.Flags().GetString("date")
		adults, _ := cmd.Flags().GetInt("adults")
		if dateFlag == "" {
			dateFlag = time.Now().AddDate(0, 0, 7).Format("2006-01-02")
		}

		reg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		resolver := travel.NewResolver(reg, log)
		ctx := cmd.Context()

		originCode, err := resolver.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		if originCode == "" {
			return fmt.Errorf("no location matches %q", args[0])
		}
		destCode, err := resolver.Resolve(ctx, args[1])
		if err != nil {
			return err
		}
		if destCode == "" {
			return fmt.Errorf("no location matches %q", args[1])
		}

		fmt.Printf("✈️  %s (%s) → %s (%s) on %s, %d adult(s)\n\n",
			args[0], originCode, args[1], destCode, dateFlag, adults)

		search := travel.NewFlightSearch(reg, fx.New(reg, log), log)
		records, err := search.Search(ctx, originCode, destCode, dateFlag, adults)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No offers found.")
			return nil
		}

		for i, rec := range records {
			fmt.Printf("%3d. %s → %s  dep %s  arr %s\n", i+1,
				rec.Origin, rec.Destination, rec.DepartureAt, rec.ArrivalAt)
			fmt.Printf("     %s  (%s / %s)  stops: %d  carrier: %s  cabin: %s\n",
				rec.PriceOriginal, rec.PriceEUR, rec.PriceUSD, rec.Stops, rec.Carrier, rec.Cabin)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().String("date", "", "departure date (YYYY-MM-DD, default: one week out)")
	searchCmd.Flags().Int("adults", 1, "number of adult passengers")
}

// --- Locations Command ---

var locationsCmd = &cobra.Command{
	Use:   "locations [keyword]",
	Short: "Look up cities and airports by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		res, err := reg.Fetch(cmd.Context(), provider.ModelLocationSearch,
			provider.QueryParams{provider.ParamKeyword: args[0]})
		if err != nil {
			return err
		}

		locations, _ := res.Data.([]models.Location)
		if len(locations) == 0 {
			fmt.Printf("No locations match %q.\n", args[0])
			return nil
		}
		for _, loc := range locations {
			fmt.Printf("  %-4s %-8s %s\n", loc.IATACode, loc.SubType, loc.Name)
		}
		return nil
	},
}

// --- Catalog Command ---

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Enumerate all selectable city and airport names",
	Long: `Enumerate the selectable city/airport names by querying the location
provider once per letter of the alphabet. The enumeration is paced to
stay under free-tier quotas and takes roughly half a minute.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		rate := cfg.Search.CatalogRatePerSec
		if rate <= 0 {
			rate = 1
		}
		builder := travel.NewCatalogBuilderWithPace(reg, log, rate, time.Second)
		builder.SetProgress(func(p travel.CatalogProgress) {
			fmt.Printf("\r  [%2d/%d] letter %s — %d names", p.Index, p.Total, p.Letter, p.Names)
		})

		names, err := builder.Build(cmd.Context())
		fmt.Println()
		for _, name := range names {
			fmt.Println(name)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  catalog is incomplete: %v\n", err)
		}
		fmt.Printf("\n%d names\n", len(names))
		return nil
	},
}

// --- Convert Command ---

var convertCmd = &cobra.Command{
	Use:   "convert [amount] [from] [to]",
	Short: "Convert a monetary amount between currencies",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[0])
		}

		reg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		conv, convErr := fx.New(reg, log).ConvertDetailed(cmd.Context(), amount, args[1], args[2])
		if convErr != nil {
			fmt.Fprintf(os.Stderr, "⚠️  %v\n", convErr)
		}
		if conv.Estimated {
			fmt.Printf("%.2f %s ≈ %.2f %s (unconverted estimate)\n",
				conv.Amount, conv.From, conv.Converted, conv.From)
			return nil
		}
		fmt.Printf("%.2f %s = %.2f %s (rate %.6f)\n",
			conv.Amount, conv.From, conv.Converted, conv.To, conv.Rate)
		return nil
	},
}

// --- Providers Command ---

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered data providers and model coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		for _, info := range reg.List() {
			fmt.Printf("  %-14s %s\n", info.Name, info.Description)
			for _, model := range info.Models {
				marker := " "
				if def, ok := reg.DefaultProvider(model); ok && def == info.Name {
					marker = "*"
				}
				fmt.Printf("    %s %s\n", marker, model)
			}
		}
		fmt.Println("\n  * default provider for the model")
		return nil
	},
}
