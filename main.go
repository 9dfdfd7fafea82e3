package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitebuilder/internal/app"
	"sitebuilder/internal/config"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/logging"
)

var (
	configPath string
	verbose    bool

	routeFlag string
	modeFlag  string
	storeFlag string
)

var rootCmd = &cobra.Command{
	Use:           "sitebuilder",
	Short:         "Layout editor backend for drag-and-drop storefront pages",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sitebuilder.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	for _, cmd := range []*cobra.Command{exportCmd, routesCmd, sectionCmd} {
		cmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Store ID (defaults to server.default_store)")
	}
	for _, cmd := range []*cobra.Command{sectionCreateCmd, sectionDeleteCmd} {
		cmd.Flags().StringVarP(&routeFlag, "route", "r", domain.HomeRoute, "Route to edit")
		cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(domain.ModeLarge), "Display mode: lg or sm")
	}

	routesCmd.AddCommand(routesCreateCmd, routesDeleteCmd)
	sectionCmd.AddCommand(sectionCreateCmd, sectionDeleteCmd)
	rootCmd.AddCommand(serveCmd, mcpCmd, exportCmd, routesCmd, sectionCmd)
}

// withApp loads the config, builds the logger and app, and runs fn with a
// context cancelled on SIGINT/SIGTERM.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level, verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()
	return fn(ctx, a)
}

func store(a *app.App) string {
	if storeFlag != "" {
		return storeFlag
	}
	return a.StoreID()
}

func docKey(a *app.App) (domain.DocKey, error) {
	mode, err := domain.ParseMode(modeFlag)
	if err != nil {
		return domain.DocKey{}, err
	}
	return domain.DocKey{StoreID: store(a), Route: routeFlag, Mode: mode}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the MCP endpoint and the scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.Serve(ctx)
		})
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve MCP over stdin/stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.ServeMCP()
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every route of a store as <route><mode>.json files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			res, err := a.Exports().Export(ctx, store(a))
			if err != nil {
				return err
			}
			for _, f := range res.Files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		})
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes of a store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			routes, err := a.Layouts().ListRoutes(ctx, store(a))
			if err != nil {
				return err
			}
			for _, r := range routes {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			return nil
		})
	},
}

var routesCreateCmd = &cobra.Command{
	Use:   "create <route>",
	Short: "Create a route",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			doc, err := a.Layouts().CreateRoute(ctx, store(a), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, doc)
		})
	},
}

var routesDeleteCmd = &cobra.Command{
	Use:   "delete <route>",
	Short: "Delete a route and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.Layouts().DeleteRoute(ctx, store(a), args[0])
		})
	},
}

var sectionCmd = &cobra.Command{
	Use:   "section",
	Short: "Create or delete sections of a route layout",
}

var sectionCreateCmd = &cobra.Command{
	Use:   "create <template>",
	Short: "Append a section cloned from a template and print its id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			key, err := docKey(a)
			if err != nil {
				return err
			}
			_, id, err := a.Layouts().CreateSection(ctx, key, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var sectionDeleteCmd = &cobra.Command{
	Use:   "delete <section-id>",
	Short: "Delete a section; unknown ids are ignored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			key, err := docKey(a)
			if err != nil {
				return err
			}
			l, err := a.Layouts().DeleteSection(ctx, key, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, l.Sections.Children.Order)
		})
	},
}
