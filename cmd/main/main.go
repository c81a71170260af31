package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pokelearn/web/internal/config"
	"pokelearn/web/internal/container"
	"pokelearn/web/internal/domain"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("Application exited with error: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pokelearn",
		Short:         "Search the Pokémon catalog behind a sign-in",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ./config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE:  runServe,
	})
	root.AddCommand(newSearchCmd())

	return root
}

func loadContainer() (*container.Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Info("Configuration loaded successfully")

	app, err := container.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	return app, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Info("Starting PokeLearn...")

	app, err := loadContainer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		return err
	}

	log.Info("Application finished successfully")
	return nil
}

func newSearchCmd() *cobra.Command {
	var (
		typeFilter string
		generation string
		page       int
	)

	cmd := &cobra.Command{
		Use:   "search <prefix>",
		Short: "Run one search against the catalog and print the page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadContainer()
			if err != nil {
				return err
			}

			state := domain.NewFilterState().
				WithSearchTerm(args[0]).
				WithType(typeFilter).
				WithGeneration(generation).
				WithPage(page)

			idx := app.NewListingView().LoadIndex(cmd.Context())
			result, err := app.Pipeline.Run(cmd.Context(), idx, state)
			if err != nil {
				return fmt.Errorf("search failed: %s: %w", domain.UserMessage(err), err)
			}
			printPage(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeFilter, "type", domain.All, "type filter")
	cmd.Flags().StringVar(&generation, "gen", domain.All, `generation filter, e.g. "Gen 1"`)
	cmd.Flags().IntVar(&page, "page", 1, "page number")

	return cmd
}

func printPage(w io.Writer, page domain.ResultPage) {
	if page.TotalCount == 0 {
		fmt.Fprintln(w, "No Pokémon found.")
	}
	for _, item := range page.Items {
		fmt.Fprintf(w, "#%-5d %-24s %s\n", item.ID, item.Name, strings.Join(item.Types, ", "))
	}
	fmt.Fprintf(w, "Page %d of %d (%d matches)\n", page.CurrentPage, page.TotalPages, page.TotalCount)
	if page.Truncated {
		fmt.Fprintf(w, "Only the first %d name matches were checked\n", page.Candidates)
	}
}
