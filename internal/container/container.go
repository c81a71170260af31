package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pokelearn/web/internal/api"
	"pokelearn/web/internal/client"
	"pokelearn/web/internal/config"
	"pokelearn/web/internal/pipeline"
	"pokelearn/web/internal/service"
	"pokelearn/web/internal/state"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Container holds all initialized components
type Container struct {
	Config   *config.Config
	Catalog  client.CatalogClient
	Identity client.IdentityClient
	Pipeline *pipeline.Pipeline
	Sessions state.SessionStore
	Auth     *service.AuthService
	Gate     *service.Gate
	Server   *api.Server

	httpServer *http.Server
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	if err := ConfigureLogging(cfg.Log); err != nil {
		return nil, err
	}

	container := &Container{
		Config: cfg,
	}

	container.Catalog = client.NewCatalogClient(cfg.Catalog)
	container.Identity = client.NewIdentityClient(cfg.Auth)

	container.Pipeline = pipeline.New(container.Catalog, pipeline.Options{
		CandidateCap: cfg.Catalog.CandidateCap,
		PageSize:     cfg.Catalog.PageSize,
		MaxWorkers:   cfg.Catalog.MaxWorkers,
	})

	container.Sessions = state.NewMemorySessionStore()
	container.Auth = service.NewAuthService(container.Identity, container.Sessions)
	container.Gate = service.NewGate(container.Identity)

	server, err := api.New(api.Deps{
		Auth:           container.Auth,
		Gate:           container.Gate,
		Sessions:       container.Sessions,
		NewView:        container.NewListingView,
		Session:        cfg.Session,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	container.Server = server

	container.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return container, nil
}

// NewListingView creates the search state for one view session.
func (c *Container) NewListingView() *service.ListingView {
	return service.NewListingView(c.Catalog, c.Pipeline)
}

// Run serves HTTP until ctx is cancelled, then drains open connections
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("🚀 PokeLearn listening on http://%s", c.httpServer.Addr)
		if err := c.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return c.Close()
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	timeout := time.Duration(c.Config.Server.ShutdownTimeout) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := c.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	log.Info("Container shut down successfully")
	return nil
}

func ConfigureLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return nil
}
