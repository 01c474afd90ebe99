// Package runtime provides the Gateway struct that assembles configuration,
// identity verification, history storage, upstream providers and the relay
// HTTP server, and manages their lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/tjfontaine/mindspark/internal/adapters/auth/apikey"
	"github.com/tjfontaine/mindspark/internal/core/ports"
	"github.com/tjfontaine/mindspark/internal/generation"
	"github.com/tjfontaine/mindspark/internal/pkg/config"
	"github.com/tjfontaine/mindspark/internal/provider/registry"
	"github.com/tjfontaine/mindspark/internal/relay"
	"github.com/tjfontaine/mindspark/internal/server"
	"github.com/tjfontaine/mindspark/internal/tokens"
)

// Gateway is the main entry point for running the relay.
// It can be embedded in larger applications or run standalone.
type Gateway struct {
	// Dependencies (injected via options or built from config at Start)
	config   ports.ConfigProvider
	verifier ports.IdentityVerifier
	store    ports.HistoryStore
	listener net.Listener

	// Internal state
	providers map[string]ports.Provider
	server    *server.Server
	logger    *slog.Logger
	serveErr  chan error

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
}

// New creates a new Gateway with the given options. A config provider is
// required; storage and identity verification default to what the loaded
// config describes.
func New(opts ...Option) (*Gateway, error) {
	gw := &Gateway{
		logger:    slog.Default(),
		providers: make(map[string]ports.Provider),
	}

	for _, opt := range opts {
		if err := opt(gw); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if gw.config == nil {
		return nil, fmt.Errorf("config provider required (use WithFileConfig or WithConfigProvider)")
	}

	return gw, nil
}

// Start loads the configuration, builds the relay and starts serving in the
// background.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ctx, g.cancel = context.WithCancel(ctx)

	cfg, err := g.config.Load(g.ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if g.verifier == nil {
		v, err := apikey.NewProvider(cfg)
		if err != nil {
			return fmt.Errorf("init identities: %w", err)
		}
		g.verifier = v
		if len(cfg.Identities) == 0 {
			g.logger.Warn("no identities configured, every API request will be rejected")
		}
	}

	if g.store == nil {
		store, err := OpenStore(g.ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		g.store = store
	}

	if err := g.initProviders(cfg); err != nil {
		return fmt.Errorf("init providers: %w", err)
	}

	handler, err := g.buildRelay(cfg)
	if err != nil {
		return fmt.Errorf("init relay: %w", err)
	}

	if err := g.startServer(cfg, handler); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	go g.watchConfig()

	g.logger.Info("gateway started",
		slog.Int("port", cfg.Server.Port),
		slog.Int("providers", len(g.providers)),
		slog.Int("identities", len(cfg.Identities)))

	return nil
}

// Addr returns the address the server is listening on, or nil before Start.
func (g *Gateway) Addr() net.Addr {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.listener == nil {
		return nil
	}
	return g.listener.Addr()
}

// Done returns a channel that receives the serve error, if any, once the
// server stops.
func (g *Gateway) Done() <-chan error {
	return g.serveErr
}

// Shutdown stops accepting requests, waits for in-flight streams (and their
// history writes) to finish and closes resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("shutting down gateway")

	if g.cancel != nil {
		g.cancel()
	}

	var errs []error
	if g.server != nil {
		if err := g.server.Shutdown(ctx); err != nil {
			g.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if g.store != nil {
		if err := g.store.Close(); err != nil {
			g.logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}

	if g.config != nil {
		if err := g.config.Close(); err != nil {
			g.logger.Error("failed to close config", slog.String("error", err.Error()))
		}
	}

	g.logger.Info("gateway shutdown complete")
	return errors.Join(errs...)
}

// watchConfig reloads identities when the config changes. Providers and
// storage are fixed for the lifetime of the process.
func (g *Gateway) watchConfig() {
	onChange := func(newCfg *config.Config) {
		g.logger.Info("config changed, reloading")
		if err := g.reload(newCfg); err != nil {
			g.logger.Error("failed to reload", slog.String("error", err.Error()))
		}
	}

	if err := g.config.Watch(g.ctx, onChange); err != nil {
		if !errors.Is(err, context.Canceled) {
			g.logger.Error("config watch failed", slog.String("error", err.Error()))
		}
	}
}

func (g *Gateway) reload(cfg *config.Config) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	reloader, ok := g.verifier.(interface{ ReloadFromConfig(*config.Config) error })
	if !ok {
		return nil
	}
	if err := reloader.ReloadFromConfig(cfg); err != nil {
		return fmt.Errorf("reload identities: %w", err)
	}

	g.logger.Info("reload complete", slog.Int("identities", len(cfg.Identities)))
	return nil
}

// initProviders builds every configured provider through the registry.
func (g *Gateway) initProviders(cfg *config.Config) error {
	g.logger.Debug("initializing providers", slog.Int("count", len(cfg.Providers)))

	if len(cfg.Providers) == 0 {
		return fmt.Errorf("no providers configured")
	}

	providers := make(map[string]ports.Provider, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		if pc.Name == "" {
			return fmt.Errorf("provider of type %q has no name", pc.Type)
		}
		if _, dup := providers[pc.Name]; dup {
			return fmt.Errorf("duplicate provider name %q", pc.Name)
		}
		p, err := registry.CreateFromFactory(pc)
		if err != nil {
			return err
		}
		providers[pc.Name] = p
		g.logger.Info("provider ready", slog.String("name", pc.Name), slog.String("type", pc.Type))
	}

	g.providers = providers
	return nil
}

// providerFor returns the provider named by name, or the first configured
// provider when name is empty.
func (g *Gateway) providerFor(cfg *config.Config, name string) (ports.Provider, config.ProviderConfig, error) {
	if name == "" {
		name = cfg.Providers[0].Name
	}
	p, ok := g.providers[name]
	if !ok {
		return nil, config.ProviderConfig{}, fmt.Errorf("unknown provider %q", name)
	}
	pc, _ := cfg.Provider(name)
	return p, pc, nil
}

func (g *Gateway) buildRelay(cfg *config.Config) (*relay.Handler, error) {
	metaProvider, _, err := g.providerFor(cfg, cfg.Generation.MetadataProvider)
	if err != nil {
		return nil, fmt.Errorf("metadata provider: %w", err)
	}
	answerProvider, answerCfg, err := g.providerFor(cfg, cfg.Generation.AnswerProvider)
	if err != nil {
		return nil, fmt.Errorf("answer provider: %w", err)
	}

	resolver := generation.NewImageResolver(metaProvider,
		generation.WithImageBaseURL(cfg.Generation.ImageBaseURL),
		generation.WithImageLogger(g.logger),
	)
	explainer := generation.NewExplainer(answerProvider, cfg.Generation.AnswerWords)

	return relay.NewHandler(resolver, explainer, g.store,
		relay.WithLogger(g.logger),
		relay.WithTokenCounter(tokens.ForModel(answerCfg.Model)),
		relay.WithPersistTimeout(cfg.Generation.PersistTimeout),
		relay.WithPageSize(cfg.History.PageSize),
	), nil
}

func (g *Gateway) startServer(cfg *config.Config, handler *relay.Handler) error {
	g.logger.Debug("starting HTTP server", slog.Int("port", cfg.Server.Port))

	srv := server.New(cfg.Server.Port, g.logger,
		server.WithRequestTimeout(cfg.Server.RequestTimeout),
		server.WithCORSOrigins(cfg.Server.CORSOrigins),
	)
	handler.Mount(srv.Router, g.verifier)

	if g.listener == nil {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
		if err != nil {
			return err
		}
		g.listener = ln
	}

	g.server = srv
	g.serveErr = make(chan error, 1)
	go func() {
		err := srv.Serve(g.listener)
		if err != nil {
			g.logger.Error("server error", slog.String("error", err.Error()))
		}
		g.serveErr <- err
	}()

	return nil
}
