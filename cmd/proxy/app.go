package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"network-leveling/internal/adapters/discord"
	"network-leveling/internal/adapters/proxylink"
	"network-leveling/internal/adapters/sessions"
	"network-leveling/internal/adapters/storage/flatfile"
	"network-leveling/internal/adapters/storage/mongodb"
	"network-leveling/internal/adapters/storage/postgres"
	"network-leveling/internal/adapters/transport/direct"
	"network-leveling/internal/adapters/transport/pubsub"
	"network-leveling/internal/config"
	"network-leveling/internal/core/ports"
	"network-leveling/internal/core/services/progression"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config        *config.Config
	ledger        ports.Ledger
	transport     ports.Transport
	hub           *proxylink.Hub
	sessions      *sessions.Registry
	manager       *progression.Manager
	discord       *discordgo.Session
	linkServer    *http.Server
	metricsServer *http.Server
	servers       *errgroup.Group
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	ledger, err := newLedger(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}

	hub := proxylink.NewHub()
	transport, err := newTransport(ctx, cfg, hub)
	if err != nil {
		ledger.Close()
		return nil, fmt.Errorf("transport: %w", err)
	}

	app := &App{
		config:    cfg,
		ledger:    ledger,
		transport: transport,
		hub:       hub,
		sessions:  sessions.NewRegistry(),
	}

	var announcer ports.Announcer
	if cfg.DiscordEnabled() {
		session, err := discord.NewSession(cfg)
		if err != nil {
			app.closeBackends()
			return nil, fmt.Errorf("discord: %w", err)
		}
		app.discord = session
		announcer = discord.NewAdapter(session, cfg)
	}

	app.manager = progression.NewManager(progression.Dependencies{
		Ledger:      ledger,
		Transport:   transport,
		Players:     app.sessions,
		Announcer:   announcer,
		Progression: cfg.Progression,
	})

	hub.OnServer(app.sessions.ServerLinked)
	hub.OnSession(app.sessions.HandleSession(ctx))
	app.sessions.OnConnect(app.manager.PlayerConnected)

	return app, nil
}

func newLedger(ctx context.Context, cfg *config.Config) (ports.Ledger, error) {
	switch cfg.LedgerBackend {
	case config.LedgerPostgres:
		l, err := postgres.NewPostgresLedger(ctx, postgres.Options{
			URL:            cfg.DatabaseURL,
			Table:          cfg.LedgerTable,
			MinConns:       int32(cfg.PoolMinConns),
			MaxConns:       int32(cfg.PoolMaxConns),
			AcquireTimeout: cfg.PoolAcquireTimeout,
		})
		if err != nil {
			return nil, err
		}
		if err := l.EnsureSchema(ctx); err != nil {
			l.Close()
			return nil, err
		}
		return l, nil

	case config.LedgerMongo:
		l, err := mongodb.NewMongoLedger(ctx, mongodb.Options{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			Collection:     cfg.LedgerTable,
			MinConns:       uint64(cfg.PoolMinConns),
			MaxConns:       uint64(cfg.PoolMaxConns),
			AcquireTimeout: cfg.PoolAcquireTimeout,
		})
		if err != nil {
			return nil, err
		}
		if err := l.EnsureIndex(ctx, progression.KeyField); err != nil {
			slog.Warn("Could not ensure ledger index", "error", err)
		}
		return l, nil

	case config.LedgerFlatFile:
		return flatfile.NewFlatFileLedger(cfg.DataDir)

	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

func newTransport(ctx context.Context, cfg *config.Config, hub *proxylink.Hub) (ports.Transport, error) {
	switch cfg.TransportBackend {
	case config.TransportDirect:
		return direct.NewDirectTransport(hub), nil

	case config.TransportRedis:
		slog.Warn("Redis transport only resolves ServerSource for backend servers also connected to the link endpoint",
			"link_addr", cfg.LinkAddr,
			"path", "/link",
		)
		return pubsub.NewRedisTransport(ctx, pubsub.Options{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			PoolSize:    cfg.RedisPoolSize,
			PoolTimeout: cfg.RedisPoolTimeout,
		})

	default:
		return nil, fmt.Errorf("unknown transport backend %q", cfg.TransportBackend)
	}
}

func (a *App) Run(ctx context.Context) error {
	if err := a.manager.RegisterMessaging(ctx); err != nil {
		return err
	}

	if a.discord != nil {
		if err := a.discord.Open(); err != nil {
			slog.Error("Failed to open discord session", "error", err)
			return err
		}
	}

	a.servers = &errgroup.Group{}
	a.startLinkServer()
	a.startMetricsServer()

	slog.Info("Network leveling proxy is online",
		"ledger", a.config.LedgerBackend,
		"transport", a.config.TransportBackend,
		"link_addr", a.config.LinkAddr,
	)
	return nil
}

func (a *App) startLinkServer() {
	mux := http.NewServeMux()
	mux.Handle("/link", a.hub)

	a.linkServer = &http.Server{
		Addr:              a.config.LinkAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.serve("link", a.linkServer)
}

func (a *App) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	a.metricsServer = &http.Server{
		Addr:              a.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.serve("metrics", a.metricsServer)
}

func (a *App) serve(name string, srv *http.Server) {
	if a.servers == nil {
		a.servers = &errgroup.Group{}
	}
	a.servers.Go(func() error {
		slog.Info("Starting server", "name", name, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "name", name, "error", err)
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	})
}

// Reload rereads the progression file and swaps it in. An invalid file
// leaves the current settings untouched.
func (a *App) Reload() error {
	p, err := config.LoadProgression(a.config.ProgressionFile)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	a.manager.Reload(p)
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down...")

	var errs []error

	if a.hub != nil {
		if err := a.hub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close link hub: %w", err))
		}
	}

	for _, srv := range []*http.Server{a.linkServer, a.metricsServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
		}
	}
	if a.servers != nil {
		if err := a.servers.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.manager != nil {
		waited := make(chan struct{})
		go func() {
			a.manager.Wait()
			close(waited)
		}()
		select {
		case <-waited:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("wait for announcements: %w", ctx.Err()))
		}
	}

	if a.discord != nil {
		if err := a.discord.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close discord: %w", err))
		}
	}

	errs = append(errs, a.closeBackends()...)
	return errors.Join(errs...)
}

func (a *App) closeBackends() []error {
	var errs []error
	if a.transport != nil {
		if err := a.transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close transport: %w", err))
		}
	}
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close ledger: %w", err))
		}
	}
	return errs
}
