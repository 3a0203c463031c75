package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/streamoverlay/server/internal/apiclient"
	"github.com/streamoverlay/server/internal/controller"
	"github.com/streamoverlay/server/internal/domain"
	"github.com/streamoverlay/server/internal/panel"
	"github.com/streamoverlay/server/internal/render"
	"github.com/streamoverlay/server/internal/repository/connection"
	connInmemory "github.com/streamoverlay/server/internal/repository/connection/inmemory"
	eventsInmemory "github.com/streamoverlay/server/internal/repository/events/inmemory"
	eventsRedis "github.com/streamoverlay/server/internal/repository/events/redis"
	"github.com/streamoverlay/server/internal/repository/overlay"
	overlayRedis "github.com/streamoverlay/server/internal/repository/overlay/redis"
	"github.com/streamoverlay/server/internal/repository/overlay/sqldb"
	overlayService "github.com/streamoverlay/server/internal/service/overlay"
	"github.com/streamoverlay/server/internal/service/stream"
	"github.com/streamoverlay/server/pkg/ctxlogger"
	"github.com/streamoverlay/server/pkg/idgen"
	"github.com/streamoverlay/server/pkg/redisclient"
	"golang.org/x/sync/errgroup"
)

const (
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	shutdownTimeout = 30 * time.Second
)

type AppConfig struct {
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	LogLevel      string        `json:"log_level"`
	Storage       string        `json:"storage"`
	DatabaseDSN   string        `json:"-"`
	StreamsDir    string        `json:"streams_dir"`
	APIURL        string        `json:"api_url"`
	ManifestPath  string        `json:"manifest_path"`
	PollInterval  time.Duration `json:"poll_interval"`
	RedisHost     string        `json:"redis_host"`
	RedisPort     int           `json:"redis_port"`
	RedisPassword string        `json:"-"`
	RedisChannel  string        `json:"redis_channel"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}
	switch cfg.Storage {
	case StorageRedis:
		if cfg.RedisHost == "" {
			return fmt.Errorf("redis host must be set for redis storage")
		}
	case StorageSQLite, StoragePostgres:
		if cfg.DatabaseDSN == "" {
			return fmt.Errorf("database dsn must be set for %s storage", cfg.Storage)
		}
	default:
		return fmt.Errorf("unknown storage %q", cfg.Storage)
	}
	if cfg.StreamsDir == "" {
		return fmt.Errorf("streams dir must be set")
	}
	if cfg.ManifestPath == "" {
		return fmt.Errorf("manifest path must be set")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	return nil
}

type overlayRepo interface {
	SetOverlay(context.Context, *overlay.SetOverlayParams) error
	GetOverlay(context.Context, string) (overlay.Overlay, error)
	ListOverlays(context.Context) ([]overlay.Overlay, error)
	UpdateOverlay(context.Context, *overlay.UpdateOverlayParams) error
	RemoveOverlay(context.Context, string) error
}

type eventBus interface {
	Publish(context.Context, domain.Event) error
	Subscribe(context.Context, func(domain.Event)) error
}

type app struct {
	listener net.Listener
	server   *http.Server
	poller   *panel.Poller
	store    *panel.Store
	bus      eventBus
	closers  []func() error
	logger   *slog.Logger
}

func Run(ctx context.Context, cfg *AppConfig) error {
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}),
	}
	logger := slog.New(&h)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	return a.serve(ctx)
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}

	return level, nil
}

func newApp(cfg *AppConfig, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}

	repo, err := a.openStorage(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	a.listener = listener

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = selfURL(listener.Addr())
	}

	renderer, err := render.NewRenderer()
	if err != nil {
		a.close()
		return nil, err
	}

	client := apiclient.New(apiURL)
	store := panel.NewStore()
	a.store = store
	a.poller = panel.NewPoller(client, store, cfg.PollInterval, logger)

	ctrl := controller.NewController(
		overlayService.NewService(repo, a.bus, idgen.UUID{}, logger),
		stream.NewService(cfg.StreamsDir),
		controller.Panel{
			Store:     store,
			Editor:    panel.NewEditor(client, a.poller, store),
			Form:      panel.NewAddForm(client, a.poller, store),
			Refresher: a.poller,
		},
		renderer,
		connInmemory.NewRepo(logger, connection.DefaultWriteWait),
		cfg.ManifestPath,
		logger,
	)

	store.Subscribe(func(s panel.State) {
		if err := ctrl.BroadcastOverlays(context.Background(), s.Overlays); err != nil {
			logger.Warn("failed to broadcast overlays", "error", err)
		}
	})

	a.server = &http.Server{
		Handler:           ctrl.GetMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *app) openStorage(cfg *AppConfig) (overlayRepo, error) {
	switch cfg.Storage {
	case StorageRedis:
		rc, err := redisclient.NewRedisClient(&redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		a.closers = append(a.closers, rc.Close)
		a.bus = eventsRedis.NewBus(rc, cfg.RedisChannel, a.logger)

		return overlayRedis.NewRepo(rc, a.logger), nil
	case StorageSQLite, StoragePostgres:
		db, err := sqldb.Open(cfg.Storage, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", cfg.Storage, err)
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		a.bus = eventsInmemory.NewBus()

		return sqldb.NewRepo(db, a.logger), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

// selfURL is the address the panel uses to reach this server.
func selfURL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String()
	}

	host := tcp.IP.String()
	if tcp.IP.IsUnspecified() {
		host = "127.0.0.1"
	}

	return "http://" + net.JoinHostPort(host, fmt.Sprint(tcp.Port))
}

func (a *app) Addr() net.Addr {
	return a.listener.Addr()
}

// serve runs the HTTP server, the panel poller and the event forwarder until
// ctx is done, then shuts the server down gracefully.
func (a *app) serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if err := a.bus.Subscribe(gctx, func(e domain.Event) {
		a.logger.Debug("overlay event", "type", e.Type, "overlay_id", e.OverlayID)
		a.poller.Trigger()
	}); err != nil {
		return fmt.Errorf("failed to subscribe to overlay events: %w", err)
	}

	g.Go(func() error {
		a.logger.InfoContext(gctx, "starting server", "address", a.listener.Addr().String())
		if err := a.server.Serve(a.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return a.poller.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.logger.Info("shutting down server")
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", "error", err)
		}
	}
	if a.listener != nil {
		a.listener.Close()
	}
}
