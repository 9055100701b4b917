package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/me/timetable/internal/admin"
	"github.com/me/timetable/internal/config"
	"github.com/me/timetable/internal/logging"
	"github.com/me/timetable/internal/persist"
	"github.com/me/timetable/internal/protocol"
	"github.com/me/timetable/internal/schedule"
	"github.com/me/timetable/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configFile string
		addr       string
		adminAddr  string
		backend    string
		storePath  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the timetable server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if flags.Changed("admin-addr") {
				cfg.AdminAddr = adminAddr
			}
			if flags.Changed("store") {
				cfg.Store.Backend = backend
			}
			if flags.Changed("store-path") {
				cfg.Store.Path = storePath
			}
			if flags.Changed("log-level") || flagDebug {
				cfg.LogLevel = flagLogLevel
			}
			if flags.Changed("log-format") {
				cfg.LogFormat = flagLogFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, clock.New(), log)
			if err != nil {
				return err
			}
			if err := a.start(); err != nil {
				a.close()
				return err
			}

			<-ctx.Done()
			log.Info("shutting down")
			return a.shutdown()
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&addr, "addr", ":1234", "Lecture protocol listen address")
	cmd.Flags().StringVar(&adminAddr, "admin-addr", "", "Operator HTTP API address, empty to disable")
	cmd.Flags().StringVar(&backend, "store", config.BackendFile, "Store backend (file, sqlite, s3, memory)")
	cmd.Flags().StringVar(&storePath, "store-path", "SCHEDULE.csv", "Schedule file or database path")

	return cmd
}

// app is a wired timetable server.
type app struct {
	cfg     config.ServerConfig
	logger  *slog.Logger
	gateway persist.Gateway
	events  *logging.Recorder
	store   *schedule.Store
	server  *server.Server
	admin   *http.Server
}

func newApp(ctx context.Context, cfg config.ServerConfig, clk clock.Clock, logger *slog.Logger) (*app, error) {
	gw, err := persist.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rec := logging.NewRecorder(cfg.EventsBuffer)
	events := logging.Tee(rec, logging.NewSlogSink(logger))

	st := schedule.NewStore(gw, events, logger)
	if n, err := st.Load(ctx); err != nil {
		logger.Warn("starting with an empty schedule", "error", err)
	} else {
		logger.Info("schedule loaded", "backend", cfg.Store.Backend, "lectures", n)
	}

	compactor := schedule.NewCompactor(st, events, logger)
	handler := protocol.NewHandler(st, compactor, clk, logger)
	srv := server.New(cfg.Addr, handler, logger, server.WithEvents(events))

	a := &app{
		cfg:     cfg,
		logger:  logger,
		gateway: gw,
		events:  rec,
		store:   st,
		server:  srv,
	}
	if cfg.AdminAddr != "" {
		a.admin = &http.Server{
			Addr:    cfg.AdminAddr,
			Handler: admin.New(srv, st, rec, clk, logger, admin.WithEvents(events)),
		}
	}
	return a, nil
}

// start brings up the acceptor and the admin API. With the admin API
// enabled a bind failure is logged and the process keeps running so the
// operator can retry through POST /api/v1/server/start.
func (a *app) start() error {
	if err := a.server.Start(); err != nil {
		if a.admin == nil {
			return err
		}
		a.logger.Warn("lecture listener not started, retry via admin API", "addr", a.cfg.Addr, "error", err)
	}
	if a.admin != nil {
		go func() {
			a.logger.Info("admin API starting", "addr", a.admin.Addr)
			if err := a.admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("admin API failed", "error", err)
			}
		}()
	}
	return nil
}

// shutdown stops the admin API and the acceptor, waits for in-flight
// connections, then releases the store.
func (a *app) shutdown() error {
	var errs []error
	if a.admin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.admin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin shutdown: %w", err))
		}
	}
	a.server.Stop()
	a.server.Wait()
	if err := a.close(); err != nil {
		errs = append(errs, err)
	}
	a.logger.Info("server stopped")
	return errors.Join(errs...)
}

func (a *app) close() error {
	if err := persist.Close(a.gateway); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
