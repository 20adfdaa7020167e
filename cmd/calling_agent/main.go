// calling_agent регистрирует линию на серверах Mobius и предоставляет
// локальный HTTP API для управления линией, вызовами и коннекторами бэкенда.
package main

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
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/arzzra/calling_client/pkg/agent"
	"github.com/arzzra/calling_client/pkg/auth"
	"github.com/arzzra/calling_client/pkg/callhistory"
	"github.com/arzzra/calling_client/pkg/callsettings"
	"github.com/arzzra/calling_client/pkg/line"
	"github.com/arzzra/calling_client/pkg/logger"
	"github.com/arzzra/calling_client/pkg/metrics"
	"github.com/arzzra/calling_client/pkg/registration"
	"github.com/arzzra/calling_client/pkg/voicemail"
	"github.com/arzzra/calling_client/pkg/webapi"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], osEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "calling_agent: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(os.Stderr, cfg.LogLevel)
	if cfg.Console {
		log = logger.NewConsole(os.Stderr, cfg.LogLevel)
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("agent stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(metrics.Config{Namespace: "calling", Registerer: reg})

	tokens := auth.NewStaticToken(cfg.Token, clock.New())
	if exp := tokens.ExpiresAt(); !exp.IsZero() {
		log.Info("access token loaded", slog.Time("expires_at", exp))
	}

	httpCfg := webapi.DefaultHTTPConfig()
	httpCfg.DeviceURI = cfg.DeviceURI
	requester := webapi.NewHTTPRequester(httpCfg, tokens, nil, log)

	l, err := line.New(cfg.lineConfig(), registration.NewMutex(),
		line.WithRequester(requester),
		line.WithMetrics(m),
		line.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			log.Warn("line close failed", slog.Any("error", err))
		}
	}()

	events, unsubscribe := l.Subscribe(64)
	defer unsubscribe()
	go logEvents(log, events)

	srvCfg := agent.Config{Line: l, Gatherer: reg, Logger: log}
	connectors(cfg, requester, m, log, &srvCfg)
	if srvCfg.CallHistory != nil {
		sessions, unsubscribeSessions := srvCfg.CallHistory.SubscribeSessions(16)
		defer srvCfg.CallHistory.Close()
		defer unsubscribeSessions()
		go logSessions(log, sessions)
	}

	if cfg.LogLevel != logger.LevelTrace {
		gin.SetMode(gin.ReleaseMode)
	}
	api, err := agent.New(srvCfg)
	if err != nil {
		return err
	}

	if cfg.RegisterAtStart {
		if err := l.Register(ctx); err != nil {
			// API остается доступным для повторной регистрации
			log.Warn("initial registration failed", slog.Any("error", err))
		}
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http api listening", slog.String("addr", cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// connectors подключает коннекторы бэкенда, для которых задана конфигурация
func connectors(cfg config, requester webapi.Requester, m *metrics.Collector, log *slog.Logger, out *agent.Config) {
	if cfg.Backend != "" {
		cs, err := callsettings.New(callsettings.Config{
			Backend:      cfg.Backend,
			UserID:       cfg.UserID,
			OrgID:        cfg.OrgID,
			WebexAPIs:    cfg.WebexAPIs,
			WebexAPIsInt: cfg.WebexAPIsInt,
			XSIEndpoint:  cfg.XSI,
		}, requester, callsettings.WithMetrics(m), callsettings.WithLogger(log))
		if err != nil {
			log.Warn("call settings disabled", slog.Any("error", err))
		} else {
			out.CallSettings = cs
		}

		vm, err := voicemail.New(voicemail.Config{
			Backend:        cfg.Backend,
			UserID:         cfg.UserID,
			XSIEndpoint:    cfg.XSI,
			VMRESTEndpoint: cfg.VMREST,
		}, requester, voicemail.WithMetrics(m), voicemail.WithLogger(log))
		if err != nil {
			log.Warn("voicemail disabled", slog.Any("error", err))
		} else {
			out.Voicemail = vm
		}
	}

	if cfg.Janus != "" {
		h, err := callhistory.New(cfg.Janus, requester, callhistory.WithMetrics(m), callhistory.WithLogger(log))
		if err != nil {
			log.Warn("call history disabled", slog.Any("error", err))
		} else {
			out.CallHistory = h
		}
	}
}

func logEvents(log *slog.Logger, events <-chan line.Event) {
	for ev := range events {
		attrs := []any{
			slog.String("type", string(ev.Type)),
			slog.String("line_id", ev.LineID),
		}
		if ev.Server != "" {
			attrs = append(attrs, slog.String("server", ev.Server))
		}
		if ev.Call != nil {
			attrs = append(attrs, slog.String("correlation_id", ev.Call.CorrelationID()))
		}
		if ev.Err != nil {
			attrs = append(attrs, slog.Any("error", ev.Err))
			log.Warn("line event", attrs...)
			continue
		}
		log.Info("line event", attrs...)
	}
}

func logSessions(log *slog.Logger, events <-chan callhistory.SessionEvent) {
	for ev := range events {
		log.Info("user sessions updated",
			slog.String("id", ev.ID),
			slog.Int("sessions", len(ev.Data.UserSessions.UserSessions)))
	}
}
