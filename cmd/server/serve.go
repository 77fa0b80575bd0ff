package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apphttp "github.com/fardannozami/wa-session-gateway/internal/app/http"
	"github.com/fardannozami/wa-session-gateway/internal/app/usecase"
	"github.com/fardannozami/wa-session-gateway/internal/config"
	"github.com/fardannozami/wa-session-gateway/internal/dispatch"
	"github.com/fardannozami/wa-session-gateway/internal/infra/db"
	"github.com/fardannozami/wa-session-gateway/internal/infra/wa"
	applog "github.com/fardannozami/wa-session-gateway/internal/log"
	"github.com/fardannozami/wa-session-gateway/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	applog.Configure(applog.Config{Level: cfg.LogLevel})
	return cfg, nil
}

func sessionOptions(cfg config.Config) session.Options {
	opts := session.DefaultOptions()
	opts.PairingTTL = cfg.Pairing.TTL
	opts.PairingWait = cfg.Pairing.Wait
	opts.Reconnect = session.ReconnectPolicy{
		Base:   cfg.Reconnect.Base,
		Growth: cfg.Reconnect.Growth,
		Cap:    cfg.Reconnect.Cap,
	}
	opts.RetryAfterLogout = cfg.Reconnect.RetryAfterLogout
	return opts
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := applog.WithComponent("server")

	manager, err := wa.NewManager(wa.Config{
		BasePath:       cfg.SQLitePath,
		MediaCacheSize: cfg.MediaCacheSize,
	}, applog.WithComponent("wa"))
	if err != nil {
		return fmt.Errorf("init whatsapp manager: %w", err)
	}
	defer func() {
		if err := manager.Close(); err != nil {
			logger.Warn().Err(err).Msg("close whatsapp stores")
		}
	}()

	markers, err := wa.LoadClosedMarkers(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("load closed markers: %w", err)
	}

	sqlDB, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	owners, err := db.NewOwnerStore(ctx, sqlDB)
	if err != nil {
		return err
	}

	registry := session.NewRegistry(manager, sessionOptions(cfg), applog.WithComponent("session")).
		WithClosedStore(markers)
	dispatcher := dispatch.New(dispatch.Options{
		SendInterval: cfg.Send.Interval,
		SendBurst:    cfg.Send.Burst,
	}, applog.WithComponent("dispatch"))

	// Jobs outlive the request that submitted them but not the process.
	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	jobs, err := usecase.NewJobRunner(jobCtx, cfg.JobCacheSize, applog.WithComponent("jobs"))
	if err != nil {
		cancelJobs()
		return err
	}

	handler := apphttp.NewHandler(apphttp.Usecases{
		CreateSession: usecase.NewCreateSessionUsecase(registry),
		Status:        usecase.NewSessionStatusUsecase(registry),
		ListSessions:  usecase.NewListSessionsUsecase(registry),
		PairCode:      usecase.NewPairCodeUsecase(registry),
		PairStream:    usecase.NewPairStreamUsecase(registry, cfg.Pairing.TTL),
		StopSession:   usecase.NewStopSessionUsecase(registry),
		DeleteSession: usecase.NewDeleteSessionUsecase(registry, dispatcher),
		SendMessage:   usecase.NewSendMessageUsecase(registry, dispatcher),
		SendBatch: usecase.NewSendBatchUsecase(registry, dispatcher, jobs, usecase.BatchDefaults{
			BatchDelay:  cfg.Send.BatchDelay,
			FanoutDelay: cfg.Send.FanoutDelay,
		}),
		GetJob:      usecase.NewGetJobUsecase(jobs),
		CreateOwner: usecase.NewCreateOwnerUsecase(owners),
	}, owners, cfg.HTTP.AuthEnabled, applog.WithComponent("http"))

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := apphttp.NewRouter(handler, apphttp.RouterConfig{
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      applog.WithComponent("http"),
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	restore := usecase.NewRestoreSessionsUsecase(registry, manager, markers, applog.WithComponent("restore"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		restored, err := restore.Execute(gctx)
		if err != nil {
			logger.Error().Err(err).Msg("restore sessions")
			return nil
		}
		logger.Info().Strs("sessions", restored).Msg("sessions restored")
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		registry.Shutdown(shutdownCtx)
		cancelJobs()
		jobs.Wait()
		return err
	})

	return g.Wait()
}
