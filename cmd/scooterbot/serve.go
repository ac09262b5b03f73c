package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/scooter-intake/internal/bot"
	httpapi "github.com/tbourn/scooter-intake/internal/http"
	"github.com/tbourn/scooter-intake/internal/observability"
	"github.com/tbourn/scooter-intake/internal/scheduler"
	"github.com/tbourn/scooter-intake/internal/sysutil"
)

// shutdownGrace bounds the HTTP drain and tracer flush on exit.
const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, the scheduled reports and the HTTP API",
	Long: `Run everything until SIGINT or SIGTERM:

  - Telegram long polling (skipped when BOT_TOKEN is empty)
  - morning and evening shift reports to REPORT_CHAT_IDS
  - /health, /metrics and, with API_TOKEN set, the admin API on PORT`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Telegram
	var (
		tg  *bot.Bot
		out scheduler.Delivery
	)
	if cfg.Bot.Token != "" {
		client, err := bot.NewClient(cfg.Bot.Token)
		if err != nil {
			return err
		}
		tg = bot.New(client, cfg.Bot, cfg.Location, a.intake, a.reports)
		out = tg.Sender()
	} else {
		log.Warn().Msg("BOT_TOKEN is empty; Telegram polling and scheduled reports are off")
		cfg.Schedule.Enabled = false
	}

	sched, err := scheduler.New(cfg.Schedule, cfg.Location, cfg.Bot.ReportChatIDs, a.reports, out, a.intake)
	if err != nil {
		return err
	}

	// HTTP
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, a.db, httpapi.Services{Intake: a.intake, Reports: a.reports}, cfg)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Bool("admin_api", cfg.APIToken != "").Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error { return sched.Run(gctx) })
	if tg != nil {
		g.Go(func() error { return tg.Run(gctx) })
	}

	err = g.Wait()
	if err != nil {
		log.Error().Str("err", sysutil.RedactErr(err)).Msg("serve stopped")
		return err
	}
	log.Info().Msg("bye")
	return nil
}
