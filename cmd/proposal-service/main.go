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

	"github.com/nurpe/proposals/internal/access"
	"github.com/nurpe/proposals/internal/auth"
	"github.com/nurpe/proposals/internal/config"
	"github.com/nurpe/proposals/internal/content"
	"github.com/nurpe/proposals/internal/db"
	"github.com/nurpe/proposals/internal/document"
	"github.com/nurpe/proposals/internal/excel"
	httphandler "github.com/nurpe/proposals/internal/http"
	"github.com/nurpe/proposals/internal/http/middleware"
	"github.com/nurpe/proposals/internal/logger"
	"github.com/nurpe/proposals/internal/metrics"
	"github.com/nurpe/proposals/internal/pdf"
	"github.com/nurpe/proposals/internal/repository"
	"github.com/nurpe/proposals/internal/service"
	"github.com/nurpe/proposals/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proposalRepo := repository.NewProposalRepository(database, cfg.Proposal.ShareLinkTTL)
	profileRepo := repository.NewProfileRepository(database)
	gate := access.NewGate(access.ProfileSource(profileRepo), access.TeamMemberSource(profileRepo))
	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	var mailer access.Mailer = access.NewLogMailer(log)
	if cfg.SMTP.Enabled() {
		mailer = access.NewSMTPMailer(cfg.SMTP)
	}
	accounts := access.NewAccounts(profileRepo, gate, tokenParser, mailer, access.AccountsConfig{
		AccessTTL:     cfg.Auth.AccessTTL,
		InviteTTL:     cfg.Auth.InviteTTL,
		InviteBaseURL: cfg.Auth.InviteBaseURL,
		BcryptCost:    cfg.Auth.BcryptCost,
	}, log)

	m := metrics.New()
	sessions := service.NewSessions(proposalRepo, gate, content.Options{
		Debounce:   cfg.Proposal.Debounce,
		SavedReset: cfg.Proposal.SavedReset,
		Author:     cfg.Proposal.Author,
		Observer:   m,
		Log:        log,
	}, m, log)
	go sessions.Sweep(ctx, time.Minute, cfg.Proposal.SessionIdleTTL)

	documents := document.NewExporter(cfg.Export.PandocPath)
	if !documents.Available() {
		log.Warn().Str("pandoc", cfg.Export.PandocPath).Msg("pandoc not found, docx and pptx exports disabled")
	}
	exports := service.NewExports(pdf.NewGenerator(), documents, excel.NewGenerator())

	var uploader service.Uploader
	if cfg.Storage.Enabled() {
		objects, err := storage.NewMinio(ctx, cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init object storage")
		}
		uploader = objects
	} else {
		log.Warn().Msg("object storage not configured, uploads disabled")
	}

	proposalService := service.NewProposalService(proposalRepo, sessions, exports, uploader, m, log)

	handler := httphandler.NewHandler(proposalService, accounts, log)
	authMiddleware := middleware.Auth(tokenParser, gate)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, httphandler.RouterOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Log:            log,
		Observer:       m,
		Metrics:        m.Handler(),
	})

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("starting proposal service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := proposalService.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to flush editing sessions")
		os.Exit(1)
	}
}
