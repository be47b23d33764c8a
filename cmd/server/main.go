package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/invitame/wedding-invitation-service/internal/cache"
	"github.com/invitame/wedding-invitation-service/internal/config"
	"github.com/invitame/wedding-invitation-service/internal/database"
	"github.com/invitame/wedding-invitation-service/internal/handler"
	"github.com/invitame/wedding-invitation-service/internal/mailer"
	appmw "github.com/invitame/wedding-invitation-service/internal/middleware"
	"github.com/invitame/wedding-invitation-service/internal/payment"
	"github.com/invitame/wedding-invitation-service/internal/publish"
	"github.com/invitame/wedding-invitation-service/internal/queue"
	"github.com/invitame/wedding-invitation-service/internal/repository"
	"github.com/invitame/wedding-invitation-service/internal/router"
	"github.com/invitame/wedding-invitation-service/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.With().Str("service", "wedding-invitation").Logger()
	if cfg.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn().Msg("redis unavailable; response cache, roster cache and rate limiting disabled")
	}

	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	guests := repository.NewGuestRepo(db)
	tables := repository.NewTableRepo(db)
	landing := repository.NewLandingRepo(db)
	wishes := repository.NewWishListRepo(db)
	withdrawals := repository.NewWithdrawalRepo(db)
	payments := repository.NewPaymentRepo(db)

	// integrations; each one is optional so local development can run
	// with just MySQL
	var provider *payment.Client
	if cfg.Payment.AccessToken != "" {
		provider, err = payment.NewClient(payment.Config{
			BaseURL:      cfg.Payment.BaseURL,
			AccessToken:  cfg.Payment.AccessToken,
			RefreshToken: cfg.Payment.RefreshToken,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("payment client init failed")
		}
	} else {
		logger.Warn().Msg("payment provider not configured; publish and gift checkouts disabled")
	}

	mail := mailer.NewClient(mailer.Config{
		BaseURL: cfg.Mailer.BaseURL,
		Token:   cfg.Mailer.Token,
		From:    cfg.Mailer.From,
	})
	if !mail.Enabled() {
		logger.Warn().Msg("mail relay not configured; queued emails will fail delivery")
	}

	var media storage.MediaStore
	if cfg.Storage.Bucket != "" {
		s3store, err := storage.NewS3MediaStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("media storage init failed")
		}
		media = s3store
	} else {
		logger.Warn().Msg("media storage not configured; landing uploads disabled")
	}

	roster := cache.NewRoster(rdb)
	watchers := publish.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the email worker drains the outbound queue in the background
	go queue.StartEmailConsumer(ctx, mail, logger)

	// handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	owner := router.OwnerHandlers{
		Guests:   handler.NewGuestHandler(cfg, guests, roster),
		Tables:   handler.NewTableHandler(tables, guests, roster),
		Landing:  handler.NewLandingHandler(landing, media),
		Publish:  handler.NewPublishHandler(ctx, cfg, payments, landing, users, provider, watchers, logger),
		Reminder: handler.NewReminderHandler(guests, tables, landing, logger),
		WishList: handler.NewWishListHandler(wishes, withdrawals),
		Account: &handler.AccountHandler{
			Users: users, Tokens: tokens, Guests: guests, Tables: tables,
			Landing: landing, Wishes: wishes, Withdrawals: withdrawals,
			Payments: payments, Media: media, Roster: roster, Log: logger,
		},
	}
	publicH := handler.NewPublicHandler(landing, wishes, payments, provider, mail)
	rsvpH := handler.NewRSVPHandler(guests, landing, roster)
	webhookH := handler.NewWebhookHandler(cfg.Payment, payments, wishes, provider, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterOwner(e, owner, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, rsvpH, webhookH, router.PublicMiddleware{
		RateLimit: appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     appmw.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
