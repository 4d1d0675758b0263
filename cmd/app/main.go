package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-bot-template/internal/config"
	tele "telegram-bot-template/internal/infra/adapters/telegram"
	pg "telegram-bot-template/internal/infra/db/postgres"
	httpapi "telegram-bot-template/internal/infra/http"
	"telegram-bot-template/internal/infra/i18n"
	"telegram-bot-template/internal/infra/logging"
	"telegram-bot-template/internal/infra/metrics"
	red "telegram-bot-template/internal/infra/redis"
	"telegram-bot-template/internal/infra/worker"
	"telegram-bot-template/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		// No logger exists yet; stderr is all we have.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	if err := pg.EnsureSchema(cfg.Database.DSN(), log); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.DSN(), 10)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}
	stateRepo := red.NewStateRepo(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories and use cases ----
	userRepo := pg.NewPostgresUserRepo(pool)
	txManager := pg.NewTxManager(pool)
	userUC := usecase.NewUserUseCase(userRepo, txManager, log)

	translator, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		log.Fatal().Err(err).Msg("locale catalog broken")
	}

	sendPool := worker.NewPool(cfg.Bot.Workers)
	sendPool.Start(ctx)
	defer sendPool.Stop()

	// The bot adapter and the broadcast use case depend on each other; the
	// adapter is built first and the use case receives it as the send port.
	bot, err := tele.NewRealTelegramBotAdapter(cfg, userUC, nil, stateRepo, rateLimiter, translator, log)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram bot init failed")
	}
	broadcastUC := usecase.NewBroadcastUseCase(userRepo, bot, sendPool, log)
	bot.SetBroadcastUseCase(broadcastUC)

	bot.StartWorkers(ctx)

	// ---- Transport: webhook behind the reverse proxy, polling in dev ----
	server := httpapi.NewServer(cfg.HTTPPort, cfg.Bot.WebhookPath, bot, log)
	serverErr := make(chan error, 1)

	useWebhook := cfg.Bot.WebhookURL != "" && !cfg.Runtime.Dev
	if useWebhook {
		if err := bot.RegisterWebhook(ctx); err != nil {
			log.Fatal().Err(err).Msg("webhook registration failed")
		}
		go func() { serverErr <- server.Start() }()
	} else {
		log.Info().Msg("no webhook configured, falling back to long polling")
		go func() { serverErr <- server.Start() }() // health and metrics stay up
		go func() {
			if err := bot.StartPolling(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("polling stopped")
			}
		}()
	}

	bot.NotifyAdmins(ctx, translator.T("startup_notice"))
	log.Info().Bool("webhook", useWebhook).Msg("bot is up")

	// ---- Graceful shutdown ----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	bot.NotifyAdmins(ctx, translator.T("shutdown_notice"))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	cancel()
	bot.Wait()
	log.Info().Msg("bye")
}
