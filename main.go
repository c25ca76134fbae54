package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/extramods/modgate-bot/internal/billing"
	"github.com/extramods/modgate-bot/internal/broadcast"
	"github.com/extramods/modgate-bot/internal/channels"
	"github.com/extramods/modgate-bot/internal/config"
	"github.com/extramods/modgate-bot/internal/cryptopay"
	"github.com/extramods/modgate-bot/internal/gate"
	"github.com/extramods/modgate-bot/internal/handlers"
	"github.com/extramods/modgate-bot/internal/messages"
	"github.com/extramods/modgate-bot/internal/middleware"
	"github.com/extramods/modgate-bot/internal/sweeper"
	"github.com/extramods/modgate-bot/store"
)

// botNotifier delivers plain service messages to a user's private chat; the
// sweeper and broadcast fan-out both go through it.
type botNotifier struct {
	bot *bot.Bot
}

func (n *botNotifier) Notify(ctx context.Context, userID int64, text string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    userID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	return err
}

func main() {
	_ = config.LoadEnvFile("config.env")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	rdb, err := store.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "modgate_bot")
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	stateStore := store.NewRedisStateStore(rdb, 24)

	pgStore, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()

	if err := pgStore.SeedGateChannels(cfg.SeedChannels); err != nil {
		log.Fatalf("Failed to seed gate channels: %v", err)
	}

	httpClient := &http.Client{
		Timeout: 10 * time.Minute,
	}
	pollTimeout := 50 * time.Second

	b, err := bot.New(
		cfg.BotToken,
		bot.WithHTTPClient(pollTimeout, httpClient),
	)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	channelSvc := channels.NewService(b)
	checker := gate.NewChecker(pgStore, pgStore, channelSvc, cfg.AdminIDs)
	payClient := cryptopay.New(cfg.CryptoPayURL, cfg.CryptoPayToken)
	billingSvc := billing.NewService(pgStore, payClient, cfg.UsdToRub)
	notifier := &botNotifier{bot: b}
	broadcaster := broadcast.NewService(notifier)

	sweep := sweeper.NewSweeper(pgStore, pgStore, channelSvc, notifier, sweeper.Config{
		Interval:   cfg.SweepInterval,
		WarnWithin: cfg.ExpiryWarning,
	})
	sweep.Start()
	defer sweep.Stop()

	h := handlers.NewHandlers(
		pgStore, pgStore, pgStore, pgStore, pgStore,
		stateStore, billingSvc, checker, channelSvc, broadcaster, cfg,
	)

	middlewares := middleware.New(pgStore, checker)
	handlerChain := middlewares.AnalyzeMessageMiddleware(
		middlewares.IdentifyUserMiddleware(
			middlewares.GateMiddleware(
				h.MainHandler,
			),
		),
	)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handlerChain)

	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, handlerChain)

	log.Println("Bot started. Press Ctrl+C to stop.")
	b.Start(ctx)
}
