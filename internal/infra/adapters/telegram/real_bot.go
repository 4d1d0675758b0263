package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-bot-template/internal/config"
	"telegram-bot-template/internal/domain/ports/adapter"
	"telegram-bot-template/internal/domain/ports/repository"
	"telegram-bot-template/internal/infra/i18n"
	"telegram-bot-template/internal/infra/logging"
	"telegram-bot-template/internal/infra/metrics"
	"telegram-bot-template/internal/usecase"
)

// sender is the slice of tgbotapi.BotAPI the adapter needs; tests swap in a
// fake so routing can be exercised without the network.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// rateLimiter abstracts the Redis fixed-window limiter.
type rateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RealTelegramBotAdapter receives updates (webhook or polling), runs each one
// through the upsert middleware, and dispatches to command/callback handlers.
type RealTelegramBotAdapter struct {
	bot *tgbotapi.BotAPI
	api sender

	cfg         *config.Config
	userUC      usecase.UserUseCase
	broadcastUC usecase.BroadcastUseCase
	states      repository.StateRepository
	limiter     rateLimiter
	tr          *i18n.Translator
	log         *zerolog.Logger

	adminIDsMap map[int64]struct{}
	updates     chan tgbotapi.Update

	startOnce sync.Once
	wg        sync.WaitGroup
}

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

func NewRealTelegramBotAdapter(
	cfg *config.Config,
	userUC usecase.UserUseCase,
	broadcastUC usecase.BroadcastUseCase,
	states repository.StateRepository,
	limiter rateLimiter,
	tr *i18n.Translator,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if userUC == nil {
		return nil, errors.New("user use case is nil")
	}
	if states == nil {
		return nil, errors.New("state repository is nil")
	}

	var bot *tgbotapi.BotAPI
	var err error
	if cfg.LocalAPI.Enabled {
		// Route all outbound calls through the self-hosted Bot API server.
		endpoint := cfg.LocalAPI.URL + "/bot%s/%s"
		bot, err = tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Bot.Token, endpoint)
	} else {
		bot, err = tgbotapi.NewBotAPI(cfg.Bot.Token)
	}
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.Bot.AdminIDs {
		adminMap[id] = struct{}{}
	}

	logger.Info().
		Str("username", bot.Self.UserName).
		Bool("local_api", cfg.LocalAPI.Enabled).
		Str("token", logging.Redact(cfg.Bot.Token, cfg.Runtime.Dev)).
		Msg("telegram bot authorized")

	return &RealTelegramBotAdapter{
		bot:         bot,
		api:         bot,
		cfg:         cfg,
		userUC:      userUC,
		broadcastUC: broadcastUC,
		states:      states,
		limiter:     limiter,
		tr:          tr,
		log:         logger,
		adminIDsMap: adminMap,
		updates:     make(chan tgbotapi.Update, 100),
	}, nil
}

// SetBroadcastUseCase breaks the construction cycle: the broadcast use case
// sends through this adapter, so it is wired in after both exist. Must be
// called before StartWorkers.
func (r *RealTelegramBotAdapter) SetBroadcastUseCase(uc usecase.BroadcastUseCase) {
	r.broadcastUC = uc
}

// NotifyAdmins delivers an operational notice to every configured admin.
// Delivery failures are logged and ignored; a blocked admin must not stop
// startup or shutdown.
func (r *RealTelegramBotAdapter) NotifyAdmins(ctx context.Context, text string) {
	for _, id := range r.cfg.Bot.AdminIDs {
		if err := r.SendMessage(ctx, id, text); err != nil {
			r.log.Warn().Err(err).Int64("tg_id", id).Msg("admin notice not delivered")
		}
	}
}

// StartWorkers launches the update-dispatch workers. Updates from different
// users may interleave freely; each update is isolated from the others.
func (r *RealTelegramBotAdapter) StartWorkers(ctx context.Context) {
	r.startOnce.Do(func() {
		n := r.cfg.Bot.Workers
		if n <= 0 {
			n = 5
		}
		for i := 0; i < n; i++ {
			r.wg.Add(1)
			go func(id int) {
				defer r.wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case up := <-r.updates:
						if err := r.handleUpdate(ctx, up); err != nil {
							metrics.IncUpdateFailure()
							r.log.Error().Err(err).Int("worker", id).Msg("update handler failed")
						}
					}
				}
			}(i)
		}
	})
}

// Wait blocks until all dispatch workers have drained after ctx cancellation.
func (r *RealTelegramBotAdapter) Wait() { r.wg.Wait() }

// RegisterWebhook points Telegram at the public webhook URL.
func (r *RealTelegramBotAdapter) RegisterWebhook(ctx context.Context) error {
	if _, err := r.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	wh, err := tgbotapi.NewWebhook(r.cfg.Bot.WebhookURL)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := r.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	r.log.Info().Str("path", r.cfg.Bot.WebhookPath).Msg("webhook registered")
	return nil
}

// EnqueueWebhookUpdate parses one webhook request body and queues the update.
// Called by the HTTP transport.
func (r *RealTelegramBotAdapter) EnqueueWebhookUpdate(req *http.Request) error {
	up, err := r.bot.HandleUpdate(req)
	if err != nil {
		return fmt.Errorf("parse webhook update: %w", err)
	}
	metrics.IncUpdateReceived("webhook")
	r.updates <- *up
	return nil
}

// StartPolling is the development fallback when no public webhook URL exists.
// It blocks until ctx is canceled.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if _, err := r.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook before polling: %w", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return ctx.Err()
		case up := <-updates:
			metrics.IncUpdateReceived("polling")
			r.updates <- up
		}
	}
}

func (r *RealTelegramBotAdapter) isAdmin(tgID int64) bool {
	_, ok := r.adminIDsMap[tgID]
	return ok
}

// -----------------------------
// Outbound sends (adapter port)
// -----------------------------

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, telegramID int64, text string) error {
	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := r.api.Send(msg)
	return mapSendError(err)
}

func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = buildInlineKeyboard(rows)
	_, err := r.api.Send(msg)
	return mapSendError(err)
}

func (r *RealTelegramBotAdapter) SendPhoto(ctx context.Context, telegramID int64, photoID, caption string) error {
	photo := tgbotapi.NewPhoto(telegramID, tgbotapi.FileID(photoID))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	_, err := r.api.Send(photo)
	return mapSendError(err)
}

// mapSendError translates tgbotapi failures into the adapter port's error
// vocabulary so callers can classify outcomes without importing tgbotapi.
func mapSendError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.RetryAfter > 0 {
			return &adapter.FloodWaitError{RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second}
		}
		switch apiErr.Code {
		case http.StatusForbidden:
			// Bot was blocked or the account is gone.
			return adapter.ErrRecipientUnreachable
		case http.StatusBadRequest:
			if apiErr.Message == "Bad Request: chat not found" {
				return adapter.ErrRecipientUnreachable
			}
		}
	}
	return err
}

func buildInlineKeyboard(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		kbRows = append(kbRows, btns)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}
