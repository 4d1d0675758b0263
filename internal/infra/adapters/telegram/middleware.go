package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-bot-template/internal/domain/model"
	"telegram-bot-template/internal/infra/logging"
	"telegram-bot-template/internal/infra/metrics"
	red "telegram-bot-template/internal/infra/redis"
)

const (
	commandRateLimit  = 20
	commandRateWindow = time.Minute
)

// session is the fixed, statically-typed per-update context every handler
// receives. It is built once per update, after the user upsert, and replaces
// ad-hoc context attributes.
type session struct {
	User    *model.User
	IsAdmin bool
	ChatID  int64
	Log     *zerolog.Logger
}

// handleUpdate is the middleware chain for one update: recover from panics,
// attach a trace ID, upsert the sending user, rate-limit, then dispatch.
// An error from one update never affects any other update.
func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, up tgbotapi.Update) (err error) {
	from, chatID := updateOrigin(up)
	if from == nil {
		return nil // service updates (channel posts etc.) are out of scope
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
			_ = r.SendMessage(ctx, chatID, r.tr.T("error_generic"))
		}
	}()

	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithTgID(ctx, from.ID)
	log := logging.With(ctx, r.log)

	if allowed, lerr := r.allowUpdate(ctx, from.ID); lerr != nil {
		log.Warn().Err(lerr).Msg("rate limiter unavailable, letting update through")
	} else if !allowed {
		metrics.IncRateLimitTriggered()
		return r.SendMessage(ctx, chatID, r.tr.T("error_rate_limited"))
	}

	// Upsert the sender before any handler runs: at most one write per
	// update, and no handler ever observes a missing user record.
	user, err := r.userUC.RegisterOrFetch(ctx, from.ID, from.UserName)
	if err != nil {
		log.Error().Err(err).Msg("user upsert failed")
		_ = r.SendMessage(ctx, chatID, r.tr.T("error_generic"))
		return err
	}

	sess := &session{
		User:    user,
		IsAdmin: r.isAdmin(from.ID),
		ChatID:  chatID,
		Log:     log,
	}

	switch {
	case up.CallbackQuery != nil:
		return r.dispatchCallback(ctx, sess, up.CallbackQuery)
	case up.Message != nil:
		return r.dispatchMessage(ctx, sess, up.Message)
	}
	return nil
}

func (r *RealTelegramBotAdapter) allowUpdate(ctx context.Context, tgID int64) (bool, error) {
	if r.limiter == nil {
		return true, nil
	}
	return r.limiter.Allow(ctx, red.UserCommandKey(tgID, "update"), commandRateLimit, commandRateWindow)
}

// updateOrigin extracts the sender and the chat to answer into.
func updateOrigin(up tgbotapi.Update) (*tgbotapi.User, int64) {
	switch {
	case up.Message != nil:
		return up.Message.From, up.Message.Chat.ID
	case up.CallbackQuery != nil:
		cq := up.CallbackQuery
		var chatID int64
		if cq.Message != nil {
			chatID = cq.Message.Chat.ID
		} else if cq.From != nil {
			chatID = cq.From.ID
		}
		return cq.From, chatID
	}
	return nil, 0
}
