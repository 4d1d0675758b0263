package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-bot-template/internal/domain"
	"telegram-bot-template/internal/domain/ports/repository"
	"telegram-bot-template/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, sess *session, message *tgbotapi.Message) error

// commandRoutes defines all bot commands. Admin commands are wrapped in the
// adminOnly middleware.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start": r.handleStartCommand,
		"help":  r.handleHelpCommand,

		"admin": r.adminOnly(r.handleAdminCommand),
		"stats": r.adminOnly(r.handleStatsCommand),
	}
}

// adminOnly refuses the command for senders outside the configured admin set.
// The refusal has no side effects beyond the denial message.
func (r *RealTelegramBotAdapter) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, sess *session, message *tgbotapi.Message) error {
		if !sess.IsAdmin {
			metrics.IncAdminCommand("/"+message.Command(), "unauthorized")
			return r.SendMessage(ctx, sess.ChatID, r.tr.T("error_unauthorized"))
		}
		metrics.IncAdminCommand("/"+message.Command(), "authorized")
		return next(ctx, sess, message)
	}
}

// dispatchMessage routes an incoming message: commands first, then any active
// conversation flow, then the reply-keyboard text buttons.
func (r *RealTelegramBotAdapter) dispatchMessage(ctx context.Context, sess *session, message *tgbotapi.Message) error {
	if message.Chat == nil || !message.Chat.IsPrivate() {
		return nil // group chatter is ignored, like the private-chat filter
	}

	if message.IsCommand() {
		metrics.IncTelegramCommand("/" + message.Command())
		if handler, ok := r.commandRoutes()[message.Command()]; ok {
			return handler(ctx, sess, message)
		}
		return nil // unknown commands are ignored
	}

	// A user inside a multi-step flow gets the message routed to the flow.
	state, err := r.states.GetState(ctx, sess.User.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("load conversation state: %w", err)
	}
	if state != nil {
		return r.dispatchFlowMessage(ctx, sess, state, message)
	}

	switch message.Text {
	case r.tr.T("btn_profile"):
		return r.sendProfileCard(ctx, sess)
	case r.tr.T("btn_info"):
		return r.sendSupportInfo(ctx, sess)
	}
	return nil
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, sess *session, message *tgbotapi.Message) error {
	msg := tgbotapi.NewMessage(sess.ChatID, r.tr.T("welcome_message"))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = r.mainMenuKeyboard()
	_, err := r.api.Send(msg)
	return mapSendError(err)
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, sess *session, message *tgbotapi.Message) error {
	return r.SendMessage(ctx, sess.ChatID, r.tr.T("help_message"))
}

func (r *RealTelegramBotAdapter) handleAdminCommand(ctx context.Context, sess *session, message *tgbotapi.Message) error {
	return r.SendButtons(ctx, sess.ChatID, r.tr.T("admin_menu_title"), r.adminMenuRows())
}

func (r *RealTelegramBotAdapter) handleStatsCommand(ctx context.Context, sess *session, message *tgbotapi.Message) error {
	count, err := r.userUC.Count(ctx)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, sess.ChatID, r.tr.T("admin_stats", count))
}

func (r *RealTelegramBotAdapter) sendProfileCard(ctx context.Context, sess *session) error {
	username := sess.User.Username
	if username == "" {
		username = "—"
	}
	return r.SendMessage(ctx, sess.ChatID, r.tr.T("profile_card", sess.User.ID, username))
}

func (r *RealTelegramBotAdapter) sendSupportInfo(ctx context.Context, sess *session) error {
	return r.SendButtons(ctx, sess.ChatID, r.tr.T("info_message"), r.supportMenuRows())
}

// dispatchFlowMessage advances the broadcast flow when the admin is mid-way
// through it. Unknown steps are cleared rather than trapping the user.
func (r *RealTelegramBotAdapter) dispatchFlowMessage(ctx context.Context, sess *session, state *repository.ConversationState, message *tgbotapi.Message) error {
	switch state.Step {
	case repository.StepBroadcastContent:
		if !sess.IsAdmin {
			// The flow is admin-only; a stale state for anyone else is dropped.
			return r.states.ClearState(ctx, sess.User.ID)
		}
		return r.receiveBroadcastContent(ctx, sess, message)
	default:
		return r.states.ClearState(ctx, sess.User.ID)
	}
}
