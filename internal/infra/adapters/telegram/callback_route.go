package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-bot-template/internal/domain"
	"telegram-bot-template/internal/domain/ports/repository"
	"telegram-bot-template/internal/usecase"
)

type cbHandler func(ctx context.Context, sess *session, cq *tgbotapi.CallbackQuery) error

func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"personal_acc": func(ctx context.Context, sess *session, _ *tgbotapi.CallbackQuery) error {
			return r.sendProfileCard(ctx, sess)
		},
		"cancel": r.handleCancelCallback,
		"close":  r.handleCloseCallback,

		"back_admin":    r.adminOnlyCb(r.handleBackAdminCallback),
		"broadcast":     r.adminOnlyCb(r.handleBroadcastEntry),
		"broadcast_yes": r.adminOnlyCb(r.handleBroadcastConfirm),
	}
}

func (r *RealTelegramBotAdapter) adminOnlyCb(next cbHandler) cbHandler {
	return func(ctx context.Context, sess *session, cq *tgbotapi.CallbackQuery) error {
		if !sess.IsAdmin {
			return r.SendMessage(ctx, sess.ChatID, r.tr.T("error_unauthorized"))
		}
		return next(ctx, sess, cq)
	}
}

func (r *RealTelegramBotAdapter) dispatchCallback(ctx context.Context, sess *session, cq *tgbotapi.CallbackQuery) error {
	// Always ack so the client stops showing the spinner.
	_, _ = r.api.Request(tgbotapi.NewCallback(cq.ID, ""))

	if handler, ok := r.cbRoutes()[cq.Data]; ok {
		return handler(ctx, sess, cq)
	}
	return nil
}

func (r *RealTelegramBotAdapter) handleCancelCallback(ctx context.Context, sess *session, cq *tgbotapi.CallbackQuery) error {
	if err := r.states.ClearState(ctx, sess.User.ID); err != nil {
		return err
	}
	if cq.Message != nil {
		_, _ = r.api.Request(tgbotapi.NewDeleteMessage(sess.ChatID, cq.Message.MessageID))
	}
	_, err := r.api.Request(tgbotapi.NewCallback(cq.ID, r.tr.T("canceled")))
	return err
}

func (r *RealTelegramBotAdapter) handleCloseCallback(ctx context.Context, sess *session, cq *tgbotapi.CallbackQuery) error {
	if cq.Message != nil {
		_, _ = r.api.Request(tgbotapi.NewDeleteMessage(sess.ChatID, cq.Message.MessageID))
	}
	return nil
}

func (r *RealTelegramBotAdapter) handleBackAdminCallback(ctx context.Context, sess *session, cq *tgbotapi.CallbackQuery) error {
	if err := r.states.ClearState(ctx, sess.User.ID); err != nil {
		return err
	}
	if cq.Message != nil {
		edit := tgbotapi.NewEditMessageTextAndMarkup(
			sess.ChatID, cq.Message.MessageID,
			r.tr.T("admin_menu_title"),
			buildInlineKeyboard(r.adminMenuRows()),
		)
		_, err := r.api.Send(edit)
		return mapSendError(err)
	}
	return r.SendButtons(ctx, sess.ChatID, r.tr.T("admin_menu_title"), r.adminMenuRows())
}

// -----------------------------
// Broadcast flow
// -----------------------------

// handleBroadcastEntry starts the flow: ask the admin for content and park
// the conversation in the awaiting-content step.
func (r *RealTelegramBotAdapter) handleBroadcastEntry(ctx context.Context, sess *session, cq *tgbotapi.CallbackQuery) error {
	state := &repository.ConversationState{
		Step: repository.StepBroadcastContent,
		Data: map[string]string{},
	}
	if err := r.states.SetState(ctx, sess.User.ID, state); err != nil {
		return fmt.Errorf("enter broadcast flow: %w", err)
	}
	return r.SendButtons(ctx, sess.ChatID, r.tr.T("broadcast_prompt"), r.cancelMenuRows())
}

// receiveBroadcastContent captures the text or photo the admin sent, shows a
// preview, and moves the flow to the confirmation step.
func (r *RealTelegramBotAdapter) receiveBroadcastContent(ctx context.Context, sess *session, message *tgbotapi.Message) error {
	data := map[string]string{}
	switch {
	case len(message.Photo) > 0:
		// Telegram sends several sizes; the last one is the original.
		data["photo"] = message.Photo[len(message.Photo)-1].FileID
		data["text"] = message.Caption
	case message.Text != "":
		data["text"] = message.Text
	default:
		return r.SendButtons(ctx, sess.ChatID, r.tr.T("broadcast_no_content"), r.cancelMenuRows())
	}

	state := &repository.ConversationState{
		Step: repository.StepBroadcastConfirm,
		Data: data,
	}
	if err := r.states.SetState(ctx, sess.User.ID, state); err != nil {
		return fmt.Errorf("store broadcast draft: %w", err)
	}

	preview := data["text"] + r.tr.T("broadcast_confirm_suffix")
	if photoID := data["photo"]; photoID != "" {
		photo := tgbotapi.NewPhoto(sess.ChatID, tgbotapi.FileID(photoID))
		photo.Caption = preview
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = buildInlineKeyboard(r.confirmMenuRows())
		_, err := r.api.Send(photo)
		return mapSendError(err)
	}
	return r.SendButtons(ctx, sess.ChatID, preview, r.confirmMenuRows())
}

// handleBroadcastConfirm runs the dispatch and reports the aggregate outcome
// back to the invoking admin.
func (r *RealTelegramBotAdapter) handleBroadcastConfirm(ctx context.Context, sess *session, cq *tgbotapi.CallbackQuery) error {
	state, err := r.states.GetState(ctx, sess.User.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return r.SendMessage(ctx, sess.ChatID, r.tr.T("error_generic"))
		}
		return err
	}
	if state.Step != repository.StepBroadcastConfirm {
		return r.SendMessage(ctx, sess.ChatID, r.tr.T("error_generic"))
	}
	if err := r.states.ClearState(ctx, sess.User.ID); err != nil {
		return err
	}

	if err := r.SendMessage(ctx, sess.ChatID, r.tr.T("broadcast_started")); err != nil {
		return err
	}

	payload := usecase.Payload{
		Text:    state.Data["text"],
		PhotoID: state.Data["photo"],
	}
	report, err := r.broadcastUC.Broadcast(ctx, payload)
	if err != nil {
		sess.Log.Error().Err(err).Msg("broadcast run failed")
		return r.SendMessage(ctx, sess.ChatID, r.tr.T("error_generic"))
	}

	summary := r.tr.T("broadcast_done", report.Delivered, report.Unreachable, report.Failed)
	return r.SendButtons(ctx, sess.ChatID, summary, r.backAdminRows())
}
