package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-bot-template/internal/domain/ports/adapter"
)

// mainMenuKeyboard is the persistent reply keyboard shown on /start.
func (r *RealTelegramBotAdapter) mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(r.tr.T("btn_profile")),
			tgbotapi.NewKeyboardButton(r.tr.T("btn_info")),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func (r *RealTelegramBotAdapter) adminMenuRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: r.tr.T("btn_broadcast"), Data: "broadcast"}},
		{{Text: r.tr.T("btn_close"), Data: "close"}},
	}
}

func (r *RealTelegramBotAdapter) supportMenuRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: r.tr.T("btn_support"), URL: r.cfg.Bot.SupportURL}},
		{{Text: r.tr.T("btn_close"), Data: "close"}},
	}
}

func (r *RealTelegramBotAdapter) cancelMenuRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: r.tr.T("btn_cancel"), Data: "cancel"}},
	}
}

func (r *RealTelegramBotAdapter) confirmMenuRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: r.tr.T("btn_yes"), Data: "broadcast_yes"}},
		{{Text: r.tr.T("btn_cancel"), Data: "cancel"}},
	}
}

func (r *RealTelegramBotAdapter) backAdminRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: r.tr.T("btn_back"), Data: "back_admin"}},
	}
}
