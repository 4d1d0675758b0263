package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// ErrRecipientUnreachable marks sends that can never succeed for this
// recipient: the user blocked the bot, deactivated the account, or the chat
// does not exist. It is an expected steady-state condition, not a failure.
var ErrRecipientUnreachable = errors.New("recipient unreachable")

// FloodWaitError is returned when Telegram asks the caller to slow down.
type FloodWaitError struct {
	RetryAfter time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood limit exceeded, retry after %s", e.RetryAfter)
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, telegramID int64, text string) error
	SendButtons(ctx context.Context, telegramID int64, text string, rows [][]InlineButton) error
	SendPhoto(ctx context.Context, telegramID int64, photoID, caption string) error
}
