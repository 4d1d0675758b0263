package model

import (
	"time"

	"telegram-bot-template/internal/domain"
)

// User is a Telegram user known to the bot. The ID is the Telegram user ID
// and never changes; RegisteredAt is set once when the user is first seen.
// Only Username may change on later sightings.
type User struct {
	ID           int64
	Username     string
	RegisteredAt time.Time
}

func NewUser(tgID int64, username string) (*User, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           tgID,
		Username:     username,
		RegisteredAt: time.Now().UTC(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == 0 }
