package repository

import (
	"context"

	"telegram-bot-template/internal/domain/model"
)

// UserRepository persists Telegram users. List returns users in the order
// they first registered; offset/limit of 0 means the whole set.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.User, error)
	Count(ctx context.Context, tx Tx) (int, error)
}
