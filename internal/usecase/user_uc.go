package usecase

import (
	"context"
	"errors"

	"telegram-bot-template/internal/domain"
	"telegram-bot-template/internal/domain/model"
	"telegram-bot-template/internal/domain/ports/repository"
	"telegram-bot-template/internal/infra/logging"
	"telegram-bot-template/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by bot/admin flows.
type UserUseCase interface {
	// RegisterOrFetch upserts the sighting of a Telegram user: create on
	// first contact, otherwise update the username when it changed. The
	// ID and registration time are never rewritten.
	RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.User, error)
	GetByID(ctx context.Context, tgID int64) (*model.User, error)
	ListAll(ctx context.Context) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, tm: tm, log: logger}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	var user *model.User
	// Read and write run as one atomic unit so two concurrent updates from
	// the same new user cannot race into conflicting inserts.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByID(ctx, tx, tgID)
		switch {
		case err == nil:
			if usr.Username != username && username != "" {
				usr.Username = username
				if err := u.users.Save(ctx, tx, usr); err != nil {
					return err
				}
			}
			user = usr
			return nil
		case errors.Is(err, domain.ErrNotFound):
			nu, err := model.NewUser(tgID, username)
			if err != nil {
				return err
			}
			if err := u.users.Save(ctx, tx, nu); err != nil {
				return err
			}
			metrics.IncUsersRegistered()
			u.log.Info().Int64("tg_id", tgID).Msg("new user registered")
			user = nu
			return nil
		default:
			return err
		}
	})

	return user, err
}

func (u *userUC) GetByID(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByID")()
	return u.users.FindByID(ctx, repository.NoTX, tgID)
}

func (u *userUC) ListAll(ctx context.Context) ([]*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.ListAll")()
	return u.users.List(ctx, repository.NoTX, 0, 0)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.Count(ctx, repository.NoTX)
}
