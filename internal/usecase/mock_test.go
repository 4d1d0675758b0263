//go:build !integration

package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-bot-template/internal/domain"
	"telegram-bot-template/internal/domain/model"
	"telegram-bot-template/internal/domain/ports/adapter"
	"telegram-bot-template/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// ---- Mock TransactionManager ----

// mockTxManager runs the callback directly; no real transaction is involved.
type mockTxManager struct {
	Calls int
}

var _ repository.TransactionManager = (*mockTxManager)(nil)

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	return fn(ctx, repository.NoTX)
}

// ---- Mock UserRepository ----

// MockUserRepo defaults to an in-memory store; individual methods can be
// overridden through the *Func fields.
type MockUserRepo struct {
	mu    sync.Mutex
	store map[int64]*model.User

	SaveFunc     func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
	ListFunc     func(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error)
	CountFunc    func(ctx context.Context, tx repository.Tx) (int, error)

	SaveCalls int
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[int64]*model.User)}
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	cp := *u
	if existing, ok := m.store[u.ID]; ok {
		// Upsert semantics: registration time is immutable.
		cp.RegisteredAt = existing.RegisteredAt
	}
	m.store[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, tgID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tx, offset, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.User, 0, len(m.store))
	for _, u := range m.store {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockUserRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store), nil
}

func (m *MockUserRepo) Seed(users ...*model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range users {
		cp := *u
		if cp.RegisteredAt.IsZero() {
			cp.RegisteredAt = time.Unix(int64(1700000000+i), 0)
		}
		m.store[cp.ID] = &cp
	}
}

// ---- Mock TelegramBotAdapter ----

type sentMessage struct {
	TgID    int64
	Text    string
	PhotoID string
}

type MockTelegramBot struct {
	mu   sync.Mutex
	Sent []sentMessage

	SendMessageFunc func(ctx context.Context, telegramID int64, text string) error
	SendPhotoFunc   func(ctx context.Context, telegramID int64, photoID, caption string) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, telegramID int64, text string) error {
	if m.SendMessageFunc != nil {
		if err := m.SendMessageFunc(ctx, telegramID, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{TgID: telegramID, Text: text})
	return nil
}

func (m *MockTelegramBot) SendButtons(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	return m.SendMessage(ctx, telegramID, text)
}

func (m *MockTelegramBot) SendPhoto(ctx context.Context, telegramID int64, photoID, caption string) error {
	if m.SendPhotoFunc != nil {
		if err := m.SendPhotoFunc(ctx, telegramID, photoID, caption); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{TgID: telegramID, Text: caption, PhotoID: photoID})
	return nil
}

func (m *MockTelegramBot) SentTo(tgID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.Sent {
		if s.TgID == tgID {
			n++
		}
	}
	return n
}
