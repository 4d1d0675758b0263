//go:build !integration

package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-bot-template/internal/config"
	"telegram-bot-template/internal/domain"
	"telegram-bot-template/internal/domain/model"
	"telegram-bot-template/internal/domain/ports/repository"
	"telegram-bot-template/internal/infra/i18n"
	"telegram-bot-template/internal/usecase"
)

// fakeSender captures every Chattable the adapter would send to Telegram.
type fakeSender struct {
	Sent     []tgbotapi.Chattable
	Requests []tgbotapi.Chattable

	SendErr error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.Sent = append(f.Sent, c)
	return tgbotapi.Message{}, f.SendErr
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.Requests = append(f.Requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts extracts the plain text of every captured message-like send.
func (f *fakeSender) texts() []string {
	var out []string
	for _, c := range f.Sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.PhotoConfig:
			out = append(out, m.Caption)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

type mockUserUC struct {
	RegisterOrFetchFunc func(ctx context.Context, tgID int64, username string) (*model.User, error)
	CountFunc           func(ctx context.Context) (int, error)

	RegisterCalls int
}

func (m *mockUserUC) RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.User, error) {
	m.RegisterCalls++
	if m.RegisterOrFetchFunc != nil {
		return m.RegisterOrFetchFunc(ctx, tgID, username)
	}
	return &model.User{ID: tgID, Username: username}, nil
}

func (m *mockUserUC) GetByID(ctx context.Context, tgID int64) (*model.User, error) {
	return &model.User{ID: tgID}, nil
}

func (m *mockUserUC) ListAll(ctx context.Context) ([]*model.User, error) { return nil, nil }

func (m *mockUserUC) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

type mockBroadcastUC struct {
	BroadcastFunc func(ctx context.Context, payload usecase.Payload) (*usecase.Report, error)

	Calls    int
	Payloads []usecase.Payload
}

func (m *mockBroadcastUC) Broadcast(ctx context.Context, payload usecase.Payload) (*usecase.Report, error) {
	m.Calls++
	m.Payloads = append(m.Payloads, payload)
	if m.BroadcastFunc != nil {
		return m.BroadcastFunc(ctx, payload)
	}
	return &usecase.Report{Recipients: 0}, nil
}

type mockStateRepo struct {
	states map[int64]*repository.ConversationState
}

func newMockStateRepo() *mockStateRepo {
	return &mockStateRepo{states: map[int64]*repository.ConversationState{}}
}

func (m *mockStateRepo) SetState(_ context.Context, tgID int64, state *repository.ConversationState) error {
	m.states[tgID] = state
	return nil
}

func (m *mockStateRepo) GetState(_ context.Context, tgID int64) (*repository.ConversationState, error) {
	state, ok := m.states[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return state, nil
}

func (m *mockStateRepo) ClearState(_ context.Context, tgID int64) error {
	delete(m.states, tgID)
	return nil
}

type testHarness struct {
	adapter   *RealTelegramBotAdapter
	api       *fakeSender
	userUC    *mockUserUC
	broadcast *mockBroadcastUC
	states    *mockStateRepo
	tr        *i18n.Translator
}

const (
	testAdminID = int64(9000)
	testUserID  = int64(100)
)

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		t.Fatalf("load translator: %v", err)
	}

	api := &fakeSender{}
	users := &mockUserUC{}
	broadcast := &mockBroadcastUC{}
	states := newMockStateRepo()
	logger := zerolog.Nop()

	cfg := &config.Config{
		Bot: config.BotConfig{
			AdminIDs:   []int64{testAdminID},
			SupportURL: "https://t.me/",
		},
	}

	return &testHarness{
		adapter: &RealTelegramBotAdapter{
			api:         api,
			cfg:         cfg,
			userUC:      users,
			broadcastUC: broadcast,
			states:      states,
			tr:          tr,
			log:         &logger,
			adminIDsMap: map[int64]struct{}{testAdminID: {}},
			updates:     make(chan tgbotapi.Update, 10),
		},
		api:       api,
		userUC:    users,
		broadcast: broadcast,
		states:    states,
		tr:        tr,
	}
}

func privateMessageUpdate(from int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: from, UserName: "someone"},
			Chat: &tgbotapi.Chat{ID: from, Type: "private"},
			Text: text,
		},
	}
}

func commandUpdate(from int64, command string) tgbotapi.Update {
	up := privateMessageUpdate(from, "/"+command)
	up.Message.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: len(command) + 1},
	}
	return up
}

func callbackUpdate(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			From: &tgbotapi.User{ID: from, UserName: "someone"},
			Message: &tgbotapi.Message{
				MessageID: 42,
				Chat:      &tgbotapi.Chat{ID: from, Type: "private"},
			},
			Data: data,
		},
	}
}
