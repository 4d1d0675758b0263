package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-bot-template/internal/domain"
	"telegram-bot-template/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo keeps per-user conversational state in Redis. State is created on
// flow entry, rewritten on each transition, and deleted on completion or
// cancel; the TTL bounds abandoned flows.
type StateRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewStateRepo(client RedisClient) *StateRepo {
	return &StateRepo{
		client: client,
		ttl:    15 * time.Minute, // give users 15 minutes to finish any flow
	}
}

func (s *StateRepo) stateKey(tgID int64) string {
	return fmt.Sprintf("conv_state:%d", tgID)
}

func (s *StateRepo) SetState(ctx context.Context, tgID int64, state *repository.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(tgID), data, s.ttl)
}

// GetState returns domain.ErrNotFound when the user has no active flow.
func (s *StateRepo) GetState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	data, err := s.client.Get(ctx, s.stateKey(tgID))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var state repository.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *StateRepo) ClearState(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, s.stateKey(tgID))
}
