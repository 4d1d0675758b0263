package repository

import (
	"context"
)

// Conversation steps used by the multi-step flows the bot runs.
const (
	StepBroadcastContent = "awaiting_broadcast_content"
	StepBroadcastConfirm = "awaiting_broadcast_confirm"
)

// ConversationState holds a user's progress in a multi-step conversation.
type ConversationState struct {
	Step string            `json:"step"`
	Data map[string]string `json:"data"` // collected flow inputs, e.g. broadcast text / photo id
}

// StateRepository is the port for managing per-user conversational state.
// Each key is owned by exactly one user's conversation.
type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *ConversationState) error
	GetState(ctx context.Context, tgID int64) (*ConversationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
