package tracker

import (
	"context"
	"time"

	"StalkMarket/internal/model"
)

// Ack is the user's answer to a proposal.
type Ack int

const (
	AckTimeout Ack = iota
	AckConfirm
	AckSwap
	AckCancel
)

func (a Ack) String() string {
	switch a {
	case AckConfirm:
		return "confirm"
	case AckSwap:
		return "swap"
	case AckCancel:
		return "cancel"
	default:
		return "timeout"
	}
}

// Prompt identifies a proposal message.
type Prompt struct {
	ChatID    int64
	MessageID int64
}

// Confirmer is the interactive-confirmation transport.
type Confirmer interface {
	// Propose posts text with confirm/swap/cancel choices that only user may answer.
	Propose(ctx context.Context, chatID int64, user model.UserID, text string) (Prompt, error)
	// Await blocks until user answers on p or timeout passes, in which case it
	// returns AckTimeout. Answers from anyone else or on other messages are ignored.
	Await(ctx context.Context, p Prompt, user model.UserID, timeout time.Duration) (Ack, error)
	// Resolve replaces the prompt with text and removes it after expireAfter.
	Resolve(ctx context.Context, p Prompt, text string, expireAfter time.Duration) error
	// Retract deletes the prompt.
	Retract(ctx context.Context, p Prompt) error
}
