package notifier

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"StalkMarket/internal/model"
	"StalkMarket/internal/tracker"
)

const (
	cbConfirm = "buy:confirm"
	cbSwap    = "buy:swap"
	cbCancel  = "buy:cancel"
)

var proposalKeyboard = inlineKeyboard{InlineKeyboard: [][]inlineButton{{
	{Text: "✅", CallbackData: cbConfirm},
	{Text: "🔁", CallbackData: cbSwap},
	{Text: "❌", CallbackData: cbCancel},
}}}

var callbackAcks = map[string]tracker.Ack{
	cbConfirm: tracker.AckConfirm,
	cbSwap:    tracker.AckSwap,
	cbCancel:  tracker.AckCancel,
}

// Messenger is the part of the Telegram API the confirmation flow needs.
type Messenger interface {
	SendMarkup(ctx context.Context, chatID int64, text string, markup interface{}) (int64, error)
	Edit(ctx context.Context, chatID, messageID int64, text string) error
	Delete(ctx context.Context, chatID, messageID int64) error
	DeleteAfter(chatID, messageID int64, d time.Duration)
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// SendMarkup sends text with a reply markup attached.
func (t *TelegramNotifier) SendMarkup(ctx context.Context, chatID int64, text string, markup interface{}) (int64, error) {
	return t.send(ctx, chatID, text, markup)
}

type waiter struct {
	user model.UserID
	ch   chan tracker.Ack
}

// sendKey identifies a proposal whose message is still being sent.
type sendKey struct {
	chatID int64
	user   model.UserID
}

// Confirmations implements tracker.Confirmer with inline keyboards. Each
// proposal is bound to the message it was posted as and to the user it was
// posted for.
type Confirmations struct {
	api Messenger

	mu      sync.Mutex
	waiters map[tracker.Prompt]*waiter
	// presses by the owner that arrive before the send returns, by message id
	sending map[sendKey]map[int64]tracker.Ack
}

func NewConfirmations(api Messenger) *Confirmations {
	return &Confirmations{
		api:     api,
		waiters: make(map[tracker.Prompt]*waiter),
		sending: make(map[sendKey]map[int64]tracker.Ack),
	}
}

func (c *Confirmations) Propose(ctx context.Context, chatID int64, user model.UserID, text string) (tracker.Prompt, error) {
	key := sendKey{chatID: chatID, user: user}
	c.mu.Lock()
	c.sending[key] = make(map[int64]tracker.Ack)
	c.mu.Unlock()

	id, err := c.api.SendMarkup(ctx, chatID, text, proposalKeyboard)

	c.mu.Lock()
	defer c.mu.Unlock()
	early := c.sending[key]
	delete(c.sending, key)
	if err != nil {
		return tracker.Prompt{}, err
	}
	p := tracker.Prompt{ChatID: chatID, MessageID: id}
	w := &waiter{user: user, ch: make(chan tracker.Ack, 1)}
	if ack, ok := early[id]; ok {
		w.ch <- ack
	}
	c.waiters[p] = w
	return p, nil
}

func (c *Confirmations) Await(ctx context.Context, p tracker.Prompt, user model.UserID, timeout time.Duration) (tracker.Ack, error) {
	c.mu.Lock()
	w, ok := c.waiters[p]
	c.mu.Unlock()
	if !ok {
		return tracker.AckTimeout, fmt.Errorf("no pending proposal for message %d", p.MessageID)
	}
	if w.user != user {
		return tracker.AckTimeout, fmt.Errorf("proposal %d belongs to user %s, not %s", p.MessageID, w.user, user)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ack := <-w.ch:
		return ack, nil
	case <-timer.C:
		c.forget(p)
		return tracker.AckTimeout, nil
	case <-ctx.Done():
		c.forget(p)
		return tracker.AckTimeout, ctx.Err()
	}
}

func (c *Confirmations) Resolve(ctx context.Context, p tracker.Prompt, text string, expireAfter time.Duration) error {
	c.forget(p)
	if err := c.api.Edit(ctx, p.ChatID, p.MessageID, text); err != nil {
		return err
	}
	if expireAfter > 0 {
		c.api.DeleteAfter(p.ChatID, p.MessageID, expireAfter)
	}
	return nil
}

func (c *Confirmations) Retract(ctx context.Context, p tracker.Prompt) error {
	c.forget(p)
	return c.api.Delete(ctx, p.ChatID, p.MessageID)
}

func (c *Confirmations) forget(p tracker.Prompt) {
	c.mu.Lock()
	delete(c.waiters, p)
	c.mu.Unlock()
}

// HandleCallback routes an inline keyboard press to the proposal it belongs to.
// Presses by other users or on unknown messages are answered and otherwise ignored.
func (c *Confirmations) HandleCallback(ctx context.Context, cb *CallbackQuery) {
	toast := ""
	defer func() {
		if err := c.api.AnswerCallback(ctx, cb.ID, toast); err != nil {
			log.Printf("[WARN] answer callback %s: %v", cb.ID, err)
		}
	}()

	ack, ok := callbackAcks[cb.Data]
	if !ok || cb.Message == nil {
		return
	}
	p := tracker.Prompt{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.MessageID}

	c.mu.Lock()
	w, ok := c.waiters[p]
	if !ok {
		if early, sending := c.sending[sendKey{chatID: p.ChatID, user: model.UserID(cb.From.ID)}]; sending {
			if _, dup := early[p.MessageID]; !dup {
				early[p.MessageID] = ack
			}
			c.mu.Unlock()
			return
		}
	}
	c.mu.Unlock()
	switch {
	case !ok:
		toast = "This proposal has already been answered or has expired."
	case w.user != model.UserID(cb.From.ID):
		toast = "That's not your buy, sorry!"
	default:
		select {
		case w.ch <- ack:
		default:
			// first answer wins
		}
	}
}
