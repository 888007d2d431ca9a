package tracker

import (
	"context"
	"log"
	"time"

	"StalkMarket/internal/clock"
	"StalkMarket/internal/errs"
	"StalkMarket/internal/model"
	"StalkMarket/internal/recorder"
	"StalkMarket/internal/store"
)

// Outcome is the terminal state of a buy proposal.
type Outcome string

const (
	Confirmed Outcome = "CONFIRMED"
	Swapped   Outcome = "SWAPPED"
	Cancelled Outcome = "CANCELLED"
	TimedOut  Outcome = "TIMED_OUT"
)

// Committed reports whether the outcome wrote a new record.
func (o Outcome) Committed() bool { return o == Confirmed || o == Swapped }

// BuyTimings controls how long the proposal waits and how long replies stay up.
type BuyTimings struct {
	Timeout      time.Duration
	CancelExpiry time.Duration
	ResultExpiry time.Duration
}

// DefaultBuyTimings matches the classic bot: five minutes to answer.
var DefaultBuyTimings = BuyTimings{
	Timeout:      300 * time.Second,
	CancelExpiry: 60 * time.Second,
	ResultExpiry: 600 * time.Second,
}

type BuyRequest struct {
	ChatID   int64
	User     model.UserID
	Price    int64
	Quantity int64
}

type BuyResult struct {
	Outcome  Outcome
	Buy      model.Buy
	Archived bool
}

// BuyWorkflow captures the weekly purchase through a confirm/swap/cancel proposal.
type BuyWorkflow struct {
	Store     *store.Store
	Archive   recorder.Recorder
	Confirmer Confirmer
	Clock     clock.Clock
	Timings   BuyTimings

	pending pendingSet
}

func NewBuyWorkflow(st *store.Store, rec recorder.Recorder, conf Confirmer, clk clock.Clock, timings BuyTimings) *BuyWorkflow {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &BuyWorkflow{Store: st, Archive: rec, Confirmer: conf, Clock: clk, Timings: timings}
}

// Run proposes the buy and, once the user confirms or swaps, replaces the
// user's record with a fresh week. The store lock is only taken after the
// answer arrives.
func (w *BuyWorkflow) Run(ctx context.Context, req BuyRequest) (*BuyResult, error) {
	if req.Price <= 0 || req.Quantity <= 0 {
		return nil, errs.NewUserError(errs.ErrInvalidBuy, msgInvalidBuy)
	}
	if req.Price > model.MaxAmount || req.Quantity > model.MaxAmount {
		return nil, errs.NewUserError(errs.ErrTooLarge, msgBuyTooLarge)
	}
	if !w.pending.acquire(req.User) {
		return nil, errs.NewUserError(errs.ErrProposalPending, msgPending)
	}
	defer w.pending.release(req.User)

	prompt, err := w.Confirmer.Propose(ctx, req.ChatID, req.User, proposalText(req.Price, req.Quantity))
	if err != nil {
		return nil, errs.Wrap(err, "send buy proposal")
	}

	ack, err := w.Confirmer.Await(ctx, prompt, req.User, w.Timings.Timeout)
	if err != nil {
		w.retract(prompt, req.User)
		if ctx.Err() != nil {
			log.Printf("[INFO] buy proposal for user %s abandoned: %v", req.User, ctx.Err())
			return &BuyResult{Outcome: TimedOut}, nil
		}
		return nil, errs.Wrap(err, "await buy answer")
	}

	price, quantity := req.Price, req.Quantity
	var outcome Outcome
	switch ack {
	case AckConfirm:
		outcome = Confirmed
	case AckSwap:
		outcome = Swapped
		price, quantity = quantity, price
	case AckCancel:
		log.Printf("[INFO] buy cancelled by user %s", req.User)
		if err := w.Confirmer.Resolve(ctx, prompt, msgCancelled, w.Timings.CancelExpiry); err != nil {
			log.Printf("[WARN] resolve cancelled proposal for %s: %v", req.User, err)
		}
		return &BuyResult{Outcome: Cancelled}, nil
	default:
		log.Printf("[INFO] buy proposal for user %s timed out", req.User)
		w.retract(prompt, req.User)
		return &BuyResult{Outcome: TimedOut}, nil
	}

	buy := model.Buy{Price: price, Quantity: quantity}
	archived, err := w.commit(req.User, buy)
	if err != nil {
		if rerr := w.Confirmer.Resolve(ctx, prompt, msgCommitFail, w.Timings.CancelExpiry); rerr != nil {
			log.Printf("[WARN] resolve failed proposal for %s: %v", req.User, rerr)
		}
		return nil, err
	}
	log.Printf("[INFO] buy %s for user %s: %d x %d (archived previous: %v)",
		outcome, req.User, price, quantity, archived)

	if err := w.Confirmer.Resolve(ctx, prompt, summaryText(price, quantity), w.Timings.ResultExpiry); err != nil {
		log.Printf("[WARN] resolve committed proposal for %s: %v", req.User, err)
	}
	return &BuyResult{Outcome: outcome, Buy: buy, Archived: archived}, nil
}

// commit archives a non-blank previous week verbatim and starts a new one.
func (w *BuyWorkflow) commit(uid model.UserID, buy model.Buy) (archived bool, err error) {
	err = w.Store.Do(func(tx *store.Tx) error {
		prev, err := tx.Load(uid)
		if err != nil {
			return err
		}
		if !prev.IsBlank() {
			entry := &model.ArchiveEntry{Record: prev, UserID: uid, Date: w.Clock.Now()}
			if err := w.Archive.Append(entry); err != nil {
				return errs.Wrapf(err, "archive previous week of %s", uid)
			}
			archived = true
		}
		return tx.Save(uid, model.NewRecord(buy))
	})
	if err != nil {
		return false, errs.Wrapf(err, "commit buy for %s", uid)
	}
	return archived, nil
}

func (w *BuyWorkflow) retract(p Prompt, uid model.UserID) {
	// The caller's context may already be done; retracting still has to happen.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.Confirmer.Retract(ctx, p); err != nil {
		log.Printf("[WARN] retract proposal for %s: %v", uid, err)
	}
}
