package tracker

import (
	"log"

	"StalkMarket/internal/calculator"
	"StalkMarket/internal/errs"
	"StalkMarket/internal/model"
	"StalkMarket/internal/store"
)

const (
	msgNonPositivePrice = "I'm sorry, you seem to be trying to set a price of 0 or less, that shouldn't be possible."
	msgPriceTooLarge    = "I'm sorry, turnips never sell for more than 1,000,000 bells."
)

type PriceRequest struct {
	User   model.UserID
	Day    string
	Period string
	Price  int64
}

// PriceResult describes a stored observation. PerUnit and Total are only
// meaningful when Buy is set.
type PriceResult struct {
	Slot    model.Slot
	Price   int64
	Buy     model.Buy
	PerUnit int64
	Total   int64
}

func (r PriceResult) HasProfit() bool { return r.Buy.IsSet() }

// PriceWorkflow records one slot of the current week.
type PriceWorkflow struct {
	Store *store.Store
}

func NewPriceWorkflow(st *store.Store) *PriceWorkflow {
	return &PriceWorkflow{Store: st}
}

// Record validates the request and overwrites the slot it names.
func (w *PriceWorkflow) Record(req PriceRequest) (*PriceResult, error) {
	day, err := model.ParseDay(req.Day)
	if err != nil {
		return nil, err
	}
	period, err := model.ParsePeriod(req.Period)
	if err != nil {
		return nil, err
	}
	if req.Price <= 0 {
		return nil, errs.NewUserError(errs.ErrNonPositivePrice, msgNonPositivePrice)
	}
	if req.Price > model.MaxAmount {
		return nil, errs.NewUserError(errs.ErrTooLarge, msgPriceTooLarge)
	}

	slot := model.Slot{Day: day, Period: period}
	var buy model.Buy
	err = w.Store.Do(func(tx *store.Tx) error {
		rec, err := tx.Load(req.User)
		if err != nil {
			return err
		}
		rec.SetPrice(slot, req.Price)
		buy = rec.Buy
		return tx.Save(req.User, rec)
	})
	if err != nil {
		return nil, errs.Wrapf(err, "record %s price for %s", slot, req.User)
	}
	log.Printf("[INFO] user %s set %s to %d", req.User, slot, req.Price)

	res := &PriceResult{Slot: slot, Price: req.Price, Buy: buy}
	if buy.IsSet() {
		res.PerUnit, res.Total = calculator.Profit(buy, req.Price)
	}
	return res, nil
}
