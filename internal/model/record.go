package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// UserID is the community-membership identity of a user.
type UserID int64

func (u UserID) String() string { return strconv.FormatInt(int64(u), 10) }

// ParseUserID parses the decimal form produced by String.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse user id %q: %w", s, err)
	}
	return UserID(n), nil
}

// Buy is the weekly purchase. The zero value means no purchase was made.
type Buy struct {
	Price    int64
	Quantity int64
}

func (b Buy) IsSet() bool { return b.Price > 0 && b.Quantity > 0 }

// Stake is the total amount spent on the purchase.
func (b Buy) Stake() int64 { return b.Price * b.Quantity }

// MaxAmount bounds any price or quantity so that stakes and profits stay far
// inside int64.
const MaxAmount int64 = 1_000_000

// PriceRecord is one user's week. A zero price in Prices means the slot is unobserved.
type PriceRecord struct {
	ID        uuid.UUID
	Buy       Buy
	Prices    [NumSlots]int64
	UpdatedAt time.Time
}

// NewRecord starts a fresh week anchored on buy.
func NewRecord(buy Buy) PriceRecord {
	return PriceRecord{ID: uuid.New(), Buy: buy}
}

// IsBlank reports whether r carries nothing worth storing.
func (r PriceRecord) IsBlank() bool {
	if r.Buy.IsSet() {
		return false
	}
	for _, p := range r.Prices {
		if p > 0 {
			return false
		}
	}
	return true
}

// Price returns the observed price for s, if any.
func (r PriceRecord) Price(s Slot) (int64, bool) {
	p := r.Prices[s.Index()]
	return p, p > 0
}

// SetPrice overwrites the observation for s. The caller validates price > 0.
// A changed record gets a new ID, so an archived copy of the old content never
// stands in for the edited week.
func (r *PriceRecord) SetPrice(s Slot, price int64) {
	if r.ID == uuid.Nil || r.Prices[s.Index()] != price {
		r.ID = uuid.New()
	}
	r.Prices[s.Index()] = price
}

type wireBuy struct {
	Price    *int64 `json:"price"`
	Quantity *int64 `json:"quantity"`
}

type wireRecord struct {
	ID        string                       `json:"id,omitempty"`
	Buy       wireBuy                      `json:"buy"`
	Price     map[string]map[string]*int64 `json:"price"`
	UpdatedAt *time.Time                   `json:"updated_at,omitempty"`
}

func (r PriceRecord) toWire() wireRecord {
	w := wireRecord{Price: make(map[string]map[string]*int64, len(Days))}
	if r.ID != uuid.Nil {
		w.ID = r.ID.String()
	}
	if r.Buy.IsSet() {
		price, qty := r.Buy.Price, r.Buy.Quantity
		w.Buy = wireBuy{Price: &price, Quantity: &qty}
	}
	for _, d := range Days {
		periods := make(map[string]*int64, len(Periods))
		for _, p := range Periods {
			if v, ok := r.Price(Slot{d, p}); ok {
				periods[p.String()] = &v
			} else {
				periods[p.String()] = nil
			}
		}
		w.Price[d.String()] = periods
	}
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		w.UpdatedAt = &t
	}
	return w
}

func (r *PriceRecord) fromWire(w wireRecord) error {
	*r = PriceRecord{}
	if w.ID != "" {
		id, err := uuid.Parse(w.ID)
		if err != nil {
			return fmt.Errorf("parse record id: %w", err)
		}
		r.ID = id
	}
	if (w.Buy.Price == nil) != (w.Buy.Quantity == nil) {
		return fmt.Errorf("buy price and quantity must be set together")
	}
	if w.Buy.Price != nil {
		if *w.Buy.Price <= 0 || *w.Buy.Quantity <= 0 {
			return fmt.Errorf("buy must be positive, got %d x %d", *w.Buy.Price, *w.Buy.Quantity)
		}
		r.Buy = Buy{Price: *w.Buy.Price, Quantity: *w.Buy.Quantity}
	}
	for i := 0; i < NumSlots; i++ {
		s := SlotAt(i)
		v := w.Price[s.Day.String()][s.Period.String()]
		if v == nil {
			continue
		}
		if *v <= 0 {
			return fmt.Errorf("price for %s must be positive, got %d", s, *v)
		}
		r.Prices[i] = *v
	}
	if w.UpdatedAt != nil {
		r.UpdatedAt = *w.UpdatedAt
	}
	return nil
}

func (r PriceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toWire())
}

func (r *PriceRecord) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return r.fromWire(w)
}
