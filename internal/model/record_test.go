package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceRecord_Blank(t *testing.T) {
	var r PriceRecord
	assert.True(t, r.IsBlank())

	r.SetPrice(Slot{Day: Wed, Period: PM}, 95)
	assert.False(t, r.IsBlank())
	assert.NotEqual(t, uuid.Nil, r.ID)

	b := NewRecord(Buy{Price: 100, Quantity: 10})
	assert.False(t, b.IsBlank())
	assert.Equal(t, int64(1000), b.Buy.Stake())
}

func TestPriceRecord_SetPriceChangesID(t *testing.T) {
	r := NewRecord(Buy{Price: 100, Quantity: 10})
	s := Slot{Day: Sat, Period: PM}
	first := r.ID

	r.SetPrice(s, 555)
	second := r.ID
	assert.NotEqual(t, first, second)

	r.SetPrice(s, 555)
	assert.Equal(t, second, r.ID, "unchanged content keeps its id")
}

func TestPriceRecord_SetPriceOverwrites(t *testing.T) {
	var r PriceRecord
	s := Slot{Day: Tue, Period: AM}
	r.SetPrice(s, 80)
	r.SetPrice(s, 130)

	got, ok := r.Price(s)
	require.True(t, ok)
	assert.Equal(t, int64(130), got)
	for i := 0; i < NumSlots; i++ {
		if i == s.Index() {
			continue
		}
		_, ok := r.Price(SlotAt(i))
		assert.False(t, ok, "slot %s should be unobserved", SlotAt(i))
	}
}

func TestPriceRecord_JSONLayout(t *testing.T) {
	r := NewRecord(Buy{Price: 98, Quantity: 400})
	r.SetPrice(Slot{Day: Mon, Period: AM}, 90)
	r.SetPrice(Slot{Day: Sat, Period: PM}, 412)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	buy := doc["buy"].(map[string]interface{})
	assert.Equal(t, 98.0, buy["price"])
	assert.Equal(t, 400.0, buy["quantity"])

	price := doc["price"].(map[string]interface{})
	assert.Len(t, price, 6)
	for _, d := range Days {
		periods := price[d.String()].(map[string]interface{})
		assert.Len(t, periods, 2)
	}
	assert.Equal(t, 90.0, price["mon"].(map[string]interface{})["am"])
	assert.Nil(t, price["mon"].(map[string]interface{})["pm"])

	var back PriceRecord
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(r, back); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestPriceRecord_UnmarshalLegacyBlank(t *testing.T) {
	legacy := `{"buy": {"price": null, "quantity": null},
		"price": {"mon": {"am": null, "pm": null}, "tue": {"am": 105, "pm": null}}}`

	var r PriceRecord
	require.NoError(t, json.Unmarshal([]byte(legacy), &r))
	assert.False(t, r.Buy.IsSet())
	assert.Equal(t, uuid.Nil, r.ID)
	p, ok := r.Price(Slot{Day: Tue, Period: AM})
	assert.True(t, ok)
	assert.Equal(t, int64(105), p)
}

func TestPriceRecord_UnmarshalRejectsBrokenInvariants(t *testing.T) {
	tests := map[string]string{
		"half buy":       `{"buy": {"price": 100, "quantity": null}, "price": {}}`,
		"zero quantity":  `{"buy": {"price": 100, "quantity": 0}, "price": {}}`,
		"negative price": `{"buy": {"price": null, "quantity": null}, "price": {"fri": {"pm": -3}}}`,
		"bad id":         `{"id": "nope", "buy": {}, "price": {}}`,
	}
	for name, doc := range tests {
		var r PriceRecord
		assert.Error(t, json.Unmarshal([]byte(doc), &r), name)
	}
}

func TestArchiveEntry_JSON(t *testing.T) {
	r := NewRecord(Buy{Price: 100, Quantity: 10})
	r.SetPrice(Slot{Day: Mon, Period: PM}, 120)
	e := ArchiveEntry{Record: r, UserID: 4242, Date: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)}

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "4242", doc["userid"])
	assert.Equal(t, "2026-10-18", doc["date"])
	assert.Equal(t, r.ID.String(), doc["id"])

	var back ArchiveEntry
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(e, back); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}
