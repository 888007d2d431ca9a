package chart

import (
	"sort"
	"strconv"

	"StalkMarket/internal/model"
)

// Point is one slot of a series. Present is false for unobserved slots.
type Point struct {
	Value   int64
	Present bool
}

// Series is a week of prices in mon-am .. sat-pm order.
type Series struct {
	Name   string
	Points [model.NumSlots]Point
}

// RefLine is a horizontal reference value, such as a buy price.
type RefLine struct {
	Label string
	Value int64
}

// Chart is a renderer-agnostic description of a trend plot.
type Chart struct {
	Title  string
	Series []Series
	Lines  []RefLine
}

// Labels returns the x axis labels.
func Labels() [model.NumSlots]string {
	var out [model.NumSlots]string
	for i := range out {
		out[i] = model.SlotAt(i).Label()
	}
	return out
}

// SeriesOf projects a record onto the fixed slot axis.
func SeriesOf(name string, rec model.PriceRecord) Series {
	s := Series{Name: name}
	for i := range s.Points {
		v, ok := rec.Price(model.SlotAt(i))
		s.Points[i] = Point{Value: v, Present: ok}
	}
	return s
}

// Comparison is another user's record drawn for reference.
type Comparison struct {
	Name   string
	Record model.PriceRecord
}

// Single builds the one-user view: the user's series plus their buy price and,
// when other is given and has bought this week, the other user's buy price.
func Single(name string, rec model.PriceRecord, other *Comparison) Chart {
	c := Chart{Title: name, Series: []Series{SeriesOf(name, rec)}}
	if rec.Buy.IsSet() {
		c.Lines = append(c.Lines, RefLine{Label: "buy " + strconv.FormatInt(rec.Buy.Price, 10), Value: rec.Buy.Price})
	}
	if other != nil && other.Record.Buy.IsSet() {
		c.Lines = append(c.Lines, RefLine{
			Label: other.Name + " buy " + strconv.FormatInt(other.Record.Buy.Price, 10),
			Value: other.Record.Buy.Price,
		})
	}
	return c
}

// Multi builds the cross-user view, one series per label in label order.
func Multi(title string, records map[string]model.PriceRecord) Chart {
	names := make([]string, 0, len(records))
	for n := range records {
		names = append(names, n)
	}
	sort.Strings(names)

	c := Chart{Title: title, Series: make([]Series, 0, len(names))}
	for _, n := range names {
		c.Series = append(c.Series, SeriesOf(n, records[n]))
	}
	return c
}
