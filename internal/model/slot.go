package model

import (
	"strings"

	"StalkMarket/internal/errs"
)

// Day is one of the six trading days of a week. Sunday is buy day and has no slot.
type Day int

const (
	Mon Day = iota
	Tue
	Wed
	Thu
	Fri
	Sat
)

// Days lists the trading days in slot order.
var Days = [...]Day{Mon, Tue, Wed, Thu, Fri, Sat}

var dayNames = [...]string{"mon", "tue", "wed", "thu", "fri", "sat"}

func (d Day) String() string { return dayNames[d] }

// Period is the half of a trading day.
type Period int

const (
	AM Period = iota
	PM
)

// Periods lists the periods in slot order.
var Periods = [...]Period{AM, PM}

func (p Period) String() string {
	if p == PM {
		return "pm"
	}
	return "am"
}

// NumSlots is the number of (day, period) observations in a week.
const NumSlots = len(Days) * len(Periods)

// Slot addresses one price observation.
type Slot struct {
	Day    Day
	Period Period
}

// Index returns the position of s in mon-am .. sat-pm order.
func (s Slot) Index() int { return int(s.Day)*len(Periods) + int(s.Period) }

// Label is the axis label, e.g. "mon - am".
func (s Slot) Label() string { return s.Day.String() + " - " + s.Period.String() }

func (s Slot) String() string { return s.Day.String() + " " + s.Period.String() }

// SlotAt is the inverse of Slot.Index.
func SlotAt(i int) Slot {
	return Slot{Day: Day(i / len(Periods)), Period: Period(i % len(Periods))}
}

var daySynonyms = map[string]Day{
	"mon": Mon, "monday": Mon,
	"tue": Tue, "tues": Tue, "tuesday": Tue,
	"wed": Wed, "weds": Wed, "wednesday": Wed, "wednessday": Wed,
	"thu": Thu, "thur": Thu, "thurs": Thu, "thursday": Thu,
	"fri": Fri, "friday": Fri,
	"sat": Sat, "saturday": Sat,
}

var sundaySynonyms = map[string]bool{"sun": true, "sunday": true}

var periodSynonyms = map[string]Period{
	"am": AM, "morn": AM, "morning": AM, "day": AM,
	"pm": PM, "evening": PM, "afternoon": PM, "night": PM,
}

const (
	msgSunday = "Did you mean to say Sunday? " +
		"If so you probably want the buy command instead for buying new turnips."
	msgUnknownDay = "I'm sorry, I couldn't recognise what day of the week you were saying. " +
		"Try saying something like mon, tue, wed, thu, fri or sat."
	msgUnknownPeriod = "I'm sorry, I couldn't recognise what time you said. Try saying something like am or pm."
)

// ParseDay normalizes a user supplied day. Matching ignores case and surrounding space.
func ParseDay(raw string) (Day, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if d, ok := daySynonyms[s]; ok {
		return d, nil
	}
	if sundaySynonyms[s] {
		return 0, errs.NewUserError(errs.ErrSunday, msgSunday)
	}
	return 0, errs.NewUserError(errs.ErrUnknownDay, msgUnknownDay)
}

// ParsePeriod normalizes a user supplied period.
func ParsePeriod(raw string) (Period, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if p, ok := periodSynonyms[s]; ok {
		return p, nil
	}
	return 0, errs.NewUserError(errs.ErrUnknownPeriod, msgUnknownPeriod)
}
