package tracker

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

const (
	msgInvalidBuy  = "I'm sorry, both the price and the number of turnips have to be more than 0."
	msgPending     = "You already have a buy waiting for a reaction, answer that one first."
	msgCancelled   = "Ok, see you later!"
	msgBuyTooLarge = "That's a lot of turnips! Price and quantity can each be at most 1,000,000."
	msgCommitFail  = "Hmm, something went wrong and I couldn't save that. Please try again in a bit."
)

func proposalText(price, quantity int64) string {
	return fmt.Sprintf("Ok lets get you setup!\n"+
		"You bought %s turnips for %s bells each?\n"+
		"If that's right, hit ✅ to save!\n"+
		"If I got my figures twisted, hit 🔁 to swap those numbers around.\n"+
		"If you just want to bail hit ❌.",
		humanize.Comma(quantity), humanize.Comma(price))
}

func summaryText(price, quantity int64) string {
	return fmt.Sprintf("Ok awesome! "+
		"Got you setup this week with a haul of %s turnips for %s each. "+
		"You have %s bells riding on this week, hope it goes well!",
		humanize.Comma(quantity), humanize.Comma(price), humanize.Comma(price*quantity))
}
