package notifier

import (
	"fmt"
	"html"
	"strings"

	"StalkMarket/internal/chart"
	"StalkMarket/internal/errs"
	"StalkMarket/internal/tracker"

	"github.com/dustin/go-humanize"
)

// FormatPriceReply formats the acknowledgement of a price observation.
func FormatPriceReply(res *tracker.PriceResult) string {
	var b strings.Builder
	b.WriteString("Thanks!\n")
	b.WriteString(fmt.Sprintf("You set a price of %s bells for turnips on %s.",
		humanize.Comma(res.Price), res.Slot))
	if !res.HasProfit() {
		return b.String()
	}

	b.WriteString("\n\n")
	switch {
	case res.PerUnit > 0:
		b.WriteString(fmt.Sprintf("If you sell your turnips now you will make a profit of %s bells per turnip, "+
			"for a total profit of %s bells!", humanize.Comma(res.PerUnit), humanize.Comma(res.Total)))
	case res.PerUnit < 0:
		b.WriteString(fmt.Sprintf("If you sell your turnips now you will make a loss of %s bells per turnip, "+
			"for a total loss of %s bells (%s).",
			humanize.Comma(-res.PerUnit), humanize.Comma(-res.Total), humanize.Comma(res.Total)))
	default:
		b.WriteString("If you sell your turnips now you will break even.")
	}
	return b.String()
}

// FormatChartTable renders a chart as a monospace table, used when no image
// can be produced.
func FormatChartTable(c chart.Chart) string {
	var b strings.Builder
	if c.Title != "" {
		b.WriteString(fmt.Sprintf("📈 <b>%s</b>\n", html.EscapeString(c.Title)))
	}
	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-9s", "slot"))
	for _, s := range c.Series {
		b.WriteString(fmt.Sprintf(" %8s", html.EscapeString(truncate(s.Name, 8))))
	}
	b.WriteString("\n")
	for i, label := range chart.Labels() {
		b.WriteString(fmt.Sprintf("%-9s", strings.ReplaceAll(label, " - ", " ")))
		for _, s := range c.Series {
			p := s.Points[i]
			if p.Present {
				b.WriteString(fmt.Sprintf(" %8d", p.Value))
			} else {
				b.WriteString(fmt.Sprintf(" %8s", "-"))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("</pre>")
	for _, l := range c.Lines {
		b.WriteString(fmt.Sprintf("\n%s: %s", html.EscapeString(l.Label), humanize.Comma(l.Value)))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// FormatOperatorError formats a failed command for the owner chat.
func FormatOperatorError(command, user string, err error) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("❌ <b>%s</b> from %s failed\n\n", html.EscapeString(command), html.EscapeString(user)))
	b.WriteString("<pre>")
	b.WriteString(html.EscapeString(strings.Join(errs.ExtractStackLines(err, 20), "\n")))
	b.WriteString("</pre>")
	return b.String()
}

// FormatHelp lists the available commands.
func FormatHelp() string {
	return "A bot for tracking the turnip stalk market.\n\n" +
		"<b>/buy</b> &lt;price&gt; &lt;quantity&gt; - record this week's Sunday purchase\n" +
		"<b>/price</b> &lt;day&gt; &lt;am|pm&gt; &lt;price&gt; - record a price you were offered\n" +
		"<b>/graph</b> [user] - plot your week, optionally with someone else's buy price\n" +
		"<b>/graphall</b> - plot everyone in this chat\n"
}

// FormatUsage explains how to call a command after bad arguments.
func FormatUsage(command string) string {
	switch command {
	case "buy":
		return "Usage: /buy <price> <quantity>, e.g. /buy 98 400"
	case "price":
		return "Usage: /price <day> <am|pm> <price>, e.g. /price tue pm 130"
	case "graph":
		return "Usage: /graph [user]"
	default:
		return "Try /help to see what I can do."
	}
}
