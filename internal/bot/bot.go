package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"StalkMarket/internal/chart"
	"StalkMarket/internal/errs"
	"StalkMarket/internal/model"
	"StalkMarket/internal/notifier"
	"StalkMarket/internal/store"
	"StalkMarket/internal/tracker"
)

const msgFailed = "Sorry, something went wrong on my end. The bot owner has been told."

// Transport is the chat surface the bot replies through.
type Transport interface {
	Reply(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, filename string, img []byte, caption string) error
	NotifyOperator(ctx context.Context, text string) error
	Member(ctx context.Context, chatID int64, uid model.UserID) (notifier.Member, error)
}

// Bot routes chat commands to the workflows.
type Bot struct {
	Store     *store.Store
	Buy       *tracker.BuyWorkflow
	Price     *tracker.PriceWorkflow
	Renderer  chart.Renderer
	Transport Transport

	wg sync.WaitGroup
}

func New(st *store.Store, buy *tracker.BuyWorkflow, price *tracker.PriceWorkflow, r chart.Renderer, tr Transport) *Bot {
	return &Bot{Store: st, Buy: buy, Price: price, Renderer: r, Transport: tr}
}

// HandleMessage dispatches msg on its own goroutine so a buy waiting for an
// answer does not hold up polling.
func (b *Bot) HandleMessage(ctx context.Context, msg *notifier.Message) {
	cmd, ok := ParseCommand(msg.Text)
	if !ok || msg.From == nil || msg.From.IsBot {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.Dispatch(ctx, msg, cmd)
	}()
}

// Wait blocks until all in-flight commands have returned.
func (b *Bot) Wait() { b.wg.Wait() }

// Dispatch runs one command to completion.
func (b *Bot) Dispatch(ctx context.Context, msg *notifier.Message, cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			b.handleError(ctx, msg, cmd, errs.New(fmt.Sprintf("panic: %v", r)))
		}
	}()

	var err error
	switch cmd.Name {
	case "buy":
		err = b.buy(ctx, msg, cmd.Args)
	case "price":
		err = b.price(ctx, msg, cmd.Args)
	case "graph":
		err = b.graph(ctx, msg, cmd.Args)
	case "graphall":
		err = b.graphAll(ctx, msg)
	case "help", "start":
		err = b.Transport.Reply(ctx, msg.Chat.ID, notifier.FormatHelp())
	default:
		return
	}
	if err != nil {
		b.handleError(ctx, msg, cmd, err)
	}
}

func (b *Bot) handleError(ctx context.Context, msg *notifier.Message, cmd Command, err error) {
	if text, ok := errs.UserMessage(err); ok {
		if rerr := b.Transport.Reply(ctx, msg.Chat.ID, text); rerr != nil {
			log.Printf("[WARN] reply to %d: %v", msg.Chat.ID, rerr)
		}
		return
	}

	user := msg.From.DisplayName()
	log.Printf("[ERROR] /%s from %s: %+v", cmd.Name, user, err)
	if nerr := b.Transport.NotifyOperator(ctx, notifier.FormatOperatorError("/"+cmd.Name, user, err)); nerr != nil {
		log.Printf("[ERROR] notify operator: %v", nerr)
	}
	if rerr := b.Transport.Reply(ctx, msg.Chat.ID, msgFailed); rerr != nil {
		log.Printf("[WARN] reply to %d: %v", msg.Chat.ID, rerr)
	}
}

func usage(command string) error {
	return errs.NewUserError(errs.ErrUsage, notifier.FormatUsage(command))
}

func (b *Bot) buy(ctx context.Context, msg *notifier.Message, args []string) error {
	if len(args) != 2 {
		return usage("buy")
	}
	price, err1 := strconv.ParseInt(args[0], 10, 64)
	quantity, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		return usage("buy")
	}
	_, err := b.Buy.Run(ctx, tracker.BuyRequest{
		ChatID:   msg.Chat.ID,
		User:     model.UserID(msg.From.ID),
		Price:    price,
		Quantity: quantity,
	})
	return err
}

func (b *Bot) price(ctx context.Context, msg *notifier.Message, args []string) error {
	if len(args) != 3 {
		return usage("price")
	}
	p, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return usage("price")
	}
	res, err := b.Price.Record(tracker.PriceRequest{
		User:   model.UserID(msg.From.ID),
		Day:    args[0],
		Period: args[1],
		Price:  p,
	})
	if err != nil {
		return err
	}
	return b.Transport.Reply(ctx, msg.Chat.ID, notifier.FormatPriceReply(res))
}
