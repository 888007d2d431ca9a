package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"StalkMarket/internal/chart"
	"StalkMarket/internal/errs"
	"StalkMarket/internal/model"
	"StalkMarket/internal/notifier"
	"StalkMarket/internal/store"
)

const graphFile = "stonks.png"

// graph plots the caller's week. A second user, named by reply, id or name,
// contributes their buy price as a reference line.
func (b *Bot) graph(ctx context.Context, msg *notifier.Message, args []string) error {
	self := model.UserID(msg.From.ID)
	other, otherName, err := b.resolveOther(ctx, msg, args)
	if err != nil {
		return err
	}

	var mine, theirs model.PriceRecord
	err = b.Store.Do(func(tx *store.Tx) error {
		var err error
		if mine, err = tx.Load(self); err != nil {
			return err
		}
		if other != 0 {
			theirs, err = tx.Load(other)
		}
		return err
	})
	if err != nil {
		return errs.Wrapf(err, "load records for graph of %s", self)
	}

	var cmp *chart.Comparison
	if other != 0 {
		cmp = &chart.Comparison{Name: otherName, Record: theirs}
	}
	return b.send(ctx, msg.Chat.ID, chart.Single(msg.From.DisplayName(), mine, cmp))
}

func (b *Bot) resolveOther(ctx context.Context, msg *notifier.Message, args []string) (model.UserID, string, error) {
	if r := msg.ReplyToMessage; r != nil && r.From != nil && r.From.ID != msg.From.ID {
		return model.UserID(r.From.ID), r.From.DisplayName(), nil
	}
	if len(args) == 0 {
		return 0, "", nil
	}
	query := strings.Join(args, " ")
	if uid, err := model.ParseUserID(query); err == nil {
		name := uid.String()
		if m, err := b.Transport.Member(ctx, msg.Chat.ID, uid); err == nil {
			name = m.User.DisplayName()
		}
		return uid, name, nil
	}

	var users []model.UserID
	err := b.Store.Do(func(tx *store.Tx) error {
		var err error
		users, err = tx.Users()
		return err
	})
	if err != nil {
		return 0, "", errs.Wrap(err, "list users")
	}
	want := strings.ToLower(strings.TrimPrefix(query, "@"))
	for _, uid := range users {
		m, err := b.Transport.Member(ctx, msg.Chat.ID, uid)
		if err != nil || !m.Present() {
			continue
		}
		if strings.ToLower(m.User.Username) == want || strings.ToLower(m.User.DisplayName()) == want {
			return uid, m.User.DisplayName(), nil
		}
	}
	return 0, "", errs.NewUserError(errs.ErrUnknownUser,
		fmt.Sprintf("I couldn't find anyone called %s with turnips this week.", query))
}

// graphAll plots every stored user who is still in the chat.
func (b *Bot) graphAll(ctx context.Context, msg *notifier.Message) error {
	var (
		users   []model.UserID
		records []model.PriceRecord
	)
	err := b.Store.Do(func(tx *store.Tx) error {
		var err error
		if users, err = tx.Users(); err != nil {
			return err
		}
		for _, uid := range users {
			rec, err := tx.Load(uid)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return errs.Wrap(err, "load records for graphall")
	}

	named := make(map[string]model.PriceRecord, len(records))
	for i, uid := range users {
		m, err := b.Transport.Member(ctx, msg.Chat.ID, uid)
		if err != nil {
			log.Printf("[WARN] member %s of chat %d: %v", uid, msg.Chat.ID, err)
			continue
		}
		if !m.Present() {
			continue
		}
		name := m.User.DisplayName()
		if _, dup := named[name]; dup {
			name = fmt.Sprintf("%s (%s)", name, uid)
		}
		named[name] = records[i]
	}
	if len(named) == 0 {
		return b.Transport.Reply(ctx, msg.Chat.ID, "Nobody here has any turnips this week.")
	}
	return b.send(ctx, msg.Chat.ID, chart.Multi("Everyone", named))
}

// send uploads the rendered chart, or a text table if rendering fails.
func (b *Bot) send(ctx context.Context, chatID int64, c chart.Chart) error {
	img, err := b.Renderer.Render(ctx, c)
	if err != nil {
		log.Printf("[WARN] render chart %q, sending table: %v", c.Title, err)
		return b.Transport.Reply(ctx, chatID, notifier.FormatChartTable(c))
	}
	return b.Transport.SendPhoto(ctx, chatID, graphFile, img, "")
}
