package notifier

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// MessageHandler is called for every text message received.
type MessageHandler func(ctx context.Context, msg *Message)

// CallbackHandler is called for every inline keyboard press.
type CallbackHandler func(ctx context.Context, cb *CallbackQuery)

// StartPolling begins long-polling for updates. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, onMessage MessageHandler, onCallback CallbackHandler) {
	offset := 0
	client := resty.New().SetTimeout(35 * time.Second)
	if tr := t.Client.GetClient().Transport; tr != nil {
		client.SetTransport(tr)
	}
	allowed, _ := json.Marshal([]string{"message", "callback_query"})

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] Telegram polling stopped")
			return
		default:
		}

		resp, err := client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"offset":          strconv.Itoa(offset),
				"timeout":         "30",
				"allowed_updates": string(allowed),
			}).
			Get(t.endpoint("getUpdates"))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] polling request failed: %v", err)
			sleep(ctx, 5*time.Second)
			continue
		}

		var updates []telegramUpdate
		if err := decode(resp, "getUpdates", &updates); err != nil {
			log.Printf("[WARN] decode polling response: %v", err)
			sleep(ctx, 5*time.Second)
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			switch {
			case update.CallbackQuery != nil:
				if onCallback != nil {
					onCallback(ctx, update.CallbackQuery)
				}
			case update.Message != nil && update.Message.Text != "":
				if onMessage != nil {
					onMessage(ctx, update.Message)
				}
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
