package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"StalkMarket/internal/model"

	"github.com/go-resty/resty/v2"
)

// TelegramNotifier talks to the Telegram Bot API.
type TelegramNotifier struct {
	APIURL      string
	BotToken    string
	OwnerChatID int64
	Client      *resty.Client

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(apiURL, botToken string, ownerChatID int64, proxyURL string) *TelegramNotifier {
	client := resty.New().SetTimeout(30 * time.Second)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &TelegramNotifier{
		APIURL:      strings.TrimRight(apiURL, "/"),
		BotToken:    botToken,
		OwnerChatID: ownerChatID,
		Client:      client,
		timers:      make(map[*time.Timer]struct{}),
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.APIURL, t.BotToken, method)
}

func decode(resp *resty.Response, method string, out interface{}) error {
	var r apiResponse
	if err := json.Unmarshal(resp.Body(), &r); err != nil {
		return fmt.Errorf("telegram %s: status %d, decode: %w", method, resp.StatusCode(), err)
	}
	if !r.OK {
		return fmt.Errorf("telegram API error: %s: %d %s", method, r.ErrorCode, r.Description)
	}
	if out != nil {
		if err := json.Unmarshal(r.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

func (t *TelegramNotifier) call(ctx context.Context, method string, payload interface{}, out interface{}) error {
	resp, err := t.Client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(t.endpoint(method))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	return decode(resp, method, out)
}

// Send posts an HTML message and returns its id.
func (t *TelegramNotifier) Send(ctx context.Context, chatID int64, text string) (int64, error) {
	return t.send(ctx, chatID, text, nil)
}

func (t *TelegramNotifier) send(ctx context.Context, chatID int64, text string, markup interface{}) (int64, error) {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	var msg Message
	if err := t.call(ctx, "sendMessage", payload, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// Reply sends text to chatID, dropping the message id.
func (t *TelegramNotifier) Reply(ctx context.Context, chatID int64, text string) error {
	_, err := t.Send(ctx, chatID, text)
	return err
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if _, err := t.Send(ctx, chatID, text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// NotifyOperator sends text to the owner chat. Without an owner chat it only logs.
func (t *TelegramNotifier) NotifyOperator(ctx context.Context, text string) error {
	if t.OwnerChatID == 0 {
		log.Printf("[WARN] no owner chat configured, operator notice dropped: %s", text)
		return nil
	}
	return t.SendWithRetry(ctx, t.OwnerChatID, text, 3)
}

// Edit replaces the text of a message and drops its inline keyboard.
func (t *TelegramNotifier) Edit(ctx context.Context, chatID, messageID int64, text string) error {
	return t.call(ctx, "editMessageText", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}, nil)
}

func (t *TelegramNotifier) Delete(ctx context.Context, chatID, messageID int64) error {
	return t.call(ctx, "deleteMessage", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	}, nil)
}

// DeleteAfter removes a message once d has passed.
func (t *TelegramNotifier) DeleteAfter(chatID, messageID int64, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, timer)
		t.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := t.Delete(ctx, chatID, messageID); err != nil {
			log.Printf("[WARN] delete expired message %d: %v", messageID, err)
		}
	})
	t.timers[timer] = struct{}{}
}

// StopTimers cancels pending DeleteAfter calls.
func (t *TelegramNotifier) StopTimers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for timer := range t.timers {
		timer.Stop()
	}
	t.timers = make(map[*time.Timer]struct{})
}

// SendPhoto uploads a PNG to chatID.
func (t *TelegramNotifier) SendPhoto(ctx context.Context, chatID int64, filename string, img []byte, caption string) error {
	resp, err := t.Client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":    strconv.FormatInt(chatID, 10),
			"caption":    caption,
			"parse_mode": "HTML",
		}).
		SetFileReader("photo", filename, bytes.NewReader(img)).
		Post(t.endpoint("sendPhoto"))
	if err != nil {
		return fmt.Errorf("telegram sendPhoto: %w", err)
	}
	return decode(resp, "sendPhoto", nil)
}

func (t *TelegramNotifier) AnswerCallback(ctx context.Context, callbackID, text string) error {
	payload := map[string]interface{}{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
	}
	return t.call(ctx, "answerCallbackQuery", payload, nil)
}

// Member looks up uid in chatID.
func (t *TelegramNotifier) Member(ctx context.Context, chatID int64, uid model.UserID) (Member, error) {
	var raw struct {
		Status string `json:"status"`
		User   User   `json:"user"`
	}
	err := t.call(ctx, "getChatMember", map[string]interface{}{
		"chat_id": chatID,
		"user_id": int64(uid),
	}, &raw)
	if err != nil {
		return Member{}, err
	}
	return Member{User: raw.User, Status: raw.Status}, nil
}
