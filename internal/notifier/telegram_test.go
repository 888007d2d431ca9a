package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"StalkMarket/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	Method  string
	Payload map[string]interface{}
}

// fakeTelegram records calls and answers each method from results.
type fakeTelegram struct {
	mu      sync.Mutex
	calls   []apiCall
	results map[string]string
}

func newFakeTelegram(t *testing.T, results map[string]string) (*fakeTelegram, *TelegramNotifier) {
	t.Helper()
	f := &fakeTelegram{results: results}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, NewTelegramNotifier(srv.URL+"/", "TOKEN", 42, "")
}

func (f *fakeTelegram) serve(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	call := apiCall{Method: method, Payload: map[string]interface{}{}}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &call.Payload)
	} else if err := r.ParseMultipartForm(1 << 20); err == nil {
		for k, v := range r.MultipartForm.Value {
			call.Payload[k] = v[0]
		}
		if fh, ok := r.MultipartForm.File["photo"]; ok {
			call.Payload["photo"] = fh[0].Filename
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if !strings.HasPrefix(r.URL.Path, "/botTOKEN/") {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
		return
	}
	res, ok := f.results[method]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: unexpected method"}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":` + res + `}`))
}

func (f *fakeTelegram) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func TestSend_ReturnsMessageID(t *testing.T) {
	f, tn := newFakeTelegram(t, map[string]string{"sendMessage": `{"message_id":77,"chat":{"id":5}}`})

	id, err := tn.Send(context.Background(), 5, "<b>hi</b>")
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)

	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sendMessage", calls[0].Method)
	assert.Equal(t, "HTML", calls[0].Payload["parse_mode"])
	assert.EqualValues(t, 5, calls[0].Payload["chat_id"])
	assert.NotContains(t, calls[0].Payload, "reply_markup")
}

func TestSend_APIError(t *testing.T) {
	_, tn := newFakeTelegram(t, map[string]string{})

	_, err := tn.Send(context.Background(), 5, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected method")
}

func TestSendMarkup_AttachesKeyboard(t *testing.T) {
	f, tn := newFakeTelegram(t, map[string]string{"sendMessage": `{"message_id":1,"chat":{"id":5}}`})

	_, err := tn.SendMarkup(context.Background(), 5, "buy?", proposalKeyboard)
	require.NoError(t, err)

	markup, ok := f.Calls()[0].Payload["reply_markup"].(map[string]interface{})
	require.True(t, ok)
	rows := markup["inline_keyboard"].([]interface{})
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 3)
}

func TestEditAndDelete(t *testing.T) {
	f, tn := newFakeTelegram(t, map[string]string{"editMessageText": `{}`, "deleteMessage": `true`})
	ctx := context.Background()

	require.NoError(t, tn.Edit(ctx, 5, 9, "done"))
	require.NoError(t, tn.Delete(ctx, 5, 9))

	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "editMessageText", calls[0].Method)
	assert.Equal(t, "done", calls[0].Payload["text"])
	assert.Equal(t, "deleteMessage", calls[1].Method)
	assert.EqualValues(t, 9, calls[1].Payload["message_id"])
}

func TestMember(t *testing.T) {
	_, tn := newFakeTelegram(t, map[string]string{
		"getChatMember": `{"status":"left","user":{"id":7,"first_name":"Tom","last_name":"Nook","username":"tnook"}}`,
	})

	m, err := tn.Member(context.Background(), 5, model.UserID(7))
	require.NoError(t, err)
	assert.Equal(t, "Tom Nook", m.User.DisplayName())
	assert.False(t, m.Present())
}

func TestSendPhoto_Multipart(t *testing.T) {
	f, tn := newFakeTelegram(t, map[string]string{"sendPhoto": `{"message_id":3}`})

	err := tn.SendPhoto(context.Background(), 5, "graph.png", []byte("\x89PNG"), "caption")
	require.NoError(t, err)

	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "5", calls[0].Payload["chat_id"])
	assert.Equal(t, "caption", calls[0].Payload["caption"])
	assert.Equal(t, "graph.png", calls[0].Payload["photo"])
}

func TestNotifyOperator_NoOwnerOnlyLogs(t *testing.T) {
	f, tn := newFakeTelegram(t, map[string]string{})
	tn.OwnerChatID = 0

	require.NoError(t, tn.NotifyOperator(context.Background(), "boom"))
	assert.Empty(t, f.Calls())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Isabelle", User{ID: 1, FirstName: "Isabelle"}.DisplayName())
	assert.Equal(t, "kk", User{ID: 1, Username: "kk"}.DisplayName())
	assert.Equal(t, "12", User{ID: 12}.DisplayName())
}
