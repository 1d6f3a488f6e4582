package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
)

type sentMail struct{ to, subject, body string }

type fakeEmail struct {
	sent []sentMail
	err  error
}

func (f *fakeEmail) SendTaskNotification(to, subject, body string) error {
	f.sent = append(f.sent, sentMail{to, subject, body})
	return f.err
}

type fakeHub struct {
	ids      []int64
	payloads []any
}

func (h *fakeHub) SendToUsers(ids []int64, payload any) {
	h.ids = append(h.ids, ids...)
	h.payloads = append(h.payloads, payload)
}

// telegramStub answers getMe and records sendMessage calls.
func telegramStub(t *testing.T) (*TelegramService, *[]url.Values) {
	t.Helper()
	var (
		mu   sync.Mutex
		sent []url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"taskflow","username":"taskflow_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			mu.Lock()
			sent = append(sent, r.PostForm)
			mu.Unlock()
			io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":4004,"type":"private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	bot, err := tgbotapi.NewBotAPIWithClient("token", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	return NewTelegramServiceWithAPI(bot), &sent
}

func TestNotifierFansOut(t *testing.T) {
	users := newFakeUsers(orgUsers()...)
	email := &fakeEmail{}
	hub := &fakeHub{}
	tg, sent := telegramStub(t)
	n := NewNotifier(users, email, tg, hub, testLog())

	ev := models.TaskEvent{Kind: EventTaskReturned, TaskID: 9, Title: "Budget <draft>", Status: models.StatusReturned, ActorID: 3, Audience: []int64{4}}
	n.Publish(context.Background(), ev)
	n.Close()

	assert.Equal(t, []int64{4}, hub.ids)
	assert.Equal(t, ev, hub.payloads[0])

	require.Len(t, email.sent, 1)
	assert.Equal(t, "staff@example.com", email.sent[0].to)
	assert.Equal(t, "Task returned", email.sent[0].subject)
	assert.Contains(t, email.sent[0].body, "Budget &lt;draft&gt;")

	require.Len(t, *sent, 1)
	assert.Equal(t, "4004", (*sent)[0].Get("chat_id"))
	assert.Equal(t, "HTML", (*sent)[0].Get("parse_mode"))
}

func TestNotifierSwallowsFailures(t *testing.T) {
	users := newFakeUsers(orgUsers()...)
	email := &fakeEmail{err: errors.New("smtp down")}
	n := NewNotifier(users, email, nil, nil, testLog())

	assert.NotPanics(t, func() {
		n.Publish(context.Background(), models.TaskEvent{Kind: EventTaskSubmitted, Audience: []int64{2, 404}})
	})
	n.Close()
	require.Len(t, email.sent, 1, "unknown users are skipped")
	assert.Equal(t, "head@example.com", email.sent[0].to)
}

func TestNotifierWithoutAudience(t *testing.T) {
	hub := &fakeHub{}
	NewNotifier(newFakeUsers(), nil, nil, hub, testLog()).Publish(context.Background(), models.TaskEvent{Kind: EventTaskApproved})
	assert.Empty(t, hub.payloads)
}

// blockingEmail holds every send until release is closed.
type blockingEmail struct {
	release chan struct{}
	mu      sync.Mutex
	sent    int
}

func (b *blockingEmail) SendTaskNotification(string, string, string) error {
	<-b.release
	b.mu.Lock()
	b.sent++
	b.mu.Unlock()
	return nil
}

func TestNotifierDeliversOffTheCaller(t *testing.T) {
	email := &blockingEmail{release: make(chan struct{})}
	hub := &fakeHub{}
	n := NewNotifier(newFakeUsers(orgUsers()...), email, nil, hub, testLog())

	published := make(chan struct{})
	go func() {
		n.Publish(context.Background(), models.TaskEvent{Kind: EventTaskApproved, TaskID: 1, Audience: []int64{4}})
		n.Publish(context.Background(), models.TaskEvent{Kind: EventTaskReturned, TaskID: 2, Audience: []int64{4}})
		close(published)
	}()
	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish waited on the mail server")
	}
	assert.Len(t, hub.payloads, 2, "websocket push stays inline")

	close(email.release)
	n.Close()
	assert.Equal(t, 2, email.sent)

	// Events after Close are dropped, not delivered.
	n.Publish(context.Background(), models.TaskEvent{Kind: EventTaskApproved, TaskID: 3, Audience: []int64{4}})
	assert.Equal(t, 2, email.sent)
}
