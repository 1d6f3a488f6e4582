package services

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"taskflow/internal/models"
	"taskflow/internal/repositories"
)

// Task event kinds.
const (
	EventTaskSubmitted = "task.submitted"
	EventTaskApproved  = "task.approved"
	EventTaskReturned  = "task.returned"
	EventTaskCompleted = "task.completed"
)

// EventPublisher delivers task events to the users in their audience.
// Delivery failures are the publisher's business; callers never see them.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.TaskEvent)
}

// Broadcaster pushes a payload to the live sessions of the given users.
type Broadcaster interface {
	SendToUsers(userIDs []int64, payload any)
}

const (
	notifyQueueSize = 256
	deliveryTimeout = 30 * time.Second
)

// Notifier fans a task event out to websocket sessions, email and Telegram.
// Any channel may be nil. Websocket pushes happen inline; email and Telegram
// go through a buffered queue drained by one worker, so a slow SMTP server
// never holds up the request. Events arriving while the queue is full are
// dropped with a warning.
type Notifier struct {
	users    repositories.UserRepository
	email    EmailService
	telegram *TelegramService
	hub      Broadcaster
	log      logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
	queue  chan models.TaskEvent
	done   chan struct{}
}

func NewNotifier(users repositories.UserRepository, email EmailService, telegram *TelegramService, hub Broadcaster, log logrus.FieldLogger) *Notifier {
	n := &Notifier{
		users:    users,
		email:    email,
		telegram: telegram,
		hub:      hub,
		log:      log,
		queue:    make(chan models.TaskEvent, notifyQueueSize),
		done:     make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *Notifier) Publish(_ context.Context, ev models.TaskEvent) {
	if len(ev.Audience) == 0 {
		return
	}
	if n.hub != nil {
		n.hub.SendToUsers(ev.Audience, ev)
	}
	if n.email == nil && n.telegram == nil {
		return
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.log.Warnf("[notify][queue][closed] task=%d kind=%s", ev.TaskID, ev.Kind)
		return
	}
	select {
	case n.queue <- ev:
	default:
		n.log.Warnf("[notify][queue][full] task=%d kind=%s dropped", ev.TaskID, ev.Kind)
	}
}

// Close stops accepting events and waits until the queued ones are delivered.
func (n *Notifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}

func (n *Notifier) run() {
	defer close(n.done)
	for ev := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		n.deliver(ctx, ev)
		cancel()
	}
}

func (n *Notifier) deliver(ctx context.Context, ev models.TaskEvent) {
	subject, text := describeEvent(ev)
	entry := n.log.WithFields(logrus.Fields{"task_id": ev.TaskID, "kind": ev.Kind})
	for _, id := range ev.Audience {
		u, err := n.users.GetByID(ctx, id)
		if err != nil {
			entry.WithError(err).Warnf("[notify][lookup][err] user=%d", id)
			continue
		}
		if n.email != nil && u.Email != "" {
			body := fmt.Sprintf("<p>%s</p>", html.EscapeString(text))
			if err := n.email.SendTaskNotification(u.Email, subject, body); err != nil {
				entry.WithError(err).Warnf("[notify][email][err] user=%d", id)
			}
		}
		if n.telegram != nil && u.TelegramChatID != 0 {
			if err := n.telegram.SendMessage(u.TelegramChatID, html.EscapeString(text)); err != nil {
				entry.WithError(err).Warnf("[notify][telegram][err] user=%d", id)
			}
		}
	}
}

func describeEvent(ev models.TaskEvent) (subject, text string) {
	switch ev.Kind {
	case EventTaskSubmitted:
		return "Task submitted for review", fmt.Sprintf("Task %q was submitted for your review.", ev.Title)
	case EventTaskApproved:
		return "Task approved", fmt.Sprintf("Your task %q was approved.", ev.Title)
	case EventTaskReturned:
		return "Task returned", fmt.Sprintf("Your task %q was returned for changes.", ev.Title)
	case EventTaskCompleted:
		return "Task completed", fmt.Sprintf("Task %q is completed.", ev.Title)
	}
	return "Task updated", fmt.Sprintf("Task %q is now %s.", ev.Title, ev.Status)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.TaskEvent) {}
