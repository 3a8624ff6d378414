package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"attune/internal/config"
)

// Notification is the renderable content handed to a transport. Payload is
// the opaque response-routing token echoed back when the recipient acts on
// the notification.
type Notification struct {
	ID       int64
	Title    string
	Body     string
	Tags     []string
	Priority string
	Payload  string
}

// Transport is the delivery surface the nudge engine talks to. Show delivers
// immediately; ZonedSchedule requests delivery at an absolute wall-clock
// instant; Cancel and CancelAll withdraw pending deliveries where the
// underlying system supports it.
type Transport interface {
	Show(ctx context.Context, n Notification) error
	ZonedSchedule(ctx context.Context, n Notification, at time.Time) error
	Cancel(ctx context.Context, id int64) error
	CancelAll(ctx context.Context) error
	Test(ctx context.Context) error
}

// NewTransport builds a transport backed by ntfy when configured. When no
// ntfy topic is configured, a noop implementation is returned so the engine
// degrades gracefully instead of failing.
func NewTransport(cfg *config.Config) Transport {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopTransport{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyTransport{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type noopTransport struct{}

func (noopTransport) Show(context.Context, Notification) error                     { return nil }
func (noopTransport) ZonedSchedule(context.Context, Notification, time.Time) error { return nil }
func (noopTransport) Cancel(context.Context, int64) error                          { return nil }
func (noopTransport) CancelAll(context.Context) error                              { return nil }
func (noopTransport) Test(context.Context) error                                   { return nil }
