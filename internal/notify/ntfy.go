package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const userAgent = "Attune-Go/0.1.0"

// clickScheme is the deep-link scheme the companion handler registers; the
// response payload rides in the path so acting on a notification routes back
// through HandleNotificationResponse.
const clickScheme = "attune://respond/"

type ntfyTransport struct {
	endpoint string
	client   *http.Client
}

func (t *ntfyTransport) Show(ctx context.Context, n Notification) error {
	return t.send(ctx, n, time.Time{})
}

func (t *ntfyTransport) ZonedSchedule(ctx context.Context, n Notification, at time.Time) error {
	return t.send(ctx, n, at)
}

// Cancel withdraws a pending scheduled delivery. ntfy does not expose a
// cancellation API for delayed messages, so this only succeeds by the engine
// never re-registering the identifier; the call exists for transports that
// can withdraw.
func (t *ntfyTransport) Cancel(ctx context.Context, id int64) error {
	return nil
}

func (t *ntfyTransport) CancelAll(ctx context.Context) error {
	return nil
}

func (t *ntfyTransport) Test(ctx context.Context) error {
	return t.send(ctx, Notification{
		Title:    "Attune - Test",
		Body:     "Notification delivery test",
		Tags:     []string{"attune", "test"},
		Priority: "low",
	}, time.Time{})
}

func (t *ntfyTransport) send(ctx context.Context, n Notification, at time.Time) error {
	if t == nil || t.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(n.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if n.Title != "" {
		req.Header.Set("Title", n.Title)
	}
	if len(n.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(n.Tags, ","))
	}
	if n.Priority != "" && n.Priority != "default" {
		req.Header.Set("Priority", n.Priority)
	}
	if n.Payload != "" {
		req.Header.Set("X-Click", clickScheme+n.Payload)
	}
	if n.ID != 0 {
		req.Header.Set("X-Message-ID", strconv.FormatInt(n.ID, 10))
	}
	if !at.IsZero() {
		req.Header.Set("X-Delay", strconv.FormatInt(at.Unix(), 10))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
