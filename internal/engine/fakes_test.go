package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"attune/internal/config"
	"attune/internal/content"
	"attune/internal/engine"
	"attune/internal/notify"
	"attune/internal/nudge"
	"attune/internal/permission"
	"attune/internal/store"
	"attune/internal/testsupport"
)

type fakeGate struct {
	mu           sync.Mutex
	status       permission.Status
	statusErr    error
	statusDelay  time.Duration
	statusCalls  int
	requestCalls int
}

func (g *fakeGate) Status(ctx context.Context) (permission.Status, error) {
	g.mu.Lock()
	g.statusCalls++
	status, err, delay := g.status, g.statusErr, g.statusDelay
	g.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return status, err
}

func (g *fakeGate) Request(ctx context.Context) (permission.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requestCalls++
	return g.status, g.statusErr
}

func (g *fakeGate) set(status permission.Status, err error) {
	g.mu.Lock()
	g.status = status
	g.statusErr = err
	g.mu.Unlock()
}

func (g *fakeGate) calls() (status, request int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusCalls, g.requestCalls
}

type scheduledCall struct {
	notification notify.Notification
	at           time.Time
}

type fakeTransport struct {
	mu          sync.Mutex
	shown       []notify.Notification
	scheduled   []scheduledCall
	cancelled   []int64
	showErr     error
	scheduleErr error
}

func (t *fakeTransport) Show(ctx context.Context, n notify.Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.showErr != nil {
		return t.showErr
	}
	t.shown = append(t.shown, n)
	return nil
}

func (t *fakeTransport) ZonedSchedule(ctx context.Context, n notify.Notification, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scheduleErr != nil {
		return t.scheduleErr
	}
	t.scheduled = append(t.scheduled, scheduledCall{notification: n, at: at})
	return nil
}

func (t *fakeTransport) Cancel(ctx context.Context, id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = append(t.cancelled, id)
	return nil
}

func (t *fakeTransport) CancelAll(ctx context.Context) error { return nil }
func (t *fakeTransport) Test(ctx context.Context) error      { return nil }

func (t *fakeTransport) shownCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.shown)
}

type fakeContent struct {
	mu       sync.Mutex
	pick     nudge.Template
	pickOK   bool
	byID     map[string]nudge.Template
	settings content.Settings
	memories []content.Memory
}

func (c *fakeContent) TemplateByID(ctx context.Context, id string) (nudge.Template, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	template, ok := c.byID[id]
	return template, ok, nil
}

func (c *fakeContent) RandomForWindow(ctx context.Context, window nudge.Window) (nudge.Template, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pick, c.pickOK, nil
}

func (c *fakeContent) UserSettings(ctx context.Context) (content.Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings, nil
}

func (c *fakeContent) SaveMemory(ctx context.Context, memory content.Memory) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memories = append(c.memories, memory)
	return nil
}

func (c *fakeContent) savedMemories() []content.Memory {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]content.Memory(nil), c.memories...)
}

type fakePlayer struct {
	mu         sync.Mutex
	played     []string
	simplified []string
	err        error
}

func (p *fakePlayer) Play(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.played = append(p.played, url)
	return nil
}

func (p *fakePlayer) PlaySimplified(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.simplified = append(p.simplified, url)
	return nil
}

func (p *fakePlayer) playedURLs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.played...)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *testClock) Set(at time.Time) {
	c.mu.Lock()
	c.now = at
	c.mu.Unlock()
}

// fixture wires an engine over a real store with fake collaborators. The
// clock starts at 08:00 UTC, inside the morning window.
type fixture struct {
	cfg       *config.Config
	store     *store.Store
	gate      *fakeGate
	transport *fakeTransport
	content   *fakeContent
	player    *fakePlayer
	clock     *testClock
	engine    *engine.Engine
}

var defaultTemplate = nudge.Template{
	ID:       "breath-01",
	Title:    "Take a breath",
	Body:     "Pause for three slow breaths.",
	Category: "breathing",
	AudioURL: "https://cdn.example/breath.mp3",
	Active:   true,
}

func newFixture(t *testing.T, cfgOpts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, cfgOpts...)
	st := testsupport.MustOpenStore(t, cfg)

	f := &fixture{
		cfg:       cfg,
		store:     st,
		gate:      &fakeGate{status: permission.StatusGranted},
		transport: &fakeTransport{},
		content: &fakeContent{
			pick:   defaultTemplate,
			pickOK: true,
			byID:   map[string]nudge.Template{defaultTemplate.ID: defaultTemplate},
		},
		player: &fakePlayer{},
		clock:  &testClock{now: time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)},
	}

	eng, err := engine.New(cfg, st, f.gate, f.transport, f.content,
		engine.WithClock(f.clock.Now),
		engine.WithAudioPlayer(f.player),
	)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	f.engine = eng
	t.Cleanup(eng.Close)
	return f
}

func (f *fixture) mustInitialize(t *testing.T) {
	t.Helper()
	if err := f.engine.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
}
