package device

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"attune/internal/logging"
)

// powerEventMonitor listens for udev netlink power_supply events so battery
// changes are observed immediately instead of waiting for the next poll.
type powerEventMonitor struct {
	logger  *slog.Logger
	onEvent func(ctx context.Context)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newPowerEventMonitor(logger *slog.Logger, onEvent func(ctx context.Context)) *powerEventMonitor {
	return &powerEventMonitor{
		logger:  logging.NewComponentLogger(logger, "power-events"),
		onEvent: onEvent,
	}
}

// Start begins listening for udev netlink events. Failure to connect is
// non-fatal; the poll loop still covers battery observation.
func (m *powerEventMonitor) Start(ctx context.Context) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; battery changes will be observed by polling only",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "battery state may lag by one poll interval"),
		)
		return
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("power event monitor started",
		logging.String(logging.FieldEventType, "power_event_monitor_started"),
	)
}

// Stop shuts down the netlink listener.
func (m *powerEventMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}

	m.running = false
}

// monitorLoop reads matched power_supply uevents and invokes the refresh
// callback for each one.
func (m *powerEventMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.logger.Debug("power supply event",
				logging.String("action", string(uevent.Action)),
				logging.String("kobj", uevent.KObj),
			)
			if m.onEvent != nil {
				m.onEvent(ctx)
			}
		case err := <-errs:
			m.logger.Warn("power event monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "power_event_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
			)
		}
	}
}

// buildMatcher matches power_supply change events.
func (m *powerEventMonitor) buildMatcher() netlink.Matcher {
	action := "change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "power_supply",
		},
	})
	return rules
}
