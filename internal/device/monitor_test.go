package device

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"attune/internal/testsupport"
)

func TestKernelMajor(t *testing.T) {
	tests := []struct {
		release string
		want    int
	}{
		{"6.18.44-fc-v23", 6},
		{"5.15.0-generic", 5},
		{"4", 4},
		{"garbage", 0},
		{"", 0},
		{".5.0", 0},
	}
	for _, tt := range tests {
		if got := kernelMajor(tt.release); got != tt.want {
			t.Errorf("kernelMajor(%q) = %d, want %d", tt.release, got, tt.want)
		}
	}
}

func writeSupply(t *testing.T, base, name, kind, capacity, status string) {
	t.Helper()
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir supply: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "type"), []byte(kind+"\n"), 0o644); err != nil {
		t.Fatalf("write type: %v", err)
	}
	if capacity != "" {
		if err := os.WriteFile(filepath.Join(dir, "capacity"), []byte(capacity+"\n"), 0o644); err != nil {
			t.Fatalf("write capacity: %v", err)
		}
	}
	if status != "" {
		if err := os.WriteFile(filepath.Join(dir, "status"), []byte(status+"\n"), 0o644); err != nil {
			t.Fatalf("write status: %v", err)
		}
	}
}

func TestSysfsBatteryReader(t *testing.T) {
	base := t.TempDir()
	writeSupply(t, base, "AC", "Mains", "", "")
	writeSupply(t, base, "BAT0", "Battery", "47", "Discharging")

	reader := sysfsBatteryReader{baseDir: base}
	snap, err := reader.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.Level != 47 || snap.State != BatteryDischarging {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestSysfsBatteryReaderNoBattery(t *testing.T) {
	base := t.TempDir()
	writeSupply(t, base, "AC", "Mains", "", "")

	reader := sysfsBatteryReader{baseDir: base}
	if _, err := reader.Read(context.Background()); !errors.Is(err, ErrNoBattery) {
		t.Fatalf("error = %v, want ErrNoBattery", err)
	}
}

type fakeBatteryReader struct {
	snap Snapshot
	err  error
}

func (f fakeBatteryReader) Read(ctx context.Context) (Snapshot, error) {
	return f.snap, f.err
}

func newTestMonitor(t *testing.T, reader batteryReader) *Monitor {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	monitor := NewMonitor(cfg, nil)
	monitor.reader = reader
	return monitor
}

func TestIsLowBattery(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{name: "discharging below threshold", snap: Snapshot{Level: 15, State: BatteryDischarging}, want: true},
		{name: "discharging at threshold", snap: Snapshot{Level: 20, State: BatteryDischarging}, want: true},
		{name: "discharging above threshold", snap: Snapshot{Level: 50, State: BatteryDischarging}, want: false},
		{name: "charging at low level", snap: Snapshot{Level: 5, State: BatteryCharging}, want: false},
		{name: "full", snap: Snapshot{Level: 100, State: BatteryFull}, want: false},
		{name: "unknown state below threshold", snap: Snapshot{Level: 10, State: BatteryUnknown}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := newTestMonitor(t, fakeBatteryReader{snap: tt.snap})
			monitor.Refresh(context.Background())
			if got := monitor.IsLowBattery(); got != tt.want {
				t.Errorf("IsLowBattery() with %+v = %v, want %v", tt.snap, got, tt.want)
			}
		})
	}
}

func TestRefreshWithoutBattery(t *testing.T) {
	monitor := newTestMonitor(t, fakeBatteryReader{err: ErrNoBattery})
	monitor.Refresh(context.Background())

	if monitor.IsLowBattery() {
		t.Fatal("mains-powered host reported low battery")
	}
	snap := monitor.Battery()
	if snap.Level != 100 || snap.State != BatteryFull {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestRefreshKeepsLastSnapshotOnError(t *testing.T) {
	monitor := newTestMonitor(t, fakeBatteryReader{snap: Snapshot{Level: 30, State: BatteryDischarging, At: time.Now()}})
	monitor.Refresh(context.Background())

	monitor.reader = fakeBatteryReader{err: errors.New("transient read failure")}
	monitor.Refresh(context.Background())

	snap := monitor.Battery()
	if snap.Level != 30 || snap.State != BatteryDischarging {
		t.Fatalf("snapshot after failed refresh = %+v", snap)
	}
}

func TestSupportsModernNotificationChannels(t *testing.T) {
	monitor := newTestMonitor(t, fakeBatteryReader{})
	monitor.platform.KernelMajor = 6
	monitor.modernFloor = 5
	if !monitor.SupportsModernNotificationChannels() {
		t.Fatal("kernel 6 should pass a floor of 5")
	}
	monitor.modernFloor = 7
	if monitor.SupportsModernNotificationChannels() {
		t.Fatal("kernel 6 should fail a floor of 7")
	}
	monitor.platform.KernelMajor = 0
	monitor.modernFloor = 5
	if monitor.SupportsModernNotificationChannels() {
		t.Fatal("unparsed kernel version should fail the gate")
	}
}
