package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"attune/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = filepath.Join(base, "attune.sock")
	cfgVal.Permission.StateFile = filepath.Join(base, "permission")
	cfgVal.Content.TemplatesPath = filepath.Join(base, "templates.toml")
	cfgVal.Content.MemoriesPath = filepath.Join(base, "memories.jsonl")
	cfgVal.Delivery.Timezone = "UTC"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithTimezone sets the delivery timezone on the test config.
func WithTimezone(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Delivery.Timezone = name
	}
}

// WithDailyMax sets the daily delivery cap on the test config.
func WithDailyMax(max int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Delivery.DailyMax = max
	}
}

// WithPermissionState writes the permission state file with the given value.
func WithPermissionState(state string) ConfigOption {
	return func(b *configBuilder) {
		if err := os.WriteFile(b.cfg.Permission.StateFile, []byte(state+"\n"), 0o644); err != nil {
			b.t.Fatalf("write permission state: %v", err)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
