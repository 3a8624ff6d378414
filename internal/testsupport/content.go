package testsupport

import (
	"os"
	"testing"

	"attune/internal/config"
)

// WriteTemplates fills the config's templates file with the given TOML
// catalog content.
func WriteTemplates(t testing.TB, cfg *config.Config, catalog string) {
	t.Helper()

	if err := os.WriteFile(cfg.Content.TemplatesPath, []byte(catalog), 0o644); err != nil {
		t.Fatalf("write templates: %v", err)
	}
}

// DefaultCatalog is a small template catalog usable by most tests.
const DefaultCatalog = `
[[templates]]
id = "breath-01"
title = "Take a breath"
body = "Pause for three slow breaths."
category = "breathing"
audio_url = ""
active = true

[[templates]]
id = "gratitude-01"
title = "One good thing"
body = "Name one thing that went well today."
category = "gratitude"
active = true
`
