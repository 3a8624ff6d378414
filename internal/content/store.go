package content

import (
	"context"
	"time"

	"attune/internal/nudge"
	"attune/internal/timewindow"
)

// Settings is the user-facing configuration the content collaborator owns:
// which windows and categories are active, the daily delivery cap override,
// and per-window hour customizations.
type Settings struct {
	EnabledWindows    map[nudge.Window]bool
	EnabledCategories map[string]bool
	DailyMax          int
	Customizations    map[nudge.Window]timewindow.Hours
}

// WindowEnabled reports whether a window is active. An absent entry means
// enabled; only explicit opt-outs disable a window.
func (s Settings) WindowEnabled(w nudge.Window) bool {
	if s.EnabledWindows == nil {
		return true
	}
	enabled, ok := s.EnabledWindows[w]
	if !ok {
		return true
	}
	return enabled
}

// CategoryEnabled reports whether a template category is active, with the
// same absent-means-enabled convention as windows.
func (s Settings) CategoryEnabled(category string) bool {
	if s.EnabledCategories == nil {
		return true
	}
	enabled, ok := s.EnabledCategories[category]
	if !ok {
		return true
	}
	return enabled
}

// Memory is a saved nudge the user chose to keep.
type Memory struct {
	TemplateID string    `json:"templateId"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	AudioURL   string    `json:"audioUrl,omitempty"`
	SavedAt    time.Time `json:"savedAt"`
}

// Store is the read surface for nudge templates and settings plus the write
// surface for saved memories.
type Store interface {
	TemplateByID(ctx context.Context, id string) (nudge.Template, bool, error)
	RandomForWindow(ctx context.Context, window nudge.Window) (nudge.Template, bool, error)
	UserSettings(ctx context.Context) (Settings, error)
	SaveMemory(ctx context.Context, memory Memory) error
}
