package content

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"attune/internal/config"
	"attune/internal/nudge"
	"attune/internal/timewindow"
)

// FileStore serves templates and settings from a TOML file and appends saved
// memories to a JSON-lines file. The templates file is re-read when its
// modification time changes, so edits land without a daemon restart.
type FileStore struct {
	templatesPath string
	memoriesPath  string

	mu       sync.Mutex
	loadedAt time.Time
	catalog  catalogFile
}

type catalogFile struct {
	Settings  settingsSection   `toml:"settings"`
	Templates []templateSection `toml:"templates"`
}

type settingsSection struct {
	DailyMax        int              `toml:"daily_max"`
	DisabledWindows []string         `toml:"disabled_windows"`
	Categories      map[string]bool  `toml:"categories"`
	WindowHours     map[string][]int `toml:"window_hours"`
}

type templateSection struct {
	ID       string   `toml:"id"`
	Title    string   `toml:"title"`
	Body     string   `toml:"body"`
	Category string   `toml:"category"`
	AudioURL string   `toml:"audio_url"`
	Windows  []string `toml:"windows"`
	Active   bool     `toml:"active"`
}

// NewFileStore builds a store over the configured content paths.
func NewFileStore(cfg *config.Config) *FileStore {
	return &FileStore{
		templatesPath: cfg.Content.TemplatesPath,
		memoriesPath:  cfg.Content.MemoriesPath,
	}
}

func (s *FileStore) TemplateByID(ctx context.Context, id string) (nudge.Template, bool, error) {
	catalog, err := s.load()
	if err != nil {
		return nudge.Template{}, false, err
	}
	for _, entry := range catalog.Templates {
		if entry.ID == id {
			return entry.toTemplate(), true, nil
		}
	}
	return nudge.Template{}, false, nil
}

// RandomForWindow picks a uniformly random active template eligible for the
// window, honoring category opt-outs from settings.
func (s *FileStore) RandomForWindow(ctx context.Context, window nudge.Window) (nudge.Template, bool, error) {
	catalog, err := s.load()
	if err != nil {
		return nudge.Template{}, false, err
	}

	settings := catalog.Settings.toSettings()
	var eligible []templateSection
	for _, entry := range catalog.Templates {
		if !entry.Active {
			continue
		}
		if !settings.CategoryEnabled(entry.Category) {
			continue
		}
		if !entry.servesWindow(window) {
			continue
		}
		eligible = append(eligible, entry)
	}
	if len(eligible) == 0 {
		return nudge.Template{}, false, nil
	}
	return eligible[rand.Intn(len(eligible))].toTemplate(), true, nil
}

func (s *FileStore) UserSettings(ctx context.Context) (Settings, error) {
	catalog, err := s.load()
	if err != nil {
		return Settings{}, err
	}
	return catalog.Settings.toSettings(), nil
}

// SaveMemory appends one JSON line per saved memory. Appends are atomic at
// this size on POSIX filesystems, so concurrent saves do not interleave.
func (s *FileStore) SaveMemory(ctx context.Context, memory Memory) error {
	if memory.SavedAt.IsZero() {
		memory.SavedAt = time.Now()
	}

	line, err := json.Marshal(memory)
	if err != nil {
		return fmt.Errorf("content: encode memory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.memoriesPath), 0o755); err != nil {
		return fmt.Errorf("content: ensure memories dir: %w", err)
	}
	file, err := os.OpenFile(s.memoriesPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("content: open memories file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("content: append memory: %w", err)
	}
	return nil
}

// load returns the cached catalog, re-reading the file when it changed on
// disk. A missing templates file yields an empty catalog rather than an
// error.
func (s *FileStore) load() (catalogFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.templatesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return catalogFile{}, nil
		}
		return catalogFile{}, fmt.Errorf("content: stat templates: %w", err)
	}

	if !s.loadedAt.IsZero() && !info.ModTime().After(s.loadedAt) {
		return s.catalog, nil
	}

	data, err := os.ReadFile(s.templatesPath)
	if err != nil {
		return catalogFile{}, fmt.Errorf("content: read templates: %w", err)
	}

	var catalog catalogFile
	if err := toml.Unmarshal(data, &catalog); err != nil {
		return catalogFile{}, fmt.Errorf("content: parse templates: %w", err)
	}
	for _, entry := range catalog.Templates {
		if err := entry.toTemplate().Validate(); err != nil {
			return catalogFile{}, fmt.Errorf("content: invalid template: %w", err)
		}
	}

	s.catalog = catalog
	s.loadedAt = info.ModTime()
	return s.catalog, nil
}

func (t templateSection) toTemplate() nudge.Template {
	return nudge.Template{
		ID:       strings.TrimSpace(t.ID),
		Title:    t.Title,
		Body:     t.Body,
		Category: t.Category,
		AudioURL: t.AudioURL,
		Active:   t.Active,
	}
}

// servesWindow reports whether a template is eligible for a window. An empty
// window list means the template serves every window.
func (t templateSection) servesWindow(window nudge.Window) bool {
	if len(t.Windows) == 0 {
		return true
	}
	for _, name := range t.Windows {
		if parsed, ok := nudge.ParseWindow(name); ok && parsed == window {
			return true
		}
	}
	return false
}

func (s settingsSection) toSettings() Settings {
	settings := Settings{DailyMax: s.DailyMax}

	if len(s.DisabledWindows) > 0 {
		settings.EnabledWindows = make(map[nudge.Window]bool)
		for _, name := range s.DisabledWindows {
			if window, ok := nudge.ParseWindow(name); ok {
				settings.EnabledWindows[window] = false
			}
		}
	}
	if len(s.Categories) > 0 {
		settings.EnabledCategories = make(map[string]bool, len(s.Categories))
		for category, enabled := range s.Categories {
			settings.EnabledCategories[category] = enabled
		}
	}
	if len(s.WindowHours) > 0 {
		settings.Customizations = make(map[nudge.Window]timewindow.Hours)
		for name, hours := range s.WindowHours {
			window, ok := nudge.ParseWindow(name)
			if !ok || len(hours) != 2 {
				continue
			}
			custom := timewindow.Hours{Start: hours[0], End: hours[1]}
			if custom.Valid() {
				settings.Customizations[window] = custom
			}
		}
	}
	return settings
}
