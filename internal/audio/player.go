package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"attune/internal/config"
	"attune/internal/logging"
)

// Player renders the audio that accompanies a nudge. Play runs the full
// pipeline including a probe of the source; PlaySimplified skips the probe
// and any player arguments tied to richer processing, the degraded mode used
// on low battery.
type Player interface {
	Play(ctx context.Context, url string) error
	PlaySimplified(ctx context.Context, url string) error
}

// NewPlayer builds a player from configuration. When no player command is
// configured, a noop player is returned so delivery proceeds silently.
func NewPlayer(cfg *config.Config, logger *slog.Logger) Player {
	command := strings.TrimSpace(cfg.Audio.PlayerCommand)
	if command == "" {
		return noopPlayer{}
	}

	timeout := time.Duration(cfg.Audio.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &commandPlayer{
		logger:         logging.NewComponentLogger(logger, "audio-player"),
		command:        command,
		args:           append([]string(nil), cfg.Audio.PlayerArgs...),
		simplifiedArgs: append([]string(nil), cfg.Audio.SimplifiedArgs...),
		probeCommand:   strings.TrimSpace(cfg.Audio.ProbeCommand),
		timeout:        timeout,
	}
}

type commandPlayer struct {
	logger         *slog.Logger
	command        string
	args           []string
	simplifiedArgs []string
	probeCommand   string
	timeout        time.Duration

	// commandRunner overrides command execution in tests.
	commandRunner func(ctx context.Context, name string, args ...string) error
}

func (p *commandPlayer) Play(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("audio: source url required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if p.probeCommand != "" {
		if err := p.run(ctx, p.probeCommand, "-v", "error", "-show_format", url); err != nil {
			return fmt.Errorf("audio: probe %s: %w", url, err)
		}
	}

	args := append(append([]string(nil), p.args...), url)
	if err := p.run(ctx, p.command, args...); err != nil {
		return fmt.Errorf("audio: play %s: %w", url, err)
	}
	return nil
}

// PlaySimplified plays without the probe step or full player arguments.
func (p *commandPlayer) PlaySimplified(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("audio: source url required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append(append([]string(nil), p.simplifiedArgs...), url)
	if err := p.run(ctx, p.command, args...); err != nil {
		return fmt.Errorf("audio: play %s: %w", url, err)
	}
	return nil
}

func (p *commandPlayer) run(ctx context.Context, name string, args ...string) error {
	if p.commandRunner != nil {
		return p.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

type noopPlayer struct{}

func (noopPlayer) Play(context.Context, string) error           { return nil }
func (noopPlayer) PlaySimplified(context.Context, string) error { return nil }
