package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tejashwikalptaru/tunedeck/internal/app"
	"github.com/tejashwikalptaru/tunedeck/internal/config"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

// Runner holds the dependencies shared by every command action.
type Runner struct {
	output io.Writer
	open   func(ctx context.Context, configPath string) (*app.Application, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Output io.Writer

	// Open builds the application; tests swap it to inject a logger
	Open func(ctx context.Context, configPath string) (*app.Application, error)
}

// NewRunner creates a new Runner with the provided options.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Open == nil {
		opts.Open = openApplication
	}
	return &Runner{output: opts.Output, open: opts.Open}
}

func openApplication(ctx context.Context, configPath string) (*app.Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.NewApplication(ctx, app.Options{Config: cfg})
}

// withDeck opens the library, runs fn and closes it again, saving state.
func (r *Runner) withDeck(ctx context.Context, cmd *cli.Command, fn func(a *app.Application) error) (err error) {
	a, err := r.open(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Shutdown(ctx); err == nil {
			err = closeErr
		}
	}()
	return fn(a)
}

// handle sends one request and reports failures the way the command line shows them.
func (r *Runner) handle(ctx context.Context, a *app.Application, req service.Request) (service.Result, error) {
	res, err := a.Deck().Handle(ctx, req)
	if err != nil {
		return res, err
	}
	if res.Entry != nil {
		if err := r.writePlain("recorded %s (%s)\n", res.Entry.ID, res.Entry.Type); err != nil {
			return res, err
		}
	}
	return res, nil
}

// resolvePlaylist accepts "current", "queue", a playlist id or a playlist name.
func resolvePlaylist(deck *service.Deck, arg string) (domain.PlaylistKey, error) {
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(arg) {
	case "", domain.QueueID, "queue":
		return domain.QueueKey(), nil
	}
	key := domain.ParseKey(arg)
	if _, ok := deck.Playlist(key); ok {
		return key, nil
	}
	var matches []domain.PlaylistKey
	for _, p := range deck.Playlists() {
		if !p.Key.IsQueue() && strings.EqualFold(p.Name, arg) {
			matches = append(matches, p.Key)
		}
	}
	switch len(matches) {
	case 0:
		return domain.PlaylistKey{}, domain.NewNotFoundError("playlist", arg)
	case 1:
		return matches[0], nil
	}
	return domain.PlaylistKey{}, domain.NewValidationError("playlist", arg, "name is ambiguous, use the id")
}

func parsePositions(args []string) ([]int, error) {
	positions := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, domain.NewValidationError("position", a, "not a number")
		}
		positions = append(positions, n)
	}
	return positions, nil
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "--:--"
	}
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
