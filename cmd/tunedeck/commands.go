package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/tejashwikalptaru/tunedeck/internal/app"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

// Command returns the root command with every subcommand registered.
func (r *Runner) Command() *cli.Command {
	return &cli.Command{
		Name:    "tunedeck",
		Usage:   "Manage a persistent audio track library and its playlists",
		Version: app.GetVersionInfo().Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an extra configuration file",
			},
		},
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range []func(*Runner) *cli.Command{
		importCommand, lsCommand, playlistsCommand, createCommand, deleteCommand, removeCommand,
		clearCommand, moveCommand, undoCommand, historyCommand, gcCommand, versionCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Add audio files or directories to the current queue",
		ArgsUsage: "PATH...",
		Action:    r.Import,
	}
}

func lsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List the tracks of a playlist (the queue by default)",
		ArgsUsage: "[PLAYLIST]",
		Action:    r.List,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "playlists",
		Usage:  "List every playlist",
		Action: r.Playlists,
	}
}

func createCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a named playlist",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "cover",
				Usage: "Image file embedded as the playlist cover",
			},
		},
		Action: r.Create,
	}
}

func deleteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a named playlist (undoable)",
		ArgsUsage: "PLAYLIST",
		Action:    r.Delete,
	}
}

func removeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove the track at a position (undoable)",
		ArgsUsage: "PLAYLIST POS",
		Action:    r.Remove,
	}
}

func clearCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "clear",
		Usage:     "Remove every track of a playlist and delete their audio",
		ArgsUsage: "PLAYLIST",
		Action:    r.Clear,
	}
}

func moveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move tracks between playlists (undoable)",
		ArgsUsage: "SOURCE POS...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Target playlist",
				Required: true,
			},
		},
		Action: r.Move,
	}
}

func undoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "undo",
		Usage:     "Undo an action log entry (the latest by default)",
		ArgsUsage: "[ENTRY]",
		Action:    r.Undo,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show the action log",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Forget every entry",
			},
		},
		Action: r.History,
	}
}

func gcCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "gc",
		Usage:  "Delete stored audio no playlist or undoable action references",
		Action: r.CollectGarbage,
	}
}

func versionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(_ context.Context, _ *cli.Command) error {
			return r.writePlain("%s\n", app.GetVersionInfo().FullString())
		},
	}
}

// Import ingests files in the order given; directories are expanded sorted.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("at least one path is required")
	}
	return r.withDeck(ctx, cmd, func(a *app.Application) error {
		res, err := a.Import(ctx, paths...)
		if err != nil {
			return err
		}
		for _, t := range res.Tracks {
			if err := r.writePlain("+ %s\t%s\n", t.Name, t.ID); err != nil {
				return err
			}
		}
		for _, f := range res.Failures {
			if err := r.writePlain("! %v\n", f); err != nil {
				return err
			}
		}
		return r.writePlain("imported %d of %d\n", len(res.Tracks), len(res.Tracks)+len(res.Failures))
	})
}

// List prints the tracks of one playlist.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	return r.withDeck(ctx, cmd, func(a *app.Application) error {
		key, err := resolvePlaylist(a.Deck(), cmd.Args().First())
		if err != nil {
			return err
		}
		p, _ := a.Deck().Playlist(key)
		if err := r.writePlain("%s (%s), %d tracks\n", p.Name, p.Key, len(p.Tracks)); err != nil {
			return err
		}
		for i, t := range p.Tracks {
			if err := r.writePlain("%3d  %-6s %s\n", i, formatDuration(t.DurationSeconds), t.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

// Playlists prints every playlist, the queue first.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	return r.withDeck(ctx, cmd, func(a *app.Application) error {
		viewed := a.Deck().State().Viewed
		for _, p := range a.Deck().Playlists() {
			marker := " "
			if p.Key == viewed {
				marker = "*"
			}
			if err := r.writePlain("%s %-44s %-24s %d tracks\n", marker, p.Key, p.Name, len(p.Tracks)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Create adds a named playlist, optionally with an embedded cover image.
func (r *Runner) Create(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	cover := ""
	if path := cmd.String("cover"); path != "" {
		var err error
		if cover, err = dataURL(path); err != nil {
			return err
		}
	}
	return r.withDeck(ctx, cmd, func(a *app.Application) error {
		res, err := r.handle(ctx, a, service.RequestCreatePlaylist{Name: name, Cover: cover})
		if err != nil {
			return err
		}
		return r.writePlain("created %s\n", res.Playlist)
	})
}

// dataURL embeds an image file the way covers are stored.
func dataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read cover: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Delete removes a named playlist.
func (r *Runner) Delete(ctx context.Context, cmd *cli.Command) error {
	return r.withDeck(ctx, cmd, func(a *app.Application) error {
		key, err := resolvePlaylist(a.Deck(), cmd.Args().First())
		if err != nil {
			return err
		}
		_, err = r.handle(ctx, a, service.RequestDeletePlaylist{Playlist: key})
		return err
	})
}

// Remove takes one track out of a playlist.
func (r *Runner) Remove(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("usage: remove PLAYLIST POS")
	}
	positions, err := parsePositions(cmd.Args().Tail())
	if err != nil {
		return err
	}
	return r.withDeck(ctx, cmd, func(a *app.Application) error {
		key, err := resolvePlaylist(a.Deck(), cmd.Args().First())
		if err != nil {
			return err
		}
		_, err = r.handle(ctx, a, service.RequestRemoveTrack{Playlist: key, Position: positions[0]})
		return err
	})
}

// Clear empties a playlist.
func (r *Runner) Clear(ctx context.Context, cmd *cli.Command) error {
	return r.withDeck(ctx, cmd, func(a *app.Application) error {
		key, err := resolvePlaylist(a.Deck(), cmd.Args().First())
		if err != nil {
			return err
		}
		if _, err := r.handle(ctx, a, service.RequestClearPlaylist{Playlist: key}); err != nil {
			return err
		}
		return r.writePlain("cleared %s\n", key)
	})
}

// Move transfers the tracks at the given positions into the --to playlist.
func (r *Runner) Move(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 2 {
		return fmt.Errorf("usage: move SOURCE POS... --to TARGET")
	}
	positions, err := parsePositions(cmd.Args().Tail())
	if err != nil {
		return err
	}
	return r.withDeck(ctx, cmd, func(a *app.Application) error {
		source, err := resolvePlaylist(a.Deck(), cmd.Args().First())
		if err != nil {
			return err
		}
		target, err := resolvePlaylist(a.Deck(), cmd.String("to"))
		if err != nil {
			return err
		}
		res, err := r.handle(ctx, a, service.RequestMoveTracks{Source: source, Positions: positions, Target: target})
		if err != nil {
			return err
		}
		return r.writePlain("moved %d\n", res.Moved)
	})
}

// Undo reverses one entry.
func (r *Runner) Undo(ctx context.Context, cmd *cli.Command) error {
	return r.withDeck(ctx, cmd, func(a *app.Application) error {
		res, err := a.Deck().Handle(ctx, service.RequestUndo{EntryID: cmd.Args().First()})
		if err != nil {
			return err
		}
		return r.writePlain("undid %s (%s)\n", res.Entry.ID, res.Entry.Type)
	})
}

// History prints the action log, oldest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	return r.withDeck(ctx, cmd, func(a *app.Application) error {
		if cmd.Bool("clear") {
			_, err := a.Deck().Handle(ctx, service.RequestClearHistory{})
			return err
		}
		for _, e := range a.Deck().History() {
			state := "undone"
			if e.Undoable {
				state = "undoable"
			}
			if err := r.writePlain("%s  %-15s %-9s %s  %s\n", e.ID, e.Type, state, humanize.Time(e.Timestamp), describe(e)); err != nil {
				return err
			}
		}
		return nil
	})
}

func describe(e domain.ActionLogEntry) string {
	p := e.Payload
	switch e.Type {
	case domain.ActionTrackMove:
		return fmt.Sprintf("%d track(s) %s -> %s", len(p.Tracks), p.SourceID, p.TargetID)
	case domain.ActionPlaylistDelete:
		if p.Playlist != nil {
			return fmt.Sprintf("%q with %d track(s)", p.Playlist.Name, len(p.Playlist.Tracks))
		}
	case domain.ActionTrackAdd, domain.ActionTrackRemove:
		if len(p.Tracks) == 1 {
			return fmt.Sprintf("%q in %s", p.Tracks[0].Name, p.PlaylistID)
		}
		return fmt.Sprintf("%d track(s) in %s", len(p.Tracks), p.PlaylistID)
	}
	return p.PlaylistID
}

// CollectGarbage deletes unreferenced blobs.
func (r *Runner) CollectGarbage(ctx context.Context, cmd *cli.Command) error {
	return r.withDeck(ctx, cmd, func(a *app.Application) error {
		n, err := a.Deck().CollectGarbage(ctx)
		if err != nil {
			return err
		}
		return r.writePlain("removed %d orphaned blob(s)\n", n)
	})
}
