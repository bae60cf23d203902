package main

import (
	"context"
	"fmt"

	"github.com/naestech/newNoise/internal/formatter"
	"github.com/naestech/newNoise/internal/shared"
	"github.com/urfave/cli/v3"
)

// ArtistsAdd searches each name and tracks the first match.
func (r *Runner) ArtistsAdd(ctx context.Context, cmd *cli.Command) error {
	input := namesFrom(cmd)
	if len(shared.SplitNames(input)) == 0 {
		return fmt.Errorf("%w: at least one artist name", shared.ErrMissingArgument)
	}

	tracker, err := r.openTracker(ctx, true)
	if err != nil {
		return err
	}

	results := tracker.AddArtists(ctx, input)
	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}

	for _, res := range results {
		switch {
		case res.Err != nil:
			r.writePlain("✗ %s: %v\n", res.Query, res.Err)
		case res.Added:
			r.writePlain("✓ Added %s (%s)\n", res.Artist.Name, res.Artist.ID)
		default:
			r.writePlain("• %s is already tracked\n", res.Artist.Name)
		}
	}
	return nil
}

// ArtistsRemove stops tracking each name or id. Unknown entries are reported, not treated as errors.
func (r *Runner) ArtistsRemove(ctx context.Context, cmd *cli.Command) error {
	input := namesFrom(cmd)
	if len(shared.SplitNames(input)) == 0 {
		return fmt.Errorf("%w: at least one artist name or id", shared.ErrMissingArgument)
	}

	tracker, err := r.openTracker(ctx, false)
	if err != nil {
		return err
	}

	results := tracker.RemoveArtists(input)
	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}

	for _, res := range results {
		if res.Removed {
			r.writePlain("✓ Removed %s\n", res.Query)
		} else {
			r.writePlain("• %s is not tracked\n", res.Query)
		}
	}
	return nil
}

// ArtistsList prints the registry in insertion order.
func (r *Runner) ArtistsList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}
	artists := store.List()

	if cmd.Bool("json") {
		return r.writeJSON(artists, cmd.Bool("pretty"))
	}

	if path := cmd.String("output"); path != "" {
		format, err := formatter.WriteFile(path, func(f formatter.Format) ([]byte, error) {
			return formatter.Artists(artists, f)
		})
		if err != nil {
			return err
		}
		r.logger.Info("artist list exported", "path", path, "format", format, "artists", len(artists))
		return r.writePlain("✓ Exported %d artists to %s\n", len(artists), path)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	data, err := formatter.Artists(artists, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// ArtistsImport tracks every followed artist of the connected account.
func (r *Runner) ArtistsImport(ctx context.Context, cmd *cli.Command) error {
	tracker, err := r.openTracker(ctx, true)
	if err != nil {
		return err
	}

	result, err := tracker.ImportFollowed(ctx)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Imported %d of %d followed artists\n", result.Added, result.Followed)
}
