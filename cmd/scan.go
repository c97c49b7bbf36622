package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"tunedex/internal/repositories"
	"tunedex/internal/services"
	"tunedex/internal/shared"
)

// Scan indexes a local music directory so tracks can be matched to files.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.StringArg("dir")
	if dir == "" {
		dir = r.config.Local.MusicDir
	}
	if dir == "" {
		return fmt.Errorf("%w: pass a directory or set local.music_dir in config.toml", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	scanner := services.NewLocalScanner(repositories.NewLocalFileRepository(db), r.logger)

	r.logger.Info("scanning music directory", "dir", dir)

	result, err := scanner.Scan(ctx, dir)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	r.writePlain("✓ Scanned %d files (%d skipped, %d failed)\n", result.Scanned, result.Skipped, result.Failed)
	return nil
}
