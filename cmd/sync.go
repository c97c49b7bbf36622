package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"tunedex/internal/formatter"
	"tunedex/internal/repositories"
	"tunedex/internal/tasks"
)

// SyncFull runs a full reconciliation pass with progress output.
func (r *Runner) SyncFull(ctx context.Context, cmd *cli.Command) error {
	return r.runPass(ctx, true)
}

// SyncIncremental runs an incremental pass over recently saved items.
func (r *Runner) SyncIncremental(ctx context.Context, cmd *cli.Command) error {
	return r.runPass(ctx, false)
}

func (r *Runner) runPass(ctx context.Context, full bool) error {
	if err := r.authenticate(ctx); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("database unavailable, pass runs without file matching or history", "error", err)
		db = nil
	} else {
		defer db.Close()
	}

	engine, err := r.buildEngine(db)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Total > 0 {
				r.writePlain("[%s] (%d/%d) %s\n", update.Phase, update.Step, update.Total, update.Message)
			} else {
				r.writePlain("[%s] %s\n", update.Phase, update.Message)
			}
		}
	}()

	var result *tasks.SyncResult
	if full {
		result, err = engine.FullSync(ctx, progress)
	} else {
		result, err = engine.IncrementalSync(ctx, progress)
	}
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	r.writePlain("\n%s\n", formatter.SummarizeResult(result))
	return nil
}

// SyncLog shows or exports recent sync passes.
func (r *Runner) SyncLog(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	passes, err := repositories.NewSyncPassRepository(db).Recent(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to load sync log: %w", err)
	}

	if len(passes) == 0 {
		r.writePlainln("no passes recorded")
		return nil
	}

	if exportPath := cmd.String("export"); exportPath != "" || cmd.IsSet("format") {
		written, err := formatter.WriteLogExport(passes, exportPath, cmd.String("format"))
		if err != nil {
			return fmt.Errorf("failed to export sync log: %w", err)
		}
		r.writePlain("✓ Sync log exported to %s\n", written)
		return nil
	}

	text, err := formatter.ExportLogToText(passes)
	if err != nil {
		return fmt.Errorf("failed to format sync log: %w", err)
	}
	r.writePlain("%s", text)
	return nil
}
