package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"tunedex/internal/models"
	"tunedex/internal/vault"
)

// TierStats summarizes one tier of the vault.
type TierStats struct {
	Tier      string `json:"tier"`
	Notes     int    `json:"notes"`
	InLibrary int    `json:"in_library"`
	Flagged   int    `json:"flagged"`
}

// VaultInit creates the tier folders under the vault root.
func (r *Runner) VaultInit(ctx context.Context, cmd *cli.Command) error {
	notes := r.vaultRepository()
	if err := notes.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create vault folders: %w", err)
	}

	r.writePlain("✓ Vault initialized at %s\n", notes.Root())
	for _, kind := range models.Kinds {
		r.writePlain("  %s/\n", r.config.Vault.FolderFor(kind.Tier()))
	}
	return nil
}

// VaultStats reports per-tier note counts and library membership.
func (r *Runner) VaultStats(ctx context.Context, cmd *cli.Command) error {
	notes := r.vaultRepository()

	stats := make([]TierStats, 0, len(models.Kinds))
	for _, kind := range models.Kinds {
		tierNotes, flagged, err := notes.ReadTier(kind)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", kind.Tier(), err)
		}

		inLibrary := 0
		for _, n := range tierNotes {
			if vault.NoteInLibrary(n) {
				inLibrary++
			}
		}

		stats = append(stats, TierStats{
			Tier:      kind.Tier(),
			Notes:     len(tierNotes),
			InLibrary: inLibrary,
			Flagged:   flagged,
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	for _, s := range stats {
		r.writePlain("%s: %d notes, %d in library", s.Tier, s.Notes, s.InLibrary)
		if s.Flagged > 0 {
			r.writePlain(", %d flagged", s.Flagged)
		}
		r.writePlainln("")
	}
	return nil
}
