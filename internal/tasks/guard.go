package tasks

import (
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"tunedex/internal/shared"
)

// PassGuard enforces single-pass execution. A file lock keeps passes from
// overlapping across processes, and incremental passes are debounced so a
// burst of triggers collapses into one pass.
type PassGuard struct {
	lock     *flock.Flock
	debounce time.Duration

	lastIncremental time.Time
	now             func() time.Time
}

// NewPassGuard creates a guard over the given lock file path.
func NewPassGuard(lockPath string, debounce time.Duration) *PassGuard {
	return &PassGuard{
		lock:     flock.New(lockPath),
		debounce: debounce,
		now:      time.Now,
	}
}

// Acquire takes the pass lock without blocking. A held lock means another
// pass is running.
func (g *PassGuard) Acquire() error {
	locked, err := g.lock.TryLock()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPassInProgress, err)
	}
	if !locked {
		return fmt.Errorf("%w: another pass holds %s", shared.ErrPassInProgress, g.lock.Path())
	}
	return nil
}

// AcquireIncremental takes the pass lock, additionally rejecting passes that
// start within the debounce window of the previous incremental pass.
func (g *PassGuard) AcquireIncremental() error {
	if !g.lastIncremental.IsZero() && g.now().Sub(g.lastIncremental) < g.debounce {
		return fmt.Errorf("%w: debounced, last incremental pass was %s ago",
			shared.ErrPassInProgress, g.now().Sub(g.lastIncremental).Round(time.Second))
	}

	if err := g.Acquire(); err != nil {
		return err
	}

	g.lastIncremental = g.now()
	return nil
}

// Release drops the pass lock.
func (g *PassGuard) Release() {
	g.lock.Unlock()
}
