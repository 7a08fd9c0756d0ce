//nolint:gci,gofumpt
package progress

import (
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/arumata/glacierbag/internal/usecase"
)

// Adapter implements ProgressSink with one progressbar.ProgressBar per
// phase, swapping bars as the phase changes (stage → pack → upload),
// the same phase-keyed bar-swap pattern used for indexing progress
// elsewhere in the corpus.
type Adapter struct {
	logger *slog.Logger

	mu      sync.Mutex
	phase   string
	bar     *progressbar.ProgressBar
	enabled bool
}

// New creates a progress adapter. When enabled is false, Publish is a
// no-op (non-interactive/cron runs shouldn't render bars to a log file).
func New(logger *slog.Logger, enabled bool) *Adapter {
	if logger == nil {
		panic("progress adapter requires logger")
	}
	return &Adapter{logger: logger, enabled: enabled}
}

// Publish renders one progress sample, starting a fresh bar whenever
// the phase or label changes.
func (a *Adapter) Publish(ev usecase.ProgressEvent) {
	if !a.enabled {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	key := ev.Phase + ":" + ev.Label
	if key != a.phase {
		if a.bar != nil {
			_ = a.bar.Finish()
		}
		a.phase = key
		a.bar = progressbar.DefaultBytes(ev.Total, describe(ev))
	}
	if a.bar != nil {
		_ = a.bar.Set64(ev.Current)
	}
}

func describe(ev usecase.ProgressEvent) string {
	switch ev.Phase {
	case "stage":
		return "staging " + ev.Label
	case "pack":
		return "packing " + ev.Label
	case "upload":
		return "uploading " + ev.Label
	default:
		return ev.Phase + " " + ev.Label
	}
}
