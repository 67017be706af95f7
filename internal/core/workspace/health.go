package workspace

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Stamp      uint64            `json:"stamp"`
	Components map[string]string `json:"components"`
}

// Health reports the state of the index, the loaded trees and the optional
// parser, store and watcher.
func (w *Workspace) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Stamp:      uint64(w.Stamp()),
		Components: make(map[string]string),
	}
	if err := ctx.Err(); err != nil {
		status.Status = "degraded"
		status.Components["context"] = err.Error()
		return status
	}

	if n := w.index.Len(); n == 0 && len(w.index.Roots()) > 0 {
		status.Status = "degraded"
		status.Components["index"] = "empty"
	} else {
		status.Components["index"] = fmt.Sprintf("ok (%d entries, %d roots)", n, len(w.index.Roots()))
	}
	status.Components["trees"] = fmt.Sprintf("%d loaded", len(w.Paths()))

	if w.parser != nil {
		status.Components["parser"] = "ok"
	} else {
		status.Components["parser"] = "sidecar only"
	}

	if w.store != nil {
		status.Components["store"] = "ok"
	} else if w.Config.Index.Persist {
		status.Status = "degraded"
		status.Components["store"] = "missing but enabled in config"
	}

	w.watchMu.Lock()
	watching := w.watcher != nil
	w.watchMu.Unlock()
	switch {
	case watching:
		status.Components["watcher"] = "ok"
	case w.Config.Watch.Enabled:
		status.Components["watcher"] = "not started"
	}
	return status
}
