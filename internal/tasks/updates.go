package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase enumerates the stages of a watchlist operation.
type Phase int

const (
	PhaseResolveWatchlist Phase = iota
	PhaseExportWatchlist
)

func (p Phase) String() string {
	switch p {
	case PhaseResolveWatchlist:
		return "resolve_watchlist"
	case PhaseExportWatchlist:
		return "export_watchlist"
	default:
		return ""
	}
}

// sendProgress delivers update unless the receiver is absent or not keeping up.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func resolvedUpdate(step, total int, res ResolveResult) ProgressUpdate {
	if res.Err != nil {
		return ProgressUpdate{
			Phase:   PhaseResolveWatchlist,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %d: %v", step, total, res.ID, res.Err),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   PhaseResolveWatchlist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Label),
		Data:    res,
	}
}

func exportedUpdate(path string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseExportWatchlist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Exported %d titles to %s", count, path),
	}
}
