package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during an update cycle.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolvePlaylists Phase = iota
	FetchMembership
	FetchReleases
	ClassifyTracks
	AppendCurrent
	AppendArchive
	CleanArchive
	Complete
)

func (p Phase) String() string {
	switch p {
	case ResolvePlaylists:
		return "resolve_playlists"
	case FetchMembership:
		return "fetch_membership"
	case FetchReleases:
		return "fetch_releases"
	case ClassifyTracks:
		return "classify_tracks"
	case AppendCurrent:
		return "append_current"
	case AppendArchive:
		return "append_archive"
	case CleanArchive:
		return "clean_archive"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func resolvePlaylistsUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Resolving playlist %q...", name),
	}
}

func membershipUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMembership,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Reading %s contents...", name),
	}
}

func fetchArtistUpdate(step, total int, artistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReleases,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching releases for %s", step, total, artistID),
	}
}

func classifyUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClassifyTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Classifying %d candidate tracks...", total),
	}
}

func appendUpdate(phase Phase, step, total, added int, playlist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Added %d tracks to %s", step, total, added, playlist),
	}
}

func cleanUpdate(removed int, playlist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CleanArchive,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Removed %d expired tracks from %s", removed, playlist),
	}
}

func completeUpdate(result *UpdateResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Cycle finished: %d new, %d archived", result.CurrentAdded, result.ArchiveAdded),
		Data:    result,
	}
}
