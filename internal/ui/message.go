package ui

import (
	"github.com/naestech/newNoise/internal/tasks"
)

type progressUpdateMsg tasks.ProgressUpdate

type cycleCompleteMsg struct {
	result *tasks.UpdateResult
	err    error
}

type artistsAddedMsg struct {
	results []tasks.AddResult
}

type artistsRemovedMsg struct {
	results []tasks.RemoveResult
}
