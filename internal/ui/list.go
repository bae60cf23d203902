package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/naestech/newNoise/internal/models"
)

var _ list.Item = artistItem{}

// artistItem wraps [models.TrackedArtist] to implement [list.Item].
type artistItem struct {
	artist models.TrackedArtist
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return i.artist.Name }
func (i artistItem) Description() string {
	return fmt.Sprintf("%s • added %s", i.artist.ID, i.artist.AddedAt.Format("2006-01-02"))
}

func artistItems(artists []models.TrackedArtist) []list.Item {
	items := make([]list.Item, len(artists))
	for i, a := range artists {
		items[i] = artistItem{artist: a}
	}
	return items
}
