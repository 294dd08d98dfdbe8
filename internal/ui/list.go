package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/cinematch/internal/discovery"
)

var (
	_ list.Item        = movieItem{}
	_ list.DefaultItem = movieItem{}
)

const (
	labelWatched   = "✓ Watched"
	labelUnwatched = "Mark as watched"
	labelLiked     = "♥ Liked"
	labelUnliked   = "♡ Like"
)

// movieItem wraps [discovery.Row] to implement [list.Item].
type movieItem struct {
	row discovery.Row
}

func (i movieItem) FilterValue() string { return i.row.Movie.Title }

func (i movieItem) Title() string {
	if y := i.row.Movie.Year(); y != "" {
		return i.row.Movie.Title + " (" + y + ")"
	}
	return i.row.Movie.Title
}

func (i movieItem) Description() string {
	parts := []string{}
	if i.row.Movie.ReleaseDate != "" {
		parts = append(parts, i.row.Movie.ReleaseDate)
	}
	if i.row.PosterURL != "" {
		parts = append(parts, i.row.PosterURL)
	}
	if a := affordances(i.row); a != "" {
		parts = append(parts, a)
	}
	return strings.Join(parts, " • ")
}

// affordances renders the watched and liked toggles, or nothing without a session.
func affordances(r discovery.Row) string {
	if !r.ShowToggles {
		return ""
	}

	watched := styles.unwatched.Render(labelUnwatched)
	if r.Watched {
		watched = styles.watched.Render(labelWatched)
	}
	liked := styles.unliked.Render(labelUnliked)
	if r.Liked {
		liked = styles.liked.Render(labelLiked)
	}
	return watched + "  " + liked
}

func toItems(rows []discovery.Row) []list.Item {
	items := make([]list.Item, len(rows))
	for i, r := range rows {
		items[i] = movieItem{row: r}
	}
	return items
}
