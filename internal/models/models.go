// package models defines the data model for the movie discovery client
package models

import (
	"context"
	"fmt"
	"slices"
)

// Session is the authenticated identity observed by the client. A nil *Session means signed out.
type Session struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// Name returns the display name, falling back to the email and then the uid.
func (s *Session) Name() string {
	switch {
	case s == nil:
		return ""
	case s.DisplayName != "":
		return s.DisplayName
	case s.Email != "":
		return s.Email
	default:
		return s.UID
	}
}

// Movie is a single catalog search result.
type Movie struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview,omitempty"`
}

// Year returns the four digit release year or an empty string.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// List names one of the two membership sets of a [Preferences] record.
//
// The values double as the document field names.
type List string

const (
	Watched List = "watchedMovies"
	Liked   List = "likedMovies"
)

// Lists enumerates every valid [List].
var Lists = []List{Watched, Liked}

// ParseList accepts either the field name or the short forms "watched" and "liked".
func ParseList(s string) (List, error) {
	switch s {
	case "watched", string(Watched):
		return Watched, nil
	case "liked", string(Liked):
		return Liked, nil
	default:
		return "", fmt.Errorf("unknown list %q", s)
	}
}

func (l List) Valid() bool {
	return slices.Contains(Lists, l)
}

// Label returns the short human form of the list name.
func (l List) Label() string {
	switch l {
	case Watched:
		return "watched"
	case Liked:
		return "liked"
	default:
		return string(l)
	}
}

// Preferences is the per-user record holding watched and liked movie ids.
type Preferences struct {
	UserID  string
	Watched MovieSet
	Liked   MovieSet
}

// NewPreferences returns an empty record for uid.
func NewPreferences(uid string) *Preferences {
	return &Preferences{UserID: uid, Watched: NewMovieSet(), Liked: NewMovieSet()}
}

// Set returns the membership set for l. Unknown lists yield nil.
func (p *Preferences) Set(l List) MovieSet {
	switch l {
	case Watched:
		return p.Watched
	case Liked:
		return p.Liked
	default:
		return nil
	}
}

// PreferenceStore persists one [Preferences] record per user.
//
// Implementations must apply AddMovie and RemoveMovie atomically per field and
// return shared.ErrRecordNotFound from Get, AddMovie and RemoveMovie when uid has no record.
type PreferenceStore interface {
	// Get reads the record if it exists.
	Get(ctx context.Context, uid string) (*Preferences, error)
	// Create writes an empty record unless one exists.
	Create(ctx context.Context, uid string) error
	AddMovie(ctx context.Context, uid string, l List, id int) error
	RemoveMovie(ctx context.Context, uid string, l List, id int) error
}
