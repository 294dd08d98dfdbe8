package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/services"
	"github.com/desertthunder/cinematch/internal/session"
	"github.com/desertthunder/cinematch/internal/shared"
)

// Kind classifies a user-visible message.
type Kind int

const (
	KindNone Kind = iota
	KindNoResults
	KindError
	KindSignInRequired
	KindUpdateFailed
)

const (
	MsgNoResults      = "No movies found"
	MsgSearchFailed   = "Error while retrieving movies"
	MsgUpdateFailed   = "Error while updating the movie status."
	msgSignInRequired = "You must be signed in to %s."
)

func (k Kind) String() string {
	switch k {
	case KindNoResults:
		return "no-results"
	case KindError:
		return "error"
	case KindSignInRequired:
		return "sign-in-required"
	case KindUpdateFailed:
		return "update-failed"
	default:
		return "none"
	}
}

// Notice is a blocking notification that the user has to dismiss.
type Notice struct {
	Kind    Kind
	Message string
}

// Message is the inline status line shown above the results.
type Message = Notice

// Notifier shows blocking notices.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// SessionSource is anything that publishes session transitions, such as [session.Publisher]
// or an auth.Identity.
type SessionSource interface {
	Subscribe(fn session.Listener) (unsubscribe func())
}

// Row is one rendered search result.
type Row struct {
	Movie       models.Movie
	PosterURL   string
	Watched     bool
	Liked       bool
	ShowToggles bool
}

// View is an immutable snapshot of the controller's state for rendering.
type View struct {
	Session *models.Session
	Message Message
	Rows    []Row
}

// Controller drives the catalog search screen: results, the inline message, and the signed-in
// user's watched and liked sets.
//
// Local sets change only after the store confirms a write.
type Controller struct {
	catalog  services.Catalog
	store    models.PreferenceStore
	notifier Notifier
	logger   *log.Logger

	mu          sync.Mutex
	session     *models.Session
	results     []models.Movie
	message     Message
	watched     models.MovieSet
	liked       models.MovieSet
	unsubscribe func()
}

func NewController(catalog services.Catalog, store models.PreferenceStore, notifier Notifier, logger *log.Logger) *Controller {
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	return &Controller{
		catalog:  catalog,
		store:    store,
		notifier: notifier,
		logger:   shared.WithLogger(logger, "component", "discovery"),
		watched:  models.NewMovieSet(),
		liked:    models.NewMovieSet(),
	}
}

// Mount subscribes to src for the lifetime of the view. The current session is handled at once.
func (c *Controller) Mount(ctx context.Context, src SessionSource) {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	unsubscribe := src.Subscribe(func(s *models.Session) { c.HandleSession(ctx, s) })

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
}

func (c *Controller) Unmount() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// HandleSession reacts to a session transition.
//
// A newly present session replaces both local sets with the stored record; a missing record or
// a failed read leaves them empty. An absent session clears them.
func (c *Controller) HandleSession(ctx context.Context, s *models.Session) {
	c.mu.Lock()
	prev := c.session
	c.session = s
	if s == nil {
		c.watched, c.liked = models.NewMovieSet(), models.NewMovieSet()
		c.mu.Unlock()
		return
	}
	if prev != nil && prev.UID == s.UID {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	watched, liked := models.NewMovieSet(), models.NewMovieSet()
	prefs, err := c.store.Get(ctx, s.UID)
	switch {
	case err == nil:
		watched, liked = prefs.Watched.Clone(), prefs.Liked.Clone()
	case errors.Is(err, shared.ErrRecordNotFound):
		c.logger.Debug("no preference record yet", "uid", s.UID)
	default:
		c.logger.Error("failed to load preferences", "uid", s.UID, "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.UID != s.UID {
		return
	}
	c.watched, c.liked = watched, liked
}

// Search replaces the displayed results with the catalog's answer for query.
//
// On failure the previous results stay on screen under an error message.
func (c *Controller) Search(ctx context.Context, query string) error {
	movies, err := c.catalog.Search(ctx, query)
	if err != nil {
		c.logger.Error("search failed", "query", query, "error", err)
		c.mu.Lock()
		c.message = Message{Kind: KindError, Message: MsgSearchFailed}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(movies) == 0 {
		c.results = nil
		c.message = Message{Kind: KindNoResults, Message: MsgNoResults}
		return nil
	}
	c.results = movies
	c.message = Message{}
	return nil
}

func (c *Controller) ToggleWatched(ctx context.Context, id int) error {
	return c.toggle(ctx, models.Watched, id, "mark movies as watched")
}

func (c *Controller) ToggleLiked(ctx context.Context, id int) error {
	return c.toggle(ctx, models.Liked, id, "like movies")
}

// Toggle flips id in list l.
func (c *Controller) Toggle(ctx context.Context, l models.List, id int) error {
	switch l {
	case models.Watched:
		return c.ToggleWatched(ctx, id)
	case models.Liked:
		return c.ToggleLiked(ctx, id)
	default:
		return fmt.Errorf("%w: list %q", shared.ErrInvalidArgument, l)
	}
}

func (c *Controller) toggle(ctx context.Context, l models.List, id int, action string) error {
	c.mu.Lock()
	s := c.session
	present := c.set(l).Has(id)
	c.mu.Unlock()

	if s == nil {
		c.notifier.Notify(Notice{Kind: KindSignInRequired, Message: fmt.Sprintf(msgSignInRequired, action)})
		return shared.ErrNotAuthenticated
	}

	if err := c.ensureRecord(ctx, s.UID); err != nil {
		return c.updateFailed(l, id, err)
	}

	var err error
	if present {
		err = c.store.RemoveMovie(ctx, s.UID, l, id)
	} else {
		err = c.store.AddMovie(ctx, s.UID, l, id)
	}
	if err != nil {
		return c.updateFailed(l, id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.UID != s.UID {
		return nil
	}
	if present {
		c.set(l).Remove(id)
	} else {
		c.set(l).Add(id)
	}
	return nil
}

func (c *Controller) ensureRecord(ctx context.Context, uid string) error {
	_, err := c.store.Get(ctx, uid)
	if errors.Is(err, shared.ErrRecordNotFound) {
		return c.store.Create(ctx, uid)
	}
	return err
}

func (c *Controller) updateFailed(l models.List, id int, err error) error {
	c.logger.Error("failed to update preferences", "list", l, "movie", id, "error", err)
	c.notifier.Notify(Notice{Kind: KindUpdateFailed, Message: MsgUpdateFailed})
	return fmt.Errorf("%w: %v", shared.ErrPreferenceUpdate, err)
}

// set must be called with mu held.
func (c *Controller) set(l models.List) models.MovieSet {
	if l == models.Liked {
		return c.liked
	}
	return c.watched
}

// Session returns the session the controller last observed.
func (c *Controller) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Preferences returns copies of the local sets.
func (c *Controller) Preferences() (watched, liked models.MovieSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watched.Clone(), c.liked.Clone()
}

func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{Session: c.session, Message: c.message, Rows: make([]Row, 0, len(c.results))}
	for _, m := range c.results {
		v.Rows = append(v.Rows, Row{
			Movie:       m,
			PosterURL:   c.catalog.PosterURL(m.PosterPath),
			Watched:     c.watched.Has(m.ID),
			Liked:       c.liked.Has(m.ID),
			ShowToggles: c.session != nil,
		})
	}
	return v
}
