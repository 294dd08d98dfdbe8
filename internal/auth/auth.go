// Package auth wraps identity providers and exposes the signed-in user to the rest of the client.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/session"
	"github.com/desertthunder/cinematch/internal/shared"
)

// Provider runs an interactive sign-in flow and publishes every session transition.
type Provider interface {
	// SignIn blocks until the user completes, cancels or times out the flow.
	SignIn(ctx context.Context) error
	// SignOut ends the session. The session stays present if it fails.
	SignOut(ctx context.Context) error
	// OnAuthStateChanged subscribes fn; it is called at once with the current state.
	OnAuthStateChanged(fn session.Listener) (unsubscribe func())
	Current() *models.Session
}

// New builds the provider selected by cfg.Auth.Provider, publishing on p.
func New(cfg *shared.Config, p *session.Publisher, logger *log.Logger) (Provider, error) {
	switch cfg.Auth.Provider {
	case "google":
		return NewGoogleProvider(GoogleOptions{
			Config:    cfg.Credentials.Google,
			Addr:      cfg.Server.Addr(),
			Timeout:   cfg.AuthTimeout(),
			Publisher: p,
			Logger:    logger,
		}), nil
	case "dev":
		return NewDevProvider(cfg.Auth.DevUID, cfg.Auth.DevName, p), nil
	default:
		return nil, fmt.Errorf("%w: auth provider %q", shared.ErrInvalidConfig, cfg.Auth.Provider)
	}
}

// Identity is the sign-in component: it mirrors the provider's session and exposes login and logout.
//
// Failures are logged only. They are also returned so callers outside a view can set an exit status.
type Identity struct {
	provider Provider
	logger   *log.Logger

	mu          sync.Mutex
	current     *models.Session
	unsubscribe func()
}

func NewIdentity(provider Provider, logger *log.Logger) *Identity {
	return &Identity{provider: provider, logger: shared.WithLogger(logger, "component", "identity")}
}

// Mount subscribes to auth state until [Identity.Unmount].
//
// The provider delivers the current state during the subscribe call, so i.mu is not held across it.
func (i *Identity) Mount() {
	i.mu.Lock()
	mounted := i.unsubscribe != nil
	i.mu.Unlock()
	if mounted {
		return
	}

	unsubscribe := i.provider.OnAuthStateChanged(i.set)

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.unsubscribe != nil {
		unsubscribe()
		return
	}
	i.unsubscribe = unsubscribe
}

// Unmount drops the subscription. Safe to call when not mounted.
func (i *Identity) Unmount() {
	i.mu.Lock()
	unsubscribe := i.unsubscribe
	i.unsubscribe = nil
	i.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (i *Identity) set(s *models.Session) {
	i.mu.Lock()
	i.current = s
	i.mu.Unlock()
}

// Current returns the last session observed while mounted.
func (i *Identity) Current() *models.Session {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}

// Subscribe lets dependents observe the same session stream.
func (i *Identity) Subscribe(fn session.Listener) func() {
	return i.provider.OnAuthStateChanged(fn)
}

// Login runs the provider's sign-in flow. On failure the session stays absent.
func (i *Identity) Login(ctx context.Context) error {
	if err := i.provider.SignIn(ctx); err != nil {
		i.logger.Error("sign-in failed", "error", err)
		return err
	}
	i.logger.Info("signed in", "user", i.provider.Current().Name())
	return nil
}

// Logout ends the session. On failure the session is whatever the provider last published.
func (i *Identity) Logout(ctx context.Context) error {
	if err := i.provider.SignOut(ctx); err != nil {
		i.logger.Error("sign-out failed", "error", err)
		return err
	}
	i.logger.Info("signed out")
	return nil
}
