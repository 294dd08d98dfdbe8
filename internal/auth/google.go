package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/server"
	"github.com/desertthunder/cinematch/internal/session"
	"github.com/desertthunder/cinematch/internal/shared"
)

const (
	GoogleIssuer    = "https://accounts.google.com"
	GoogleRevokeURL = "https://oauth2.googleapis.com/revoke"
)

// GoogleOptions configures a [GoogleProvider].
type GoogleOptions struct {
	Config    shared.GoogleConfig
	Addr      string        // callback listener host:port
	Timeout   time.Duration // how long to wait for the browser redirect
	Publisher *session.Publisher
	Logger    *log.Logger

	HTTPClient  *http.Client
	OpenBrowser func(url string) error
	// Prompt is called with the authorization URL when the browser cannot be opened.
	Prompt func(url string)
}

// GoogleProvider signs users in with Google OpenID Connect through the system browser.
//
// The flow is authorization code with PKCE, a random state and nonce, and a loopback redirect.
type GoogleProvider struct {
	opts      GoogleOptions
	publisher *session.Publisher
	logger    *log.Logger

	// skipSignatureCheck is only set by tests that cannot sign ID tokens.
	skipSignatureCheck bool

	mu       sync.Mutex
	provider *oidc.Provider
	token    *oauth2.Token
}

type googleClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func NewGoogleProvider(opts GoogleOptions) *GoogleProvider {
	if opts.Config.IssuerURL == "" {
		opts.Config.IssuerURL = GoogleIssuer
	}
	if opts.Config.RevokeURL == "" {
		opts.Config.RevokeURL = GoogleRevokeURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Prompt == nil {
		opts.Prompt = func(string) {}
	}
	if opts.Publisher == nil {
		opts.Publisher = session.NewPublisher()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &GoogleProvider{
		opts:      opts,
		publisher: opts.Publisher,
		logger:    shared.WithLogger(opts.Logger, "provider", "google"),
	}
}

// SetPrompt replaces the fallback used when the browser cannot be opened.
func (g *GoogleProvider) SetPrompt(fn func(url string)) {
	if fn != nil {
		g.opts.Prompt = fn
	}
}

func (g *GoogleProvider) OnAuthStateChanged(fn session.Listener) func() {
	return g.publisher.Subscribe(fn)
}

func (g *GoogleProvider) Current() *models.Session {
	return g.publisher.Current()
}

// discover fetches the issuer's discovery document once.
func (g *GoogleProvider) discover(ctx context.Context) (*oidc.Provider, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.provider != nil {
		return g.provider, nil
	}

	p, err := oidc.NewProvider(oidc.ClientContext(ctx, g.opts.HTTPClient), g.opts.Config.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("%w: discovery: %v", shared.ErrServiceUnavailable, err)
	}
	g.provider = p
	return p, nil
}

// SignIn runs the browser flow and publishes the verified session.
func (g *GoogleProvider) SignIn(ctx context.Context) error {
	if g.opts.Config.ClientID == "" {
		return fmt.Errorf("%w: google client_id", shared.ErrMissingCredentials)
	}

	provider, err := g.discover(ctx)
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}
	nonce, err := shared.GenerateState()
	if err != nil {
		return err
	}
	verifier := oauth2.GenerateVerifier()

	oauthConfig := &oauth2.Config{
		ClientID:     g.opts.Config.ClientID,
		ClientSecret: g.opts.Config.ClientSecret,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	callbackPath := "/callback"
	if g.opts.Config.RedirectURI != "" {
		u, err := url.Parse(g.opts.Config.RedirectURI)
		if err != nil {
			return fmt.Errorf("%w: redirect_uri: %v", shared.ErrInvalidConfig, err)
		}
		if u.Path != "" {
			callbackPath = u.Path
		}
	}

	handler := server.NewOAuthHandler(oauthConfig, state, callbackPath, oauth2.VerifierOption(verifier))
	cs, err := server.StartCallbackServer(g.opts.Addr, handler, g.logger)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	oauthConfig.RedirectURL = g.opts.Config.RedirectURI
	if oauthConfig.RedirectURL == "" {
		oauthConfig.RedirectURL = "http://" + cs.Addr() + callbackPath
	}

	authURL := oauthConfig.AuthCodeURL(state,
		oidc.Nonce(nonce),
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"))

	if err := g.opts.OpenBrowser(authURL); err != nil {
		g.logger.Warn("failed to open browser automatically", "error", err)
		g.opts.Prompt(authURL)
	}

	result, err := cs.Wait(ctx, g.opts.Timeout)
	if err != nil {
		return err
	}

	s, err := g.verify(oidc.ClientContext(ctx, g.opts.HTTPClient), provider, result.Token, nonce)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.token = result.Token
	g.mu.Unlock()

	g.publisher.Publish(s)
	return nil
}

// verify checks the ID token in tok and maps its claims to a session.
func (g *GoogleProvider) verify(ctx context.Context, provider *oidc.Provider, tok *oauth2.Token, nonce string) (*models.Session, error) {
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("%w: no id_token in token response", shared.ErrAuthFailed)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID:                   g.opts.Config.ClientID,
		InsecureSkipSignatureCheck: g.skipSignatureCheck,
	})
	idToken, err := verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: id_token: %v", shared.ErrAuthFailed, err)
	}
	if idToken.Nonce != nonce {
		return nil, fmt.Errorf("%w: nonce mismatch", shared.ErrAuthFailed)
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: claims: %v", shared.ErrAuthFailed, err)
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	return &models.Session{UID: idToken.Subject, DisplayName: name, Email: claims.Email}, nil
}

// SignOut revokes the token with Google and then publishes the absent session.
//
// If revocation fails the session remains present.
func (g *GoogleProvider) SignOut(ctx context.Context) error {
	g.mu.Lock()
	tok := g.token
	g.mu.Unlock()

	if tok != nil {
		value := tok.RefreshToken
		if value == "" {
			value = tok.AccessToken
		}
		if err := g.revoke(ctx, value); err != nil {
			return err
		}
	}

	g.mu.Lock()
	g.token = nil
	g.mu.Unlock()

	g.publisher.Publish(nil)
	return nil
}

func (g *GoogleProvider) revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.opts.Config.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSignOutFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSignOutFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: revoke returned %d", shared.ErrSignOutFailed, resp.StatusCode)
	}
	return nil
}
