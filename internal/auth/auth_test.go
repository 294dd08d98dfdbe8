package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/session"
	"github.com/desertthunder/cinematch/internal/shared"
)

// fakeProvider is a scripted [Provider] backed by a real publisher.
type fakeProvider struct {
	publisher  *session.Publisher
	signInErr  error
	signOutErr error
}

func (f *fakeProvider) SignIn(context.Context) error {
	if f.signInErr != nil {
		return f.signInErr
	}
	f.publisher.Publish(&models.Session{UID: "u1", DisplayName: "Ada"})
	return nil
}

func (f *fakeProvider) SignOut(context.Context) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.publisher.Publish(nil)
	return nil
}

func (f *fakeProvider) OnAuthStateChanged(fn session.Listener) func() { return f.publisher.Subscribe(fn) }
func (f *fakeProvider) Current() *models.Session                      { return f.publisher.Current() }

func TestIdentity(t *testing.T) {
	t.Run("mirrors provider state while mounted", func(t *testing.T) {
		p := &fakeProvider{publisher: session.NewPublisher()}
		id := NewIdentity(p, log.New(&bytes.Buffer{}))
		id.Mount()
		id.Mount()

		require.NoError(t, id.Login(context.Background()))
		require.NotNil(t, id.Current())
		assert.Equal(t, "u1", id.Current().UID)
		assert.Equal(t, 1, p.publisher.Subscribers())

		require.NoError(t, id.Logout(context.Background()))
		assert.Nil(t, id.Current())

		id.Unmount()
		id.Unmount()
		assert.Equal(t, 0, p.publisher.Subscribers())

		require.NoError(t, id.Login(context.Background()))
		assert.Nil(t, id.Current(), "unmounted identity must not observe transitions")
	})

	t.Run("Mount returns while the current session is delivered", func(t *testing.T) {
		p := &fakeProvider{publisher: session.NewPublisher()}
		p.publisher.Publish(&models.Session{UID: "u0", DisplayName: "Grace"})
		id := NewIdentity(p, log.New(&bytes.Buffer{}))

		done := make(chan struct{})
		go func() {
			id.Mount()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Mount did not return")
		}
		defer id.Unmount()

		require.NotNil(t, id.Current())
		assert.Equal(t, "u0", id.Current().UID)
		assert.Equal(t, 1, p.publisher.Subscribers())

		p.publisher.Publish(nil)
		assert.Nil(t, id.Current(), "mounted identity keeps observing transitions")
	})

	t.Run("login failure is logged and session stays absent", func(t *testing.T) {
		var buf bytes.Buffer
		p := &fakeProvider{publisher: session.NewPublisher(), signInErr: shared.ErrAuthCancelled}
		id := NewIdentity(p, log.New(&buf))
		id.Mount()
		defer id.Unmount()

		err := id.Login(context.Background())
		assert.ErrorIs(t, err, shared.ErrAuthCancelled)
		assert.Nil(t, id.Current())
		assert.Contains(t, buf.String(), "sign-in failed")
	})

	t.Run("logout failure is logged and session kept", func(t *testing.T) {
		var buf bytes.Buffer
		p := &fakeProvider{publisher: session.NewPublisher(), signOutErr: shared.ErrSignOutFailed}
		id := NewIdentity(p, log.New(&buf))
		id.Mount()
		defer id.Unmount()

		require.NoError(t, id.Login(context.Background()))
		assert.ErrorIs(t, id.Logout(context.Background()), shared.ErrSignOutFailed)
		assert.NotNil(t, id.Current())
		assert.Contains(t, buf.String(), "sign-out failed")
	})

	t.Run("Subscribe shares the provider stream", func(t *testing.T) {
		p := &fakeProvider{publisher: session.NewPublisher()}
		id := NewIdentity(p, log.New(&bytes.Buffer{}))

		var seen []*models.Session
		unsubscribe := id.Subscribe(func(s *models.Session) { seen = append(seen, s) })
		defer unsubscribe()

		require.NoError(t, id.Login(context.Background()))
		require.Len(t, seen, 2)
		assert.Nil(t, seen[0])
		assert.Equal(t, "u1", seen[1].UID)
	})
}

func TestDevProvider(t *testing.T) {
	p := session.NewPublisher()
	dev := NewDevProvider("", "Dev", p)

	require.NoError(t, dev.SignIn(context.Background()))
	require.NotNil(t, dev.Current())
	assert.Equal(t, "dev-user", dev.Current().UID)
	assert.Equal(t, "Dev", dev.Current().Name())

	require.NoError(t, dev.SignOut(context.Background()))
	assert.Nil(t, dev.Current())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, dev.SignIn(ctx))
	assert.Nil(t, dev.Current())
}

func TestNew(t *testing.T) {
	cfg := shared.DefaultConfig()
	p := session.NewPublisher()

	provider, err := New(cfg, p, log.New(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.IsType(t, &GoogleProvider{}, provider)

	cfg.Auth.Provider = "dev"
	provider, err = New(cfg, p, log.New(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.IsType(t, &DevProvider{}, provider)

	cfg.Auth.Provider = "saml"
	_, err = New(cfg, p, log.New(&bytes.Buffer{}))
	assert.ErrorIs(t, err, shared.ErrInvalidConfig)
}

// fakeIssuer is a minimal OpenID provider: discovery, token and revoke endpoints.
type fakeIssuer struct {
	*httptest.Server

	mu        sync.Mutex
	nonce     string
	badNonce  bool
	revokeErr bool
	revoked   []string
	verifiers []string
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	f := &fakeIssuer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                f.URL,
			"authorization_endpoint":                f.URL + "/authorize",
			"token_endpoint":                        f.URL + "/token",
			"jwks_uri":                              f.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		f.mu.Lock()
		f.verifiers = append(f.verifiers, r.Form.Get("code_verifier"))
		nonce := f.nonce
		if f.badNonce {
			nonce = "other"
		}
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     unsignedJWT(f.URL, "client-id", nonce),
		})
	})

	mux.HandleFunc("/revoke", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.revokeErr {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.revoked = append(f.revoked, r.Form.Get("token"))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// browser simulates the user approving consent: it follows the redirect with a code.
func (f *fakeIssuer) browser(t *testing.T) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
			t.Errorf("expected PKCE challenge in %s", authURL)
		}

		f.mu.Lock()
		f.nonce = q.Get("nonce")
		f.mu.Unlock()

		go func() {
			resp, err := http.Get(q.Get("redirect_uri") + "?state=" + url.QueryEscape(q.Get("state")) + "&code=c1")
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func unsignedJWT(issuer, aud, nonce string) string {
	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	claims, _ := json.Marshal(map[string]any{
		"iss":   issuer,
		"sub":   "google-sub-1",
		"aud":   aud,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
		"nonce": nonce,
		"email": "ada@example.com",
	})
	return fmt.Sprintf("%s.%s.%s", header, enc.EncodeToString(claims), enc.EncodeToString([]byte("sig")))
}

func newTestGoogle(f *fakeIssuer, t *testing.T, open func(string) error) *GoogleProvider {
	g := NewGoogleProvider(GoogleOptions{
		Config: shared.GoogleConfig{
			ClientID:  "client-id",
			IssuerURL: f.URL,
			RevokeURL: f.URL + "/revoke",
		},
		Addr:        "127.0.0.1:0",
		Timeout:     5 * time.Second,
		Publisher:   session.NewPublisher(),
		Logger:      log.New(&bytes.Buffer{}),
		OpenBrowser: open,
	})
	g.skipSignatureCheck = true
	return g
}

func TestGoogleProvider(t *testing.T) {
	t.Run("SignIn publishes verified session", func(t *testing.T) {
		f := newFakeIssuer(t)
		g := newTestGoogle(f, t, f.browser(t))

		require.NoError(t, g.SignIn(context.Background()))

		s := g.Current()
		require.NotNil(t, s)
		assert.Equal(t, "google-sub-1", s.UID)
		assert.Equal(t, "ada@example.com", s.DisplayName, "name falls back to email")
		require.Len(t, f.verifiers, 1)
		assert.NotEmpty(t, f.verifiers[0], "token request must carry the PKCE verifier")
	})

	t.Run("nonce mismatch leaves session absent", func(t *testing.T) {
		f := newFakeIssuer(t)
		f.badNonce = true
		g := newTestGoogle(f, t, f.browser(t))

		err := g.SignIn(context.Background())
		assert.ErrorIs(t, err, shared.ErrAuthFailed)
		assert.Nil(t, g.Current())
	})

	t.Run("missing client id", func(t *testing.T) {
		g := NewGoogleProvider(GoogleOptions{})
		assert.ErrorIs(t, g.SignIn(context.Background()), shared.ErrMissingCredentials)
	})

	t.Run("browser failure prompts and times out", func(t *testing.T) {
		f := newFakeIssuer(t)
		var prompted string
		g := NewGoogleProvider(GoogleOptions{
			Config:      shared.GoogleConfig{ClientID: "client-id", IssuerURL: f.URL},
			Addr:        "127.0.0.1:0",
			Timeout:     20 * time.Millisecond,
			Logger:      log.New(&bytes.Buffer{}),
			OpenBrowser: func(string) error { return errors.New("no display") },
			Prompt:      func(u string) { prompted = u },
		})

		err := g.SignIn(context.Background())
		assert.ErrorIs(t, err, shared.ErrTimeout)
		assert.Contains(t, prompted, f.URL+"/authorize")
		assert.Nil(t, g.Current())
	})

	t.Run("SignOut revokes then publishes absent session", func(t *testing.T) {
		f := newFakeIssuer(t)
		g := newTestGoogle(f, t, f.browser(t))
		require.NoError(t, g.SignIn(context.Background()))

		require.NoError(t, g.SignOut(context.Background()))
		assert.Nil(t, g.Current())
		assert.Equal(t, []string{"access-123"}, f.revoked)
	})

	t.Run("SignOut failure keeps session", func(t *testing.T) {
		f := newFakeIssuer(t)
		g := newTestGoogle(f, t, f.browser(t))
		require.NoError(t, g.SignIn(context.Background()))

		f.revokeErr = true
		assert.ErrorIs(t, g.SignOut(context.Background()), shared.ErrSignOutFailed)
		assert.NotNil(t, g.Current())
	})
}
