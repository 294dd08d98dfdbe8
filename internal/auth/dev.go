package auth

import (
	"context"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/session"
)

// DevProvider signs in as a fixed local identity without any network access.
type DevProvider struct {
	uid       string
	name      string
	publisher *session.Publisher
}

func NewDevProvider(uid, name string, p *session.Publisher) *DevProvider {
	if uid == "" {
		uid = "dev-user"
	}
	return &DevProvider{uid: uid, name: name, publisher: p}
}

func (d *DevProvider) SignIn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.publisher.Publish(&models.Session{UID: d.uid, DisplayName: d.name})
	return nil
}

func (d *DevProvider) SignOut(context.Context) error {
	d.publisher.Publish(nil)
	return nil
}

func (d *DevProvider) OnAuthStateChanged(fn session.Listener) func() {
	return d.publisher.Subscribe(fn)
}

func (d *DevProvider) Current() *models.Session {
	return d.publisher.Current()
}
