package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinematch/internal/auth"
)

// AuthLogin runs the provider's sign-in flow and prints who signed in.
//
// Sessions live for the process only; this is mostly a way to check credentials.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	_, s, err := r.signIn(ctx)
	if err != nil {
		return err
	}

	r.writePlain("✓ Signed in as %s\n", s.Name())
	return r.writePlain("User ID: %s\n", s.UID)
}

// AuthLogout ends the current session and revokes the provider token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	provider, err := r.authProvider()
	if err != nil {
		return err
	}

	identity := auth.NewIdentity(provider, r.logger)
	identity.Mount()
	defer identity.Unmount()

	if err := identity.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}
