package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinematch/internal/discovery"
	"github.com/desertthunder/cinematch/internal/formatter"
	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/shared"
)

// PrefsShow signs in and prints the user's preference record. A missing record prints as empty.
func (r *Runner) PrefsShow(ctx context.Context, cmd *cli.Command) error {
	_, s, err := r.signIn(ctx)
	if err != nil {
		return err
	}

	store, err := r.preferenceStore(ctx)
	if err != nil {
		return err
	}

	prefs, err := store.Get(ctx, s.UID)
	if errors.Is(err, shared.ErrRecordNotFound) {
		prefs = models.NewPreferences(s.UID)
	} else if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"uid":                  prefs.UserID,
			string(models.Watched): prefs.Watched.IDs(),
			string(models.Liked):   prefs.Liked.IDs(),
		}, true)
	}
	return r.writePlain("%s", formatter.PreferencesToText(prefs))
}

// PrefsToggle signs in and flips one movie in the watched or liked list.
func (r *Runner) PrefsToggle(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("id")
	if raw == "" {
		return fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return fmt.Errorf("%w: movie id %q", shared.ErrInvalidArgument, raw)
	}

	list, err := models.ParseList(cmd.String("list"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	store, err := r.preferenceStore(ctx)
	if err != nil {
		return err
	}

	notices := discovery.NotifierFunc(func(n discovery.Notice) {
		r.logger.Warn(n.Message, "kind", n.Kind)
	})
	controller := discovery.NewController(r.catalogService(), store, notices, r.logger)
	controller.Mount(ctx, r.publisher)
	defer controller.Unmount()

	if _, _, err := r.signIn(ctx); err != nil {
		return err
	}

	if err := controller.Toggle(ctx, list, id); err != nil {
		return err
	}

	watched, liked := controller.Preferences()
	set := watched
	if list == models.Liked {
		set = liked
	}
	if set.Has(id) {
		return r.writePlain("✓ %d added to %s\n", id, list.Label())
	}
	return r.writePlain("✓ %d removed from %s\n", id, list.Label())
}
