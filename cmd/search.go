package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinematch/internal/discovery"
	"github.com/desertthunder/cinematch/internal/formatter"
	"github.com/desertthunder/cinematch/internal/shared"
)

// Search runs one catalog query and renders the results in the requested format.
//
// No session is involved, so membership columns are left empty.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	catalog := r.catalogService()
	controller := discovery.NewController(catalog, nil, nil, r.logger)

	r.logger.Debug("searching catalog", "service", catalog.Name(), "query", query)
	if err := controller.Search(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", discovery.MsgSearchFailed, err)
	}

	view := controller.Snapshot()
	data, err := formatter.Render(format, query, view.Rows)
	if err != nil {
		return err
	}

	return formatter.Write(r.output, cmd.String("output"), data)
}
