package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinematch/internal/shared"
)

// CallbackServer is a short-lived listener that receives a single OAuth redirect.
type CallbackServer struct {
	handler *OAuthHandler
	srv     *http.Server
	addr    string
	errs    chan error
	logger  *log.Logger
}

// StartCallbackServer binds addr and serves handler behind logging and panic recovery.
//
// Binding happens before returning so a busy port fails fast.
func StartCallbackServer(addr string, handler *OAuthHandler, logger *log.Logger) (*CallbackServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	router.Handler(handler)

	c := &CallbackServer{
		handler: handler,
		srv:     &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		addr:    ln.Addr().String(),
		errs:    make(chan error, 1),
		logger:  logger,
	}

	go func() {
		logger.Debug("callback server listening", "addr", c.addr)
		if err := c.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.errs <- err
		}
	}()

	return c, nil
}

// Addr returns the bound address, useful when addr used port 0.
func (c *CallbackServer) Addr() string {
	return c.addr
}

// Wait blocks until the callback arrives, the server fails, timeout elapses or ctx is done,
// then shuts the server down.
func (c *CallbackServer) Wait(ctx context.Context, timeout time.Duration) (*OAuthResult, error) {
	defer c.shutdown()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-c.handler.Result():
		if result.Error() != nil {
			return nil, result.Error()
		}
		if result.Token == nil {
			return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
		}
		return &result, nil
	case err := <-c.errs:
		return nil, fmt.Errorf("%w: callback server: %v", shared.ErrAuthFailed, err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthCancelled, ctx.Err())
	}
}

func (c *CallbackServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.srv.Shutdown(ctx); err != nil {
		c.logger.Warn("error shutting down callback server", "error", err)
	}
}
