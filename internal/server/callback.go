package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"tunedex/internal/shared"
)

const defaultAuthTimeout = 2 * time.Minute

// CallbackFlow runs the interactive OAuth2 authorization code flow for the CLI.
//
// It owns the temporary HTTP server that receives the provider redirect.
type CallbackFlow struct {
	config  *oauth2.Config
	addr    string
	timeout time.Duration
	logger  *log.Logger

	// openBrowser is replaced in tests
	openBrowser func(url string) error
}

// NewCallbackFlow creates a flow listening on addr (host:port of the
// registered redirect URI).
func NewCallbackFlow(config *oauth2.Config, addr string, logger *log.Logger) *CallbackFlow {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CallbackFlow{
		config:      config,
		addr:        addr,
		timeout:     defaultAuthTimeout,
		logger:      logger,
		openBrowser: shared.OpenBrowser,
	}
}

// SetTimeout overrides how long Run waits for the user to authorize.
func (f *CallbackFlow) SetTimeout(d time.Duration) { f.timeout = d }

// Run opens the browser to authURL and blocks until the callback delivers a
// token, the user runs out of time, or ctx is cancelled. The embedded HTTP
// server is shut down before Run returns.
func (f *CallbackFlow) Run(ctx context.Context, authURL, state string) (*oauth2.Token, error) {
	handler := NewOAuthHandler(f.config, state)
	router := NewBasicRouter()
	router.Use(RequestLogger(f.logger))
	router.Handler(handler)

	httpServer := &http.Server{
		Addr:    f.addr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		f.logger.Info("starting OAuth callback server", "addr", f.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	if err := f.openBrowser(authURL); err != nil {
		f.logger.Warn("failed to open browser automatically", "error", err)
		fmt.Printf("Open this URL in your browser:\n%s\n\n", authURL)
	}

	timeout := time.NewTimer(f.timeout)
	defer timeout.Stop()

	var result OAuthResult
	var runErr error

	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		runErr = fmt.Errorf("callback server error: %w", err)
	case <-timeout.C:
		runErr = fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, f.timeout)
	case <-ctx.Done():
		runErr = ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		f.logger.Warn("error shutting down callback server", "error", err)
	}

	if runErr != nil {
		return nil, runErr
	}
	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
