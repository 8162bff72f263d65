package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avalverde/butaca/internal/linker"
	"github.com/avalverde/butaca/internal/server"
	"github.com/avalverde/butaca/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultApprovalTimeout = 2 * time.Minute

// Connect runs the catalog authorization handshake: issue a request token,
// open the hosted approval page in the browser, receive the redirect on a
// local server, then create the session and persist the account.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	if !r.sessions.LoggedIn() {
		return shared.ErrNotLoggedIn
	}

	if key := cmd.String("api-key"); key != "" {
		if err := r.sessions.SetAPIKey(key); err != nil {
			return fmt.Errorf("failed to store API key: %w", err)
		}
		r.logger.Info("catalog API key stored")
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultApprovalTimeout
	}

	link := linker.NewLinker(r.catalog, r.sessions, r.logger)

	redirectURL := r.config.Server.RedirectURL()
	approvalURL, err := link.Begin(ctx, redirectURL)
	if err != nil {
		return err
	}

	handler := server.NewApprovalHandler()
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("waiting for approval redirect at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for catalog approval...\n")
	if err := shared.OpenBrowser(approvalURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", approvalURL)
	}

	r.writePlain("→ Waiting for approval (%v timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var callback linker.Callback
	select {
	case callback = <-handler.Result():
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return fmt.Errorf("%w: approval timed out after %v", shared.ErrTimeout, timeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	result := link.Complete(ctx, callback)
	if result.Err != nil {
		return fmt.Errorf("handshake failed: %w", result.Err)
	}

	r.writePlainln("✓ Catalog account connected")
	r.writePlain("  Account: %d\n", result.AccountID)
	r.writePlain("You can now use: butaca favorites list\n")
	return nil
}
