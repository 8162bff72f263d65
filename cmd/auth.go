package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/avalverde/butaca/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges credentials for a backend session and persists it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	email := cmd.String("email")
	password := cmd.String("password")
	if password == "" {
		r.writePlain("Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", shared.ErrMissingArgument)
	}

	user, err := r.sessions.Login(ctx, email, password)
	if err != nil {
		return err
	}

	r.writePlain("✓ Logged in as %s\n", user.Email)
	if user.Admin() {
		r.writePlain("  Role: admin\n")
	}
	if user.Connected() {
		r.writePlain("  Catalog account: %d\n", user.CatalogAccountID)
	} else {
		r.writePlain("  No catalog account linked. Run: butaca connect\n")
	}
	return nil
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	if err := r.sessions.Logout(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthWhoami shows the current session state.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	user := r.sessions.Current()
	if user == nil || !r.sessions.LoggedIn() {
		return r.writePlain("Not logged in\n")
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("Email: %s\n", user.Email)
	r.writePlain("Role: %s\n", user.Role)
	if user.Connected() {
		r.writePlain("Catalog account: %d\n", user.CatalogAccountID)
	} else {
		r.writePlain("Catalog account: not linked\n")
	}
	if user.APIKey != "" {
		r.writePlain("Catalog API key: set\n")
	}
	return nil
}

// AuthCheckEmail asks the backend whether an email is registered and enabled.
func (r *Runner) AuthCheckEmail(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email argument is required", shared.ErrMissingArgument)
	}

	status, err := r.backend.CheckEmail(ctx, email)
	if err != nil {
		return err
	}

	switch {
	case !status.Exists:
		r.writePlain("✗ %s is not registered\n", email)
	case !status.Enabled:
		r.writePlain("⚠ %s is registered but disabled\n", email)
	default:
		r.writePlain("✓ %s is registered and enabled\n", email)
	}
	return nil
}
