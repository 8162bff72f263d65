package main

import (
	"context"
	"fmt"

	"github.com/avalverde/butaca/internal/models"
	"github.com/avalverde/butaca/internal/shared"
	"github.com/urfave/cli/v3"
)

// requireAdminToken returns the stored credential after checking the current
// user is a logged-in admin. The backend enforces the role server-side too.
func (r *Runner) requireAdminToken() (string, error) {
	if !r.sessions.LoggedIn() {
		return "", shared.ErrNotLoggedIn
	}
	if !r.sessions.Admin() {
		return "", fmt.Errorf("%w: admin role required", shared.ErrAuthFailed)
	}
	return r.sessions.Credential(), nil
}

// UsersList lists the backend's registered accounts.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	token, err := r.requireAdminToken()
	if err != nil {
		return err
	}

	users, err := r.backend.ListUsers(ctx, token)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d accounts:\n\n", len(users))
	for _, user := range users {
		state := "enabled"
		if !user.Enabled {
			state = "disabled"
		}
		r.writePlain("%d. %s (%s, %s)\n", user.ID, user.Email, user.Role, state)
	}
	return nil
}

// UsersCreate creates a backend account.
func (r *Runner) UsersCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	token, err := r.requireAdminToken()
	if err != nil {
		return err
	}

	role := cmd.String("role")
	if role != models.RoleAdmin && role != models.RoleUser {
		return fmt.Errorf("%w: role must be %q or %q", shared.ErrInvalidArgument, models.RoleUser, models.RoleAdmin)
	}

	user := models.User{
		Email:   cmd.String("email"),
		Role:    role,
		Enabled: true,
	}

	created, err := r.backend.CreateUser(ctx, token, user, cmd.String("password"))
	if err != nil {
		return err
	}

	return r.writePlain("✓ Created account %d (%s)\n", created.ID, created.Email)
}

// UsersUpdate updates an account's email or role.
func (r *Runner) UsersUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	token, err := r.requireAdminToken()
	if err != nil {
		return err
	}

	id := cmd.IntArg("id")
	if id == 0 {
		return fmt.Errorf("%w: account id argument is required", shared.ErrMissingArgument)
	}

	email := cmd.String("email")
	role := cmd.String("role")
	if email == "" && role == "" {
		return fmt.Errorf("%w: nothing to update, pass --email or --role", shared.ErrMissingArgument)
	}
	if role != "" && role != models.RoleAdmin && role != models.RoleUser {
		return fmt.Errorf("%w: role must be %q or %q", shared.ErrInvalidArgument, models.RoleUser, models.RoleAdmin)
	}

	users, err := r.backend.ListUsers(ctx, token)
	if err != nil {
		return err
	}

	var target *models.User
	for i := range users {
		if users[i].ID == id {
			target = &users[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: account %d", shared.ErrNotFound, id)
	}

	if email != "" {
		target.Email = email
	}
	if role != "" {
		target.Role = role
	}

	if err := r.backend.UpdateUser(ctx, token, *target); err != nil {
		return err
	}

	return r.writePlain("✓ Updated account %d\n", id)
}

// UsersDelete deletes an account.
func (r *Runner) UsersDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	token, err := r.requireAdminToken()
	if err != nil {
		return err
	}

	id := cmd.IntArg("id")
	if id == 0 {
		return fmt.Errorf("%w: account id argument is required", shared.ErrMissingArgument)
	}

	if err := r.backend.DeleteUser(ctx, token, id); err != nil {
		return err
	}

	return r.writePlain("✓ Deleted account %d\n", id)
}

// UsersEnable enables an account.
func (r *Runner) UsersEnable(ctx context.Context, cmd *cli.Command) error {
	return r.setEnabled(ctx, cmd, true)
}

// UsersDisable disables an account, which blocks its future logins.
func (r *Runner) UsersDisable(ctx context.Context, cmd *cli.Command) error {
	return r.setEnabled(ctx, cmd, false)
}

func (r *Runner) setEnabled(ctx context.Context, cmd *cli.Command, enabled bool) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	token, err := r.requireAdminToken()
	if err != nil {
		return err
	}

	id := cmd.IntArg("id")
	if id == 0 {
		return fmt.Errorf("%w: account id argument is required", shared.ErrMissingArgument)
	}

	if err := r.backend.SetUserEnabled(ctx, token, id, enabled); err != nil {
		return err
	}

	if enabled {
		return r.writePlain("✓ Enabled account %d\n", id)
	}
	return r.writePlain("✓ Disabled account %d\n", id)
}
