package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avalverde/butaca/internal/models"
	"github.com/avalverde/butaca/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
)

// response is the envelope every backend endpoint answers with.
type response[T any] struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type loginData struct {
	Token string `json:"token"`
}

// EmailStatus is the answer to a check-email probe.
type EmailStatus struct {
	Exists  bool `json:"email_exists"`
	Enabled bool `json:"is_enabled"`
}

type usersData struct {
	Users []models.User `json:"users"`
}

type userData struct {
	User models.User `json:"user"`
}

// Client talks to the account backend.
type Client struct {
	http   *resty.Client
	logger *log.Logger
}

// NewClient creates a backend [Client] for the configured base URL.
func NewClient(cfg shared.BackendConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{http: cli, logger: logger}
}

// Login exchanges credentials for a signed token. Failures are typed:
// 401 means bad credentials, 403 a disabled account, anything transport-level
// an API failure.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var result response[loginData]

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&result).
		SetError(&result).
		Post("/login")
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return "", fmt.Errorf("%w: %s", shared.ErrAuthFailed, messageOr(result.Message, "invalid credentials"))
	case resp.StatusCode() == http.StatusForbidden:
		return "", fmt.Errorf("%w: %s", shared.ErrAccountDisabled, messageOr(result.Message, email))
	case resp.IsError() || !result.Ok:
		return "", fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode(), result.Message)
	case result.Data.Token == "":
		return "", fmt.Errorf("%w: login response carried no token", shared.ErrAuthFailed)
	}

	return result.Data.Token, nil
}

// CheckEmail asks the backend whether an email is registered and enabled.
func (c *Client) CheckEmail(ctx context.Context, email string) (*EmailStatus, error) {
	var result response[EmailStatus]

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		SetResult(&result).
		SetError(&result).
		Post("/check-email")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if resp.IsError() || !result.Ok {
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode(), result.Message)
	}

	status := result.Data
	return &status, nil
}

// withToken applies the caller's bearer credential to a request. Admin
// endpoints reject requests without one.
func withToken(r *resty.Request, token string) *resty.Request {
	if token != "" {
		r.SetAuthToken(token)
	}
	return r
}

// ListUsers fetches all local accounts (admin only).
func (c *Client) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	var result response[usersData]

	resp, err := withToken(c.http.R(), token).
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Get("/users")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkAdminResponse(resp, result.Ok, result.Message); err != nil {
		return nil, err
	}

	return result.Data.Users, nil
}

// CreateUser registers a new local account (admin only).
func (c *Client) CreateUser(ctx context.Context, token string, user models.User, password string) (*models.User, error) {
	var result response[userData]

	body := map[string]any{
		"email":    user.Email,
		"role":     user.Role,
		"enabled":  user.Enabled,
		"password": password,
	}
	resp, err := withToken(c.http.R(), token).
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post("/users")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkAdminResponse(resp, result.Ok, result.Message); err != nil {
		return nil, err
	}

	created := result.Data.User
	return &created, nil
}

// UpdateUser overwrites a local account's mutable fields (admin only).
func (c *Client) UpdateUser(ctx context.Context, token string, user models.User) error {
	var result response[userData]

	resp, err := withToken(c.http.R(), token).
		SetContext(ctx).
		SetBody(user).
		SetResult(&result).
		SetError(&result).
		Put(fmt.Sprintf("/users/%d", user.ID))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return checkAdminResponse(resp, result.Ok, result.Message)
}

// DeleteUser removes a local account (admin only).
func (c *Client) DeleteUser(ctx context.Context, token string, id int) error {
	var result response[struct{}]

	resp, err := withToken(c.http.R(), token).
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Delete(fmt.Sprintf("/users/%d", id))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return checkAdminResponse(resp, result.Ok, result.Message)
}

// SetUserEnabled flips a local account's enabled flag (admin only).
func (c *Client) SetUserEnabled(ctx context.Context, token string, id int, enabled bool) error {
	var result response[userData]

	resp, err := withToken(c.http.R(), token).
		SetContext(ctx).
		SetBody(map[string]bool{"enabled": enabled}).
		SetResult(&result).
		SetError(&result).
		Put(fmt.Sprintf("/users/%d", id))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return checkAdminResponse(resp, result.Ok, result.Message)
}

func checkAdminResponse(resp *resty.Response, ok bool, message string) error {
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrNotLoggedIn, messageOr(message, "credential rejected"))
	case resp.StatusCode() == http.StatusForbidden:
		return fmt.Errorf("%w: admin role required", shared.ErrAuthFailed)
	case resp.StatusCode() == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, messageOr(message, "no such user"))
	case resp.IsError() || !ok:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode(), message)
	}
	return nil
}

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
