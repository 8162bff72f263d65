package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avalverde/butaca/internal/models"
	"github.com/avalverde/butaca/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
)

// Event is one emission of the current-user stream. User is nil when logged
// out; any non-nil user is a private clone the subscriber may keep.
type Event struct {
	User *models.User
}

// LoginService is the slice of the backend client the manager needs.
type LoginService interface {
	// Login exchanges credentials for a signed token.
	Login(ctx context.Context, email, password string) (string, error)
}

// Manager is the session/identity manager. All state transitions (login,
// logout, credential attachment) go through it, and every transition
// persists through the [Store] and republishes on the user stream in the
// same logical step.
type Manager struct {
	store   *Store
	backend LoginService
	secret  string
	logger  *log.Logger

	mu   sync.RWMutex
	user *models.User

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// ManagerOpts contains the dependencies for creating a [Manager].
type ManagerOpts struct {
	Store   *Store
	Backend LoginService
	// JWTSecret enables HS256 signature verification of the backend
	// credential. When empty the payload is decoded without verification.
	JWTSecret string
	Logger    *log.Logger
}

// NewManager creates a [Manager] and restores the persisted session, if any.
// A corrupt persisted user is treated as "no user": the store is cleared and
// the manager starts logged out.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	m := &Manager{
		store:   opts.Store,
		backend: opts.Backend,
		secret:  opts.JWTSecret,
		logger:  opts.Logger,
		subs:    make(map[int]chan Event),
	}

	user, err := opts.Store.LoadUser()
	if err != nil {
		m.logger.Warn("discarding unreadable persisted session", "error", err)
		if err := opts.Store.Reset(); err != nil {
			m.logger.Error("failed to clear session store", "error", err)
		}
		return m
	}
	m.user = user

	return m
}

// Current returns a clone of the current user, nil when logged out.
func (m *Manager) Current() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Clone()
}

// Login authenticates against the backend, decodes the signed credential and
// publishes the resulting user. Only fields present in the decoded payload
// are trusted; catalog credentials absent from the payload fall back to the
// previously persisted ones. On failure nothing is mutated.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	token, err := m.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	claims, err := m.decodeCredential(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if claims.IsEnabled != nil && !*claims.IsEnabled {
		return nil, fmt.Errorf("%w: %s", shared.ErrAccountDisabled, email)
	}

	role := claims.Role
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		ID:        claims.UserID,
		Email:     claims.Email,
		Role:      role,
		Enabled:   true,
		APIKey:    claims.APIKey,
		ReadToken: claims.ReadToken,
	}

	// Catalog credentials survive re-login: anything the payload does not
	// carry is taken from the previously persisted record.
	if prev, err := m.store.LoadUser(); err == nil && prev != nil {
		if user.APIKey == "" {
			user.APIKey = prev.APIKey
		}
		if user.ReadToken == "" {
			user.ReadToken = prev.ReadToken
		}
		user.CatalogSessionID = prev.CatalogSessionID
		user.CatalogAccountID = prev.CatalogAccountID
	}

	m.mu.Lock()
	if err := m.store.SaveUser(user); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if err := m.store.SaveCredential(token); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.user = user
	m.mu.Unlock()

	m.publish()
	m.logger.Info("login succeeded", "email", user.Email, "role", user.Role)

	return user.Clone(), nil
}

// Logout clears every persisted session key and publishes logged-out.
func (m *Manager) Logout() error {
	m.mu.Lock()
	if err := m.store.Reset(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.user = nil
	m.mu.Unlock()

	m.publish()
	m.logger.Info("logged out, session store cleared")

	return nil
}

// LoggedIn reports whether a user is present and a live credential is still
// retrievable. A user object without a credential, or with an expired one,
// is not logged in; an expired credential forces an implicit logout.
func (m *Manager) LoggedIn() bool {
	m.mu.RLock()
	user := m.user
	m.mu.RUnlock()
	if user == nil {
		return false
	}

	token, err := m.store.LoadCredential()
	if err != nil || token == "" {
		return false
	}

	claims, err := m.decodeCredential(token)
	if err != nil || credentialExpired(claims) {
		m.logger.Warn("credential expired or unreadable, logging out")
		if err := m.Logout(); err != nil {
			m.logger.Error("implicit logout failed", "error", err)
		}
		return false
	}

	return true
}

// Admin reports whether the current user holds the admin role.
func (m *Manager) Admin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.user.Admin()
}

// Credential returns the raw persisted credential, empty when absent.
func (m *Manager) Credential() string {
	token, err := m.store.LoadCredential()
	if err != nil {
		m.logger.Warn("failed to read credential", "error", err)
		return ""
	}
	return token
}

// SetAPIKey attaches the user's short catalog API key.
func (m *Manager) SetAPIKey(key string) error {
	return m.update(func(u *models.User) { u.APIKey = key })
}

// SetReadToken attaches the user's long bearer-style read token.
func (m *Manager) SetReadToken(token string) error {
	return m.update(func(u *models.User) { u.ReadToken = token })
}

// SaveCatalogSession attaches the catalog session id and numeric account id
// obtained from the authorization handshake. The pair is stored atomically;
// one without the other would read as "not connected".
func (m *Manager) SaveCatalogSession(sessionID string, accountID int) error {
	return m.update(func(u *models.User) {
		u.CatalogSessionID = sessionID
		u.CatalogAccountID = accountID
	})
}

// ClearCatalogSession detaches the catalog session, e.g. after the catalog
// reports it expired.
func (m *Manager) ClearCatalogSession() error {
	return m.update(func(u *models.User) {
		u.CatalogSessionID = ""
		u.CatalogAccountID = 0
	})
}

// update applies a mutation to the in-memory user, persists the full record
// and republishes in one logical step, so consumers never observe a
// partially-updated session.
func (m *Manager) update(fn func(*models.User)) error {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return shared.ErrNotLoggedIn
	}
	updated := m.user.Clone()
	fn(updated)
	if err := m.store.SaveUser(updated); err != nil {
		m.mu.Unlock()
		return err
	}
	m.user = updated
	m.mu.Unlock()

	m.publish()
	return nil
}

// SetPendingToken stores the handshake's pending request token.
func (m *Manager) SetPendingToken(token string) error {
	return m.store.SavePendingToken(token)
}

// PendingToken returns the pending request token, empty when none is set.
func (m *Manager) PendingToken() string {
	token, err := m.store.LoadPendingToken()
	if err != nil {
		m.logger.Warn("failed to read pending token", "error", err)
		return ""
	}
	return token
}

// ClearPendingToken discards the pending request token.
func (m *Manager) ClearPendingToken() error {
	return m.store.ClearPendingToken()
}

// Subscribe registers a listener on the user stream. The returned channel
// immediately receives the current state, then every subsequent transition.
// The cancel function detaches the subscriber; deliveries racing with
// cancellation are dropped, never blocked on.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subMu.Unlock()

	ch <- Event{User: m.Current()}

	cancel := func() {
		m.subMu.Lock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
		m.subMu.Unlock()
	}
	return ch, cancel
}

// publish fans the current state out to all subscribers. Slow subscribers
// miss intermediate states rather than blocking the publisher.
func (m *Manager) publish() {
	event := Event{User: m.Current()}

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// decodeCredential parses the signed credential, verifying the signature
// when a secret is configured.
func (m *Manager) decodeCredential(token string) (*models.Claims, error) {
	claims := &models.Claims{}

	if m.secret != "" {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(m.secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return nil, err
		}
		if !parsed.Valid {
			return nil, jwt.ErrTokenInvalidClaims
		}
		return claims, nil
	}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	if credentialExpired(claims) {
		return nil, errors.New("credential expired")
	}
	return claims, nil
}

// credentialExpired checks the expiry claim against the current time. A
// credential without an expiry never expires.
func credentialExpired(claims *models.Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}
