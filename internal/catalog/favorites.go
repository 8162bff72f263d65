package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/avalverde/butaca/internal/models"
	"github.com/avalverde/butaca/internal/session"
	"github.com/avalverde/butaca/internal/shared"
	"github.com/charmbracelet/log"
)

// identity is the credential triple a cached favorite set belongs to.
type identity struct {
	apiKey    string
	sessionID string
	accountID int
}

// Favorites maintains the cached favorite set for the current catalog
// account. The cache only ever tracks page 1 and is valid for exactly one
// credential triple at a time; a change in the catalog identity observed on
// the user stream resets it before any new load. Mutations are never applied
// locally: after every toggle the set is reloaded from the catalog.
type Favorites struct {
	client   *Client
	sessions *session.Manager
	logger   *log.Logger

	mu      sync.RWMutex
	cache   []models.Movie
	loaded  bool
	ident   identity
	version int

	// one mutation lock per account id, so rapid toggles serialize and the
	// final reload reflects the last-initiated toggle
	locksMu sync.Mutex
	locks   map[int]*sync.Mutex

	watchCancel func()
}

// NewFavorites creates the favorites cache and starts watching the session
// manager's user stream for identity changes. Call [Favorites.Close] to stop
// the watcher.
func NewFavorites(client *Client, sessions *session.Manager, logger *log.Logger) *Favorites {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	f := &Favorites{
		client:   client,
		sessions: sessions,
		logger:   logger,
		cache:    []models.Movie{},
		locks:    make(map[int]*sync.Mutex),
	}

	events, cancel := sessions.Subscribe()
	f.watchCancel = cancel
	go func() {
		for event := range events {
			f.onUserChange(event.User)
		}
	}()

	return f
}

// Close detaches the user-stream watcher.
func (f *Favorites) Close() {
	if f.watchCancel != nil {
		f.watchCancel()
	}
}

// onUserChange resets the cache whenever the catalog identity triple
// changes, including to or from "not connected".
func (f *Favorites) onUserChange(user *models.User) {
	next := identityOf(user)

	f.mu.Lock()
	defer f.mu.Unlock()
	if next == f.ident {
		return
	}
	f.ident = next
	f.cache = []models.Movie{}
	f.loaded = false
	f.version++
	f.logger.Debug("catalog identity changed, favorite cache reset")
}

func identityOf(user *models.User) identity {
	if user == nil {
		return identity{}
	}
	return identity{
		apiKey:    user.APIKey,
		sessionID: user.CatalogSessionID,
		accountID: user.CatalogAccountID,
	}
}

// credentials assembles the account triple for a call, failing typed when
// any piece is missing.
func (f *Favorites) credentials(accountID int) (AccountCredentials, error) {
	user := f.sessions.Current()
	if user == nil {
		return AccountCredentials{}, shared.ErrNotConnected
	}
	creds := AccountCredentials{
		APIKey:    user.APIKey,
		SessionID: user.CatalogSessionID,
		AccountID: accountID,
	}
	if !creds.Complete() {
		return AccountCredentials{}, shared.ErrNotConnected
	}
	return creds, nil
}

// accountLock returns the per-account mutation lock.
func (f *Favorites) accountLock(accountID int) *sync.Mutex {
	f.locksMu.Lock()
	defer f.locksMu.Unlock()
	lock, ok := f.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		f.locks[accountID] = lock
	}
	return lock
}

// Load fetches one page of the favorite set. Page 1 replaces the cache and
// marks it loaded; later pages are returned but never cached, since the
// cache only tracks page 1. A page-1 call while the cache is loaded for the same
// account is served from the cache without a network call. Missing
// credentials fail typed without any network I/O.
func (f *Favorites) Load(ctx context.Context, accountID, page int) (*models.MoviePage, error) {
	if page < 1 {
		page = 1
	}

	creds, err := f.credentials(accountID)
	if err != nil {
		f.mu.Lock()
		f.cache = []models.Movie{}
		f.loaded = false
		f.mu.Unlock()
		return nil, err
	}

	if page == 1 {
		f.mu.RLock()
		if f.loaded && f.ident.accountID == accountID {
			cached := make([]models.Movie, len(f.cache))
			copy(cached, f.cache)
			f.mu.RUnlock()
			return &models.MoviePage{
				Page:         1,
				Results:      cached,
				TotalPages:   1,
				TotalResults: len(cached),
			}, nil
		}
		f.mu.RUnlock()
	}

	result, err := f.client.FavoriteMovies(ctx, creds, page)
	if err != nil {
		return nil, f.handleAccountError("load favorites", err)
	}

	if page == 1 {
		f.mu.Lock()
		f.ident = identity{apiKey: creds.APIKey, sessionID: creds.SessionID, accountID: accountID}
		f.cache = make([]models.Movie, len(result.Results))
		copy(f.cache, result.Results)
		f.loaded = true
		f.version++
		f.mu.Unlock()
	}

	return result, nil
}

// Toggle marks or unmarks a movie as favorite, then reloads the set from
// the catalog. The cache is never updated optimistically, so a partially
// failed mutation cannot leave it drifted. Toggles on the same account
// serialize on a per-account lock.
func (f *Favorites) Toggle(ctx context.Context, accountID, movieID int, favorite bool) error {
	lock := f.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	return f.toggleLocked(ctx, accountID, movieID, favorite)
}

// Flip toggles a movie to the opposite of its current cached state. The
// target is derived under the mutation lock immediately before sending, not
// from a state captured earlier, so rapid flips land on the last-initiated
// target.
// Returns the new state.
func (f *Favorites) Flip(ctx context.Context, accountID, movieID int) (bool, error) {
	lock := f.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	next := !f.IsFavorite(movieID)
	if err := f.toggleLocked(ctx, accountID, movieID, next); err != nil {
		return false, err
	}
	return next, nil
}

func (f *Favorites) toggleLocked(ctx context.Context, accountID, movieID int, favorite bool) error {
	creds, err := f.credentials(accountID)
	if err != nil {
		return err
	}

	if err := f.client.SetFavorite(ctx, creds, movieID, favorite); err != nil {
		return f.handleAccountError("toggle favorite", err)
	}

	f.mu.Lock()
	f.loaded = false
	f.mu.Unlock()

	if _, err := f.Load(ctx, accountID, 1); err != nil {
		return fmt.Errorf("favorite updated but reload failed: %w", err)
	}
	f.logger.Info("favorite toggled", "movie", movieID, "favorite", favorite)
	return nil
}

// handleAccountError clears the catalog session on a 401-class failure:
// the session has expired server-side and the stale credentials would only
// keep failing.
func (f *Favorites) handleAccountError(op string, err error) error {
	if errors.Is(err, shared.ErrSessionExpired) {
		f.logger.Warn("catalog rejected session, clearing credentials", "op", op)
		if clearErr := f.sessions.ClearCatalogSession(); clearErr != nil {
			f.logger.Error("failed to clear catalog session", "error", clearErr)
		}
		f.mu.Lock()
		f.cache = []models.Movie{}
		f.loaded = false
		f.version++
		f.mu.Unlock()
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsFavorite reports whether a movie is in the cached favorite set. It is a
// pure read: it never triggers a fetch, and it is false whenever any of the
// three account credentials is missing, regardless of cached state.
func (f *Favorites) IsFavorite(movieID int) bool {
	user := f.sessions.Current()
	if user == nil || user.APIKey == "" || !user.Connected() {
		return false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, movie := range f.cache {
		if movie.ID == movieID {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the cached favorite set.
func (f *Favorites) Snapshot() []models.Movie {
	f.mu.RLock()
	defer f.mu.RUnlock()
	snapshot := make([]models.Movie, len(f.cache))
	copy(snapshot, f.cache)
	return snapshot
}

// Version increments on every cache change; views use it to notice staleness
// without subscribing to a stream.
func (f *Favorites) Version() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}
