package session

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/avalverde/butaca/internal/models"
)

// Storage keys. The user record is a single JSON blob; individual credential
// fields are always derived from it, never written independently.
const (
	keyUser         = "current_user"
	keyCredential   = "credential"
	keyPendingToken = "pending_request_token"
)

// Store is the durable session store. It is the only read/write path for
// session state; a synchronous single-writer table needs no extra locking.
type Store struct {
	db *sql.DB
}

// NewStore creates a [Store] over an open database with the session_store
// table migrated.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) put(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO session_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write session key %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM session_store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) delete(keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.Exec("DELETE FROM session_store WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to delete session key %s: %w", key, err)
		}
	}
	return nil
}

// SaveUser persists the full user record as one blob.
func (s *Store) SaveUser(user *models.User) error {
	blob, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to serialize user: %w", err)
	}
	return s.put(keyUser, string(blob))
}

// LoadUser returns the persisted user, nil when none is stored. An
// unparseable blob is reported as an error so the caller can treat it as
// "no user" and clear the inconsistent state.
func (s *Store) LoadUser() (*models.User, error) {
	blob, ok, err := s.get(keyUser)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(blob), &user); err != nil {
		return nil, fmt.Errorf("corrupt user record: %w", err)
	}
	return &user, nil
}

// SaveCredential persists the raw signed credential issued by the backend.
func (s *Store) SaveCredential(token string) error {
	return s.put(keyCredential, token)
}

// LoadCredential returns the raw credential, empty when none is stored.
func (s *Store) LoadCredential() (string, error) {
	token, _, err := s.get(keyCredential)
	return token, err
}

// SavePendingToken stores the short-lived request token awaiting approval.
func (s *Store) SavePendingToken(token string) error {
	return s.put(keyPendingToken, token)
}

// LoadPendingToken returns the pending request token, empty when none is set.
func (s *Store) LoadPendingToken() (string, error) {
	token, _, err := s.get(keyPendingToken)
	return token, err
}

// ClearPendingToken discards the pending request token.
func (s *Store) ClearPendingToken() error {
	return s.delete(keyPendingToken)
}

// Reset clears every session key.
func (s *Store) Reset() error {
	return s.delete(keyUser, keyCredential, keyPendingToken)
}
