package linker

import (
	"context"
	"fmt"
	"sync"

	"github.com/avalverde/butaca/internal/catalog"
	"github.com/avalverde/butaca/internal/session"
	"github.com/avalverde/butaca/internal/shared"
	"github.com/charmbracelet/log"
)

// Phase is the handshake's position in its state machine.
type Phase int

const (
	Idle Phase = iota
	TokenIssued
	CallbackReceived
	SessionCreating
	AccountFetching
	Connected
	Rejected
)

var phaseNames = map[Phase]string{
	Idle:             "idle",
	TokenIssued:      "token issued",
	CallbackReceived: "callback received",
	SessionCreating:  "creating session",
	AccountFetching:  "fetching account",
	Connected:        "connected",
	Rejected:         "rejected",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Callback carries what the catalog's redirect reported back.
type Callback struct {
	RequestToken string
	Approved     bool
}

// Result describes the terminal state of a handshake attempt.
type Result struct {
	Phase     Phase
	SessionID string
	AccountID int
	Err       error
}

// Linker drives the authorization handshake. It holds no credentials of its
// own: the pending request token lives in the session manager's store, and
// the session/account pair is persisted there on success.
type Linker struct {
	client   *catalog.Client
	sessions *session.Manager
	logger   *log.Logger

	mu    sync.Mutex
	phase Phase
}

// NewLinker creates a [Linker] in the idle phase.
func NewLinker(client *catalog.Client, sessions *session.Manager, logger *log.Logger) *Linker {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Linker{client: client, sessions: sessions, logger: logger, phase: Idle}
}

// Phase returns the current handshake phase.
func (l *Linker) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

func (l *Linker) setPhase(p Phase) {
	l.mu.Lock()
	l.phase = p
	l.mu.Unlock()
}

// Begin requests a token from the catalog using the application's key,
// stores it as the pending token, and returns the hosted approval URL the
// user must be redirected to.
func (l *Linker) Begin(ctx context.Context, redirectTo string) (string, error) {
	token, err := l.client.NewRequestToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to obtain request token: %w", err)
	}

	if err := l.sessions.SetPendingToken(token); err != nil {
		return "", fmt.Errorf("failed to store pending token: %w", err)
	}

	l.setPhase(TokenIssued)
	l.logger.Info("request token issued, awaiting approval")

	return l.client.ApprovalURL(token, redirectTo), nil
}

// Complete consumes the redirect callback and finishes the handshake. The
// reported token must equal the stored pending token: a mismatch reads as a
// forged or stale callback and rejects without any further catalog call.
// The pending token is cleared on every terminal transition.
func (l *Linker) Complete(ctx context.Context, cb Callback) Result {
	l.setPhase(CallbackReceived)

	pending := l.sessions.PendingToken()
	if err := l.sessions.ClearPendingToken(); err != nil {
		l.logger.Error("failed to clear pending token", "error", err)
	}

	if pending == "" || cb.RequestToken != pending {
		l.logger.Warn("callback token does not match pending token, rejecting")
		return l.reject(fmt.Errorf("%w: callback token does not match the pending request", shared.ErrTokenMismatch))
	}
	if !cb.Approved {
		l.logger.Warn("user denied the authorization request")
		return l.reject(shared.ErrDenied)
	}

	l.setPhase(SessionCreating)
	sessionID, err := l.client.CreateSession(ctx, cb.RequestToken)
	if err != nil {
		return l.reject(fmt.Errorf("session creation failed: %w", err))
	}

	l.setPhase(AccountFetching)
	account, err := l.client.AccountDetails(ctx, sessionID)
	if err != nil {
		return l.reject(fmt.Errorf("account lookup failed: %w", err))
	}

	if err := l.sessions.SaveCatalogSession(sessionID, account.ID); err != nil {
		return l.reject(fmt.Errorf("failed to persist catalog session: %w", err))
	}

	l.setPhase(Connected)
	l.logger.Info("catalog account connected", "account", account.ID, "username", account.Username)

	return Result{Phase: Connected, SessionID: sessionID, AccountID: account.ID}
}

func (l *Linker) reject(err error) Result {
	l.setPhase(Rejected)
	return Result{Phase: Rejected, Err: err}
}
