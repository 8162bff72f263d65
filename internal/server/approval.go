package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/avalverde/butaca/internal/linker"
)

// ApprovalHandler receives the redirect from the hosted approval page and
// delivers the reported token and decision through a channel. It implements
// [Handler] for registration with a [Router].
//
// The handler does not validate the token itself; that comparison against the
// stored pending token belongs to the handshake, which also owns the decision
// of what a mismatch means.
type ApprovalHandler struct {
	resultChan  chan linker.Callback
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewApprovalHandler creates a handler whose result channel receives exactly
// one callback.
func NewApprovalHandler() *ApprovalHandler {
	return &ApprovalHandler{
		resultChan: make(chan linker.Callback, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *ApprovalHandler) Routes() []string {
	return []string{"/approved"}
}

// ServeHTTP parses the redirect query and sends the callback. Only the first
// request is processed; later hits answer 400 so a replayed redirect cannot
// restart a finished handshake.
func (h *ApprovalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()
	callback := linker.Callback{
		RequestToken: query.Get("request_token"),
		Approved:     query.Get("approved") == "true" && query.Get("denied") != "true",
	}

	h.Send(callback)

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)

	if callback.Approved {
		fmt.Fprint(w, approvalPage("Request Approved", "You can close this window and return to the terminal."))
		return
	}
	fmt.Fprint(w, approvalPage("Request Not Approved", "The authorization was declined. You can close this window."))
}

// Send delivers the callback through the channel (only once).
func (h *ApprovalHandler) Send(callback linker.Callback) {
	h.once.Do(func() {
		h.resultChan <- callback
		close(h.resultChan)
	})
}

// Result returns the channel that receives the single callback.
func (h *ApprovalHandler) Result() <-chan linker.Callback {
	return h.resultChan
}

func approvalPage(title, message string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #032541; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>
`, title, title, message)
}
