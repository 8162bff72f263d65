// package shared carries the ambient pieces the rest of the client leans
// on: logging, sentinel errors, configuration, database access, and ids.
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger builds the application [log.Logger] writing to w, reporting
// timestamps and caller locations. A nil writer falls back to [os.Stderr].
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger derives a child [log.Logger] that stamps every entry with the
// given key-value pairs. Used to tag each subsystem's logs with a component
// key.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel adjusts the minimum [log.Level] a logger emits.
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID returns a fresh v4 UUID string, used for history entry keys.
func GenerateID() string {
	return uuid.New().String()
}
