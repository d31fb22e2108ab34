package logger

import (
	"net/http"
	"os"
	"time"

	"github.com/rollbar/rollbar-go"

	"github.com/fundalink/fundalink-api/pkg/config"
)

// ErrorReporter forwards server failures to an external tracker.
type ErrorReporter interface {
	Report(r *http.Request, err error, extras map[string]interface{})
	Close(timeout time.Duration)
}

// RollbarReporter reports to Rollbar. Without a token it is disabled and every call is a no-op.
type RollbarReporter struct {
	enabled bool
}

// NewRollbarReporter configures the global Rollbar client.
func NewRollbarReporter(cfg config.RollbarConfig, version string) *RollbarReporter {
	enabled := cfg.Token != ""
	rollbar.SetEnabled(enabled)
	if !enabled {
		return &RollbarReporter{}
	}
	rollbar.SetToken(cfg.Token)
	rollbar.SetEnvironment(cfg.Environment)
	rollbar.SetCodeVersion(version)
	if host, err := os.Hostname(); err == nil {
		rollbar.SetServerHost(host)
	}
	return &RollbarReporter{enabled: true}
}

// Enabled reports whether errors are sent.
func (r *RollbarReporter) Enabled() bool {
	return r != nil && r.enabled
}

// Report sends err as a critical item tied to the request.
func (r *RollbarReporter) Report(req *http.Request, err error, extras map[string]interface{}) {
	if !r.Enabled() || err == nil {
		return
	}
	if req == nil {
		rollbar.ErrorWithExtras(rollbar.CRIT, err, extras)
		return
	}
	rollbar.RequestErrorWithExtras(rollbar.CRIT, req, err, extras)
}

// Close flushes queued items, waiting at most timeout.
func (r *RollbarReporter) Close(timeout time.Duration) {
	if !r.Enabled() {
		return
	}
	done := make(chan struct{})
	go func() {
		rollbar.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
