// Package session owns the request lifecycle for analyze operations: it
// issues the engine request with a bounded timeout, classifies the outcome
// and hands the result to the renderer or the error surface.
package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/webinsight/dashboard/analysis"
	"github.com/webinsight/dashboard/apperr"
	"github.com/webinsight/dashboard/logging"
	"github.com/webinsight/dashboard/render"
)

// Status is the request lifecycle state. Exactly one status holds at a time.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// AnalyzeTimeout bounds one website analysis round trip.
const AnalyzeTimeout = 120 * time.Second

// Localizer resolves dictionary keys for error messages and placeholder rows.
type Localizer = render.Localizer

// Controller is the analysis session state machine. One controller exists
// per dashboard; re-entrant analyze calls are rejected by the caller layer
// while the status is Loading.
type Controller struct {
	engine  analysis.Engine
	loc     Localizer
	logger  logging.Logger
	timeout time.Duration

	mu               sync.Mutex
	status           Status
	lastResult       *analysis.Result
	lastIdentifier   string
	lastErrorMessage string
}

// NewController creates a controller with the default analyze timeout.
func NewController(engine analysis.Engine, loc Localizer, logger logging.Logger) *Controller {
	return &Controller{
		engine:  engine,
		loc:     loc,
		logger:  logger,
		timeout: AnalyzeTimeout,
	}
}

// SetTimeout overrides the analyze timeout. Used in tests.
func (c *Controller) SetTimeout(d time.Duration) { c.timeout = d }

// Status returns the current lifecycle status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastError returns the stored human-readable message from the last failed
// analysis, if the session is in the Error status.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErrorMessage
}

// LastSuccess returns the cached result document and its identifier. ok is
// false until an analysis has succeeded; the cache survives later errors and
// is discarded only by Reset or the start of a new analysis.
func (c *Controller) LastSuccess() (doc *analysis.Result, identifier string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastResult == nil {
		return nil, "", false
	}
	return c.lastResult, c.lastIdentifier, true
}

// Dashboard renders the current cached result with the active dictionary.
// ok is false when there is nothing to show.
func (c *Controller) Dashboard() (render.Dashboard, bool) {
	doc, identifier, ok := c.LastSuccess()
	if !ok {
		return render.Dashboard{}, false
	}
	return render.Render(identifier, doc, c.loc), true
}

// Analyze validates the input, runs one analysis round trip and renders the
// result. A malformed URL fails synchronously with a ValidationError and no
// state change. On any request failure the session transitions to Error
// with a human-readable message and no partial result is kept.
func (c *Controller) Analyze(ctx context.Context, rawURL string) (render.Dashboard, error) {
	input := strings.TrimSpace(rawURL)
	if err := validateURL(input); err != nil {
		return render.Dashboard{}, err
	}

	c.begin(input)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	doc, err := c.engine.Analyze(ctx, input)
	if err != nil {
		c.fail(err)
		return render.Dashboard{}, err
	}

	c.mu.Lock()
	c.status = Success
	c.lastResult = doc
	c.lastIdentifier = input
	c.lastErrorMessage = ""
	c.mu.Unlock()

	c.logger.Info("analysis completed", logging.String("url", input))
	return render.Render(input, doc, c.loc), nil
}

// Reset returns the session to Idle and discards the cached result. This is
// the explicit "analyze another" action; errors do not discard the cache.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = Idle
	c.lastResult = nil
	c.lastIdentifier = ""
	c.lastErrorMessage = ""
}

// begin transitions to Loading and drops the previous result so a stale
// dashboard can never outlive the request that replaces it.
func (c *Controller) begin(identifier string) {
	c.mu.Lock()
	c.status = Loading
	c.lastResult = nil
	c.lastIdentifier = identifier
	c.lastErrorMessage = ""
	c.mu.Unlock()
	c.logger.Info("analysis started", logging.String("input", identifier))
}

func (c *Controller) fail(err error) {
	msg := errorMessage(c.loc, err)
	c.mu.Lock()
	c.status = Error
	c.lastErrorMessage = msg
	c.mu.Unlock()
	c.logger.Warn("analysis failed", logging.String("message", msg), logging.Error(err))
}

// errorMessage maps a classified error to its user-facing text. Server
// errors with a parseable body surface the server's localized message;
// non-JSON bodies surface the status and a truncated copy.
func errorMessage(loc Localizer, err error) string {
	if httpErr, ok := err.(*apperr.HTTPError); ok {
		if httpErr.RawBody {
			return fmt.Sprintf("%s (Status: %d): %s",
				loc.T("serverReturnedNonJson"), httpErr.Status, httpErr.Message)
		}
		return httpErr.Message
	}
	return loc.T(apperr.LocaleKey(err))
}

func validateURL(input string) error {
	if input == "" {
		return &apperr.ValidationError{Msg: "empty URL", Key: "invalidUrl"}
	}
	u, err := url.Parse(input)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &apperr.ValidationError{Msg: "malformed URL: " + input, Key: "invalidUrl"}
	}
	return nil
}
