// Package authgate tracks whether the caller is authenticated and defers
// actions that require a signed-in session until login succeeds. At most one
// deferred action is pending at a time; its lifetime is bounded by one
// authentication modal interaction.
package authgate

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/webinsight/dashboard/apperr"
	"github.com/webinsight/dashboard/logging"
	"github.com/webinsight/dashboard/prefs"
)

// State is the gate's authentication state.
type State int

const (
	LoggedOut State = iota
	ModalOpen
	Authenticating
	LoggedIn
)

func (s State) String() string {
	switch s {
	case ModalOpen:
		return "modal_open"
	case Authenticating:
		return "authenticating"
	case LoggedIn:
		return "logged_in"
	default:
		return "logged_out"
	}
}

// Mode is the modal's current form.
type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

// AuthClient is the client interface over the authentication provider.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (token, identity string, err error)
	Register(ctx context.Context, email, password string) error
	VerifyIDToken(ctx context.Context, idToken string) (identity string, err error)
}

// Gate is the session gate. All session mutations (password login,
// federated login, sign-out and cached-state restore) converge on the
// single setSession update path.
type Gate struct {
	auth   AuthClient
	store  *prefs.Store
	logger logging.Logger

	mu       sync.Mutex
	state    State
	mode     Mode
	token    string
	identity string
	pending  func()
}

// NewGate creates a gate and restores the cached session, if any. A cached
// token that has visibly expired restores as logged out.
func NewGate(auth AuthClient, store *prefs.Store, logger logging.Logger) *Gate {
	g := &Gate{
		auth:   auth,
		store:  store,
		logger: logger,
		state:  LoggedOut,
		mode:   ModeLogin,
	}
	if store != nil {
		token := store.Get(prefs.KeyToken)
		if token != "" && !tokenExpired(token) {
			g.token = token
			g.identity = store.Get(prefs.KeyIdentity)
			g.state = LoggedIn
			logger.Info("session restored", logging.String("identity", g.identity))
		}
	}
	return g
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; verification is the provider's job. Opaque non-JWT tokens are
// kept as-is.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Mode returns the modal's current form mode.
func (g *Gate) Mode() Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mode
}

// Token returns the cached session token, or "" when logged out.
func (g *Gate) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// Identity returns the cached identity label, or "" when logged out.
func (g *Gate) Identity() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identity
}

// LoggedIn reports whether a session token is cached. Absence of a token
// means logged out regardless of a cached identity.
func (g *Gate) LoggedIn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token != ""
}

func (g *Gate) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// RequireAuth runs action immediately when authenticated; otherwise it
// stores action as the single pending one and opens the modal in login
// mode. prompted reports whether a modal interaction was started.
func (g *Gate) RequireAuth(action func()) (prompted bool) {
	g.mu.Lock()
	if g.token != "" {
		g.mu.Unlock()
		action()
		return false
	}
	g.pending = action
	g.state = ModalOpen
	g.mode = ModeLogin
	g.mu.Unlock()
	return true
}

// Dismiss closes the modal without authenticating. The pending action is
// abandoned, never invoked.
func (g *Gate) Dismiss() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = nil
	if g.token != "" {
		g.state = LoggedIn
	} else {
		g.state = LoggedOut
	}
}

// SwitchMode flips the modal between login and registration. The pending
// action is preserved.
func (g *Gate) SwitchMode(mode Mode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mode = mode
}

// Login authenticates with email and password. On success the pending
// action fires exactly once and the modal closes. On failure the modal
// stays open with the pending action intact so the user can retry.
func (g *Gate) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return &apperr.AuthError{Reason: apperr.MissingCredentials}
	}

	g.setState(Authenticating)
	token, identity, err := g.auth.Login(ctx, email, password)
	if err != nil {
		g.setState(ModalOpen)
		return err
	}

	g.setSession(token, identity)
	g.firePending()
	return nil
}

// Register creates an account. Success does not authenticate: the modal
// switches back to login mode and a distinct login is required before any
// pending action fires.
func (g *Gate) Register(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return &apperr.AuthError{Reason: apperr.MissingCredentials}
	}

	g.setState(Authenticating)
	if err := g.auth.Register(ctx, email, password); err != nil {
		g.setState(ModalOpen)
		return err
	}

	g.mu.Lock()
	g.state = ModalOpen
	g.mode = ModeLogin
	g.mu.Unlock()
	return nil
}

// FederatedLogin validates a federated-provider token server-side and, on
// success, adopts it as the session token and fires the pending action.
func (g *Gate) FederatedLogin(ctx context.Context, idToken string) error {
	if idToken == "" {
		return &apperr.AuthError{Reason: apperr.MissingCredentials}
	}

	g.setState(Authenticating)
	identity, err := g.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		g.setState(ModalOpen)
		return err
	}

	g.setSession(idToken, identity)
	g.firePending()
	return nil
}

// FederatedFailure classifies a provider error code reported by the popup
// flow. The modal stays open; the pending action is preserved.
func (g *Gate) FederatedFailure(code string) error {
	g.setState(ModalOpen)
	return &apperr.AuthError{Reason: classifyProviderCode(code)}
}

// classifyProviderCode maps federated-provider error codes to reasons.
// Unrecognized codes fall back to the generic failure.
func classifyProviderCode(code string) apperr.AuthReason {
	switch code {
	case "popup-closed-by-user", "auth/popup-closed-by-user":
		return apperr.PopupClosedByUser
	case "cancelled-popup-request", "auth/cancelled-popup-request":
		return apperr.PopupCancelled
	case "account-exists-with-different-credential", "auth/account-exists-with-different-credential":
		return apperr.AccountConflict
	case "network-request-failed", "auth/network-request-failed":
		return apperr.AuthNetworkFailure
	default:
		return apperr.AuthFailed
	}
}

// Logout discards the cached session.
func (g *Gate) Logout() {
	g.setSession("", "")
}

// Invalidate discards a session the upstream no longer honors. The next
// gated action goes back through RequireAuth and re-opens the modal.
func (g *Gate) Invalidate() {
	g.logger.Warn("cached session rejected upstream, discarding token")
	g.setSession("", "")
}

// setSession is the single update path for the cached token and identity.
func (g *Gate) setSession(token, identity string) {
	g.mu.Lock()
	g.token = token
	g.identity = identity
	if token != "" {
		g.state = LoggedIn
	} else {
		g.state = LoggedOut
	}
	g.mu.Unlock()

	if g.store != nil {
		var err error
		if token != "" {
			if err = g.store.Set(prefs.KeyToken, token); err == nil {
				err = g.store.Set(prefs.KeyIdentity, identity)
			}
		} else {
			if err = g.store.Delete(prefs.KeyToken); err == nil {
				err = g.store.Delete(prefs.KeyIdentity)
			}
		}
		if err != nil {
			g.logger.Warn("could not persist session", logging.Error(err))
		}
	}

	if token != "" {
		g.logger.Info("signed in", logging.String("identity", identity))
	} else {
		g.logger.Info("signed out")
	}
}

// firePending invokes the pending action exactly once. Taking and clearing
// the slot is one atomic step so a second trigger cannot double-invoke.
func (g *Gate) firePending() {
	g.mu.Lock()
	action := g.pending
	g.pending = nil
	g.mu.Unlock()

	if action != nil {
		action()
	}
}
