package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/webinsight/dashboard/analysis"
	"github.com/webinsight/dashboard/apperr"
	"github.com/webinsight/dashboard/authgate"
	"github.com/webinsight/dashboard/logging"
	"github.com/webinsight/dashboard/prefs"
	"github.com/webinsight/dashboard/session"
)

func (s *Server) analyze(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": s.loc.T("invalidUrl")})
		return
	}

	if s.ctrl.Status() == session.Loading {
		c.JSON(http.StatusConflict, gin.H{"error": s.loc.T("analysisInProgress")})
		return
	}

	dash, err := s.ctrl.Analyze(c.Request.Context(), req.URL)
	s.record(func() { s.usage.RecordAnalysis(err != nil) })
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// record guards usage-counter updates behind the nil check.
func (s *Server) record(fn func()) {
	if s.usage != nil {
		fn()
	}
}

// dashboard re-renders the cached result, as JSON or as an HTML fragment
// depending on the Accept header.
func (s *Server) dashboard(c *gin.Context) {
	dash, ok := s.ctrl.Dashboard()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": s.loc.T("analyzeFirst")})
		return
	}

	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		html, err := dash.HTML()
		if err != nil {
			s.logger.Error("dashboard render failed", logging.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": s.loc.T("analysisFailed")})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (s *Server) reset(c *gin.Context) {
	s.ctrl.Reset()
	s.articles.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) analyzeArticle(c *gin.Context) {
	if !s.requireAuth(c, "article") {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": s.loc.T("pleaseEnterArticle")})
		return
	}

	view, err := s.articles.Analyze(c.Request.Context(), req.Text, s.gate.Token())
	s.record(func() { s.usage.RecordArticle(err != nil) })
	if err != nil {
		s.failGated(c, "article", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) rewriteArticle(c *gin.Context) {
	if !s.requireAuth(c, "article_rewrite") {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": s.loc.T("pleaseEnterArticle")})
		return
	}

	rewritten, err := s.articles.Rewrite(c.Request.Context(), req.Text, s.gate.Token())
	s.record(func() { s.usage.RecordRewrite(err != nil) })
	if err != nil {
		s.failGated(c, "article_rewrite", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewritten_content": rewritten})
}

func (s *Server) rewriteSEO(c *gin.Context) {
	if !s.requireAuth(c, "seo_rewrite") {
		return
	}
	var req analysis.SEORewriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": s.loc.T("invalidInput")})
		return
	}

	result, err := s.engine.RewriteSEO(c.Request.Context(), req)
	if err != nil {
		s.failGated(c, "seo_rewrite", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// refineContent refines the text sample extracted by the last analysis.
func (s *Server) refineContent(c *gin.Context) {
	if !s.requireAuth(c, "content_refine") {
		return
	}
	doc, _, ok := s.ctrl.LastSuccess()
	if !ok || doc.ExtractedTextSample == nil || *doc.ExtractedTextSample == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": s.loc.T("analyzeFirst")})
		return
	}

	refined, err := s.engine.RefineContent(c.Request.Context(), *doc.ExtractedTextSample)
	if err != nil {
		s.failGated(c, "content_refine", err)
		return
	}
	c.JSON(http.StatusOK, refined)
}

// exportReport streams the generated PDF as an attachment.
func (s *Server) exportReport(c *gin.Context) {
	if !s.requireAuth(c, "export") {
		return
	}
	filename, data, err := s.exporter.Export(c.Request.Context())
	s.record(func() { s.usage.RecordExport(err != nil) })
	if err != nil {
		s.failGated(c, "export", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// requireAuth lets the request through when a session is active; otherwise
// it opens the auth modal, records the endpoint as the deferred action and
// returns a 401. After a successful login the deferred endpoint is exposed
// once through the session handler so the client can replay it.
func (s *Server) requireAuth(c *gin.Context, endpoint string) bool {
	if s.gate.LoggedIn() {
		return true
	}

	s.gate.RequireAuth(func() {
		s.mu.Lock()
		s.replay = endpoint
		s.mu.Unlock()
	})
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":         s.loc.T("loginRequired"),
		"auth_required": true,
	})
	return false
}

// failGated handles errors from endpoints behind the session gate. An
// upstream 401/403 means the engine no longer honors the cached token:
// the session is discarded and the request routes back through
// requireAuth so the modal re-opens and the endpoint is recorded for
// replay after the next login.
func (s *Server) failGated(c *gin.Context, endpoint string, err error) {
	if apperr.IsUnauthorized(err) {
		s.gate.Invalidate()
		s.requireAuth(c, endpoint)
		return
	}
	s.fail(c, err)
}

func (s *Server) authSession(c *gin.Context) {
	s.mu.Lock()
	replay := s.replay
	s.replay = ""
	s.mu.Unlock()

	resp := gin.H{
		"state":     s.gate.State().String(),
		"mode":      string(s.gate.Mode()),
		"logged_in": s.gate.LoggedIn(),
		"identity":  s.gate.Identity(),
	}
	if replay != "" {
		resp["replay"] = replay
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": s.loc.T("authMissingCredentials")})
		return
	}

	if err := s.gate.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_in": true, "identity": s.gate.Identity()})
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": s.loc.T("authMissingCredentials")})
		return
	}

	if err := s.gate.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"registered": true,
		"message":    s.loc.T("registrationSuccess"),
		"mode":       string(s.gate.Mode()),
	})
}

// federated completes a provider popup flow: either an id token to verify
// or the provider's error code when the popup failed.
func (s *Server) federated(c *gin.Context) {
	var req struct {
		IDToken   string `json:"id_token"`
		ErrorCode string `json:"error_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": s.loc.T("authFailed")})
		return
	}

	if req.ErrorCode != "" {
		s.fail(c, s.gate.FederatedFailure(req.ErrorCode))
		return
	}

	if err := s.gate.FederatedLogin(c.Request.Context(), req.IDToken); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_in": true, "identity": s.gate.Identity()})
}

func (s *Server) dismiss(c *gin.Context) {
	s.gate.Dismiss()
	c.JSON(http.StatusOK, gin.H{"state": s.gate.State().String()})
}

func (s *Server) switchMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Mode != string(authgate.ModeLogin) && req.Mode != string(authgate.ModeRegister)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": s.loc.T("invalidInput")})
		return
	}
	s.gate.SwitchMode(authgate.Mode(req.Mode))
	c.JSON(http.StatusOK, gin.H{"mode": string(s.gate.Mode())})
}

func (s *Server) logout(c *gin.Context) {
	s.gate.Logout()
	c.JSON(http.StatusOK, gin.H{"logged_in": false})
}

func (s *Server) getLocale(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"locale": s.loc.Code()})
}

func (s *Server) setLocale(c *gin.Context) {
	var req struct {
		Locale string `json:"locale"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Locale == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": s.loc.T("invalidInput")})
		return
	}

	s.loc.SetLocale(c.Request.Context(), req.Locale)
	c.JSON(http.StatusOK, gin.H{"locale": s.loc.Code()})
}

func (s *Server) getTheme(c *gin.Context) {
	theme := s.store.Get(prefs.KeyTheme)
	if theme == "" {
		theme = "light"
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

func (s *Server) setTheme(c *gin.Context) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Theme != "light" && req.Theme != "dark") {
		c.JSON(http.StatusBadRequest, gin.H{"error": s.loc.T("invalidInput")})
		return
	}

	if err := s.store.Set(prefs.KeyTheme, req.Theme); err != nil {
		s.logger.Warn("could not persist theme", logging.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}

// fail maps an error to an HTTP status and a localized message body.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var ve *apperr.ValidationError
	var te *apperr.TimeoutError
	var ne *apperr.NetworkError
	var he *apperr.HTTPError
	var ae *apperr.AuthError

	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrNoAnalysis):
		status = http.StatusConflict
	case errors.As(err, &ae):
		status = http.StatusUnauthorized
	case apperr.IsUnauthorized(err):
		status = http.StatusUnauthorized
	case errors.As(err, &te):
		status = http.StatusGatewayTimeout
	case errors.As(err, &ne):
		status = http.StatusBadGateway
	case errors.As(err, &he):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": s.errorMessage(err)})
}

// errorMessage renders an error for the client. Engine-provided messages
// pass through verbatim; unparseable upstream bodies are wrapped with the
// status code; everything else resolves through the locale dictionary.
func (s *Server) errorMessage(err error) string {
	var he *apperr.HTTPError
	if errors.As(err, &he) {
		if he.RawBody {
			return fmt.Sprintf("%s (Status: %d): %s", s.loc.T("serverReturnedNonJson"), he.Status, he.Message)
		}
		if he.Message != "" {
			return he.Message
		}
	}
	return s.loc.T(apperr.LocaleKey(err))
}
