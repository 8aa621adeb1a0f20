package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webinsight/dashboard/analysis"
	"github.com/webinsight/dashboard/apperr"
	"github.com/webinsight/dashboard/authgate"
	"github.com/webinsight/dashboard/config"
	"github.com/webinsight/dashboard/export"
	"github.com/webinsight/dashboard/locale"
	"github.com/webinsight/dashboard/logging"
	"github.com/webinsight/dashboard/prefs"
	"github.com/webinsight/dashboard/server"
	"github.com/webinsight/dashboard/session"
	"github.com/webinsight/dashboard/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEngine struct {
	analyzeFn func(ctx context.Context, url string) (*analysis.Result, error)
	articleFn func(ctx context.Context, text, token string) (*analysis.ArticleResult, error)
	reportFn  func(ctx context.Context, url string, result *analysis.Result) ([]byte, error)
}

func (f *fakeEngine) Analyze(ctx context.Context, url string) (*analysis.Result, error) {
	if f.analyzeFn == nil {
		return &analysis.Result{}, nil
	}
	return f.analyzeFn(ctx, url)
}

func (f *fakeEngine) AnalyzeArticle(ctx context.Context, text, token string) (*analysis.ArticleResult, error) {
	if f.articleFn == nil {
		return &analysis.ArticleResult{}, nil
	}
	return f.articleFn(ctx, text, token)
}

func (f *fakeEngine) RewriteArticle(ctx context.Context, text, token string) (string, error) {
	return "rewritten", nil
}

func (f *fakeEngine) GenerateReport(ctx context.Context, url string, result *analysis.Result) ([]byte, error) {
	if f.reportFn == nil {
		return []byte("%PDF-1.4"), nil
	}
	return f.reportFn(ctx, url, result)
}

func (f *fakeEngine) RewriteSEO(ctx context.Context, req analysis.SEORewriteRequest) (*analysis.SEORewriteResult, error) {
	return &analysis.SEORewriteResult{Titles: []string{"Better title"}}, nil
}

func (f *fakeEngine) RefineContent(ctx context.Context, textSample string) (*analysis.RefinedContent, error) {
	return &analysis.RefinedContent{}, nil
}

type fakeAuth struct{}

func (fakeAuth) Login(ctx context.Context, email, password string) (string, string, error) {
	if password != "secret" {
		return "", "", &apperr.AuthError{Reason: apperr.InvalidCredentials}
	}
	return "session-token", email, nil
}

func (fakeAuth) Register(ctx context.Context, email, password string) error { return nil }

func (fakeAuth) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	return "fed@example.com", nil
}

type fakeFetcher struct{}

func (fakeFetcher) Fetch(ctx context.Context, code string) (map[string]string, error) {
	if code == "fr" {
		return map[string]string{"analyzeFirst": "Analysez d'abord."}, nil
	}
	return nil, errors.New("no such locale")
}

type harness struct {
	router *gin.Engine
	ctrl   *session.Controller
	gate   *authgate.Gate
	store  *prefs.Store
}

func newHarness(t *testing.T, engine analysis.Engine) *harness {
	t.Helper()

	logger := logging.NewNop()
	store, err := prefs.NewStore(t.TempDir())
	require.NoError(t, err)

	translator := locale.NewTranslator(fakeFetcher{}, store, logger)
	ctrl := session.NewController(engine, translator, logger)
	articles := session.NewArticleSession(engine, translator, logger)
	gate := authgate.NewGate(fakeAuth{}, store, logger)
	exporter := export.NewOrchestrator(engine, ctrl, t.TempDir(), logger)

	cfg := &config.Config{
		Port:          8080,
		RateLimit:     1000,
		RateBurst:     1000,
		AllowedOrigin: "*",
	}

	usage, err := stats.NewStorage(t.TempDir(), logger)
	require.NoError(t, err)

	srv := server.New(cfg, engine, ctrl, articles, gate, exporter, translator, store, usage, logger)
	return &harness{router: srv.Router(), ctrl: ctrl, gate: gate, store: store}
}

func (h *harness) do(method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	w := h.do(http.MethodPost, "/api/auth/login", gin.H{"email": "user@example.com", "password": "secret"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	h := newHarness(t, &fakeEngine{})
	w := h.do(http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestAnalyzeEndpoint(t *testing.T) {
	score := 85
	engine := &fakeEngine{
		analyzeFn: func(ctx context.Context, url string) (*analysis.Result, error) {
			return &analysis.Result{Scores: analysis.Scores{SEO: &score}}, nil
		},
	}
	h := newHarness(t, engine)

	w := h.do(http.MethodPost, "/api/analyze", gin.H{"url": "https://example.com"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "https://example.com", body["source"])
}

func TestAnalyzeEndpointInvalidURL(t *testing.T) {
	h := newHarness(t, &fakeEngine{})
	w := h.do(http.MethodPost, "/api/analyze", gin.H{"url": "not a url"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode(t, w)["error"])
}

func TestAnalyzeEndpointBusy(t *testing.T) {
	release := make(chan struct{})
	engine := &fakeEngine{
		analyzeFn: func(ctx context.Context, url string) (*analysis.Result, error) {
			<-release
			return &analysis.Result{}, nil
		},
	}
	h := newHarness(t, engine)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- h.do(http.MethodPost, "/api/analyze", gin.H{"url": "https://example.com"}, nil)
	}()

	require.Eventually(t, func() bool {
		return h.ctrl.Status() == session.Loading
	}, time.Second, time.Millisecond)

	w := h.do(http.MethodPost, "/api/analyze", gin.H{"url": "https://other.example.com"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(release)
	assert.Equal(t, http.StatusOK, (<-done).Code)
}

func TestDashboardContentNegotiation(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	w := h.do(http.MethodGet, "/api/dashboard", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK,
		h.do(http.MethodPost, "/api/analyze", gin.H{"url": "https://example.com"}, nil).Code)

	w = h.do(http.MethodGet, "/api/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	w = h.do(http.MethodGet, "/api/dashboard", nil, map[string]string{"Accept": "text/html"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `id="results-dashboard"`)
}

func TestArticleRequiresAuth(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	w := h.do(http.MethodPost, "/api/article", gin.H{"text": "some article"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["auth_required"])
	assert.Equal(t, authgate.ModalOpen, h.gate.State())

	h.login(t)

	// The deferred endpoint surfaces exactly once for replay.
	sess := decode(t, h.do(http.MethodGet, "/api/auth/session", nil, nil))
	assert.Equal(t, "article", sess["replay"])
	sess = decode(t, h.do(http.MethodGet, "/api/auth/session", nil, nil))
	assert.Nil(t, sess["replay"])

	w = h.do(http.MethodPost, "/api/article", gin.H{"text": "some article"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestArticleUpstreamRejectionReprompts(t *testing.T) {
	calls := 0
	engine := &fakeEngine{
		articleFn: func(ctx context.Context, text, token string) (*analysis.ArticleResult, error) {
			calls++
			return nil, &apperr.HTTPError{Status: http.StatusUnauthorized}
		},
	}
	h := newHarness(t, engine)
	h.login(t)

	// The engine rejects the cached token: the session is discarded and the
	// modal re-opens with the endpoint recorded for replay.
	w := h.do(http.MethodPost, "/api/article", gin.H{"text": "some article"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, true, decode(t, w)["auth_required"])
	assert.Equal(t, authgate.ModalOpen, h.gate.State())
	assert.False(t, h.gate.LoggedIn())
	assert.Empty(t, h.store.Get(prefs.KeyToken))
	assert.Equal(t, 1, calls)

	// A retry before re-login never reaches the engine.
	w = h.do(http.MethodPost, "/api/article", gin.H{"text": "some article"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1, calls)

	h.login(t)
	sess := decode(t, h.do(http.MethodGet, "/api/auth/session", nil, nil))
	assert.Equal(t, "article", sess["replay"])
}

func TestDismissDropsDeferredAction(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	require.Equal(t, http.StatusUnauthorized,
		h.do(http.MethodPost, "/api/article", gin.H{"text": "x"}, nil).Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/auth/dismiss", nil, nil).Code)

	h.login(t)
	sess := decode(t, h.do(http.MethodGet, "/api/auth/session", nil, nil))
	assert.Nil(t, sess["replay"])
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t, &fakeEngine{})
	w := h.do(http.MethodPost, "/api/auth/login", gin.H{"email": "user@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, h.gate.LoggedIn())
}

func TestExportEndpoint(t *testing.T) {
	h := newHarness(t, &fakeEngine{})
	h.login(t)

	// No analysis yet: the precondition fails.
	w := h.do(http.MethodPost, "/api/export", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK,
		h.do(http.MethodPost, "/api/analyze", gin.H{"url": "https://www.Example.com/Page"}, nil).Code)

	w = h.do(http.MethodPost, "/api/export", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Example.com_Page_analysis_report.pdf")
	assert.Equal(t, "%PDF-1.4", w.Body.String())
}

func TestThemeEndpoint(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	assert.Equal(t, "light", decode(t, h.do(http.MethodGet, "/api/theme", nil, nil))["theme"])

	w := h.do(http.MethodPut, "/api/theme", gin.H{"theme": "dark"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dark", decode(t, h.do(http.MethodGet, "/api/theme", nil, nil))["theme"])
	assert.Equal(t, "dark", h.store.Get(prefs.KeyTheme))

	w = h.do(http.MethodPut, "/api/theme", gin.H{"theme": "neon"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocaleEndpoint(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	w := h.do(http.MethodPut, "/api/locale", gin.H{"locale": "fr"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fr", decode(t, w)["locale"])

	// An unknown locale degrades without an error; the previous dictionary
	// stays active because the fallback fetch fails too.
	w = h.do(http.MethodPut, "/api/locale", gin.H{"locale": "xx"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fr", decode(t, w)["locale"])
}

func TestStatisticsEndpoint(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	require.Equal(t, http.StatusOK,
		h.do(http.MethodPost, "/api/analyze", gin.H{"url": "https://example.com"}, nil).Code)

	w := h.do(http.MethodGet, "/api/statistics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Months []struct {
			Month    string `json:"month"`
			Analyses int    `json:"analyses"`
		} `json:"months"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Months, 1)
	assert.Equal(t, 1, body.Months[0].Analyses)
}

func TestSEORewriteRequiresAuth(t *testing.T) {
	h := newHarness(t, &fakeEngine{})

	w := h.do(http.MethodPost, "/api/seo/rewrite", gin.H{"url": "https://example.com"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	h.login(t)
	w = h.do(http.MethodPost, "/api/seo/rewrite", gin.H{"url": "https://example.com", "title": "Old"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
}
