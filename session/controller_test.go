package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webinsight/dashboard/analysis"
	"github.com/webinsight/dashboard/apperr"
	"github.com/webinsight/dashboard/logging"
	"github.com/webinsight/dashboard/session"
)

type echoLoc struct{}

func (echoLoc) T(key string) string { return key }

func intPtr(v int) *int { return &v }

// fakeEngine scripts each engine call for one test.
type fakeEngine struct {
	analyzeFn        func(ctx context.Context, url string) (*analysis.Result, error)
	analyzeArticleFn func(ctx context.Context, text, token string) (*analysis.ArticleResult, error)
	rewriteArticleFn func(ctx context.Context, text, token string) (string, error)
	reportFn         func(ctx context.Context, url string, result *analysis.Result) ([]byte, error)
	calls            int
}

func (f *fakeEngine) Analyze(ctx context.Context, url string) (*analysis.Result, error) {
	f.calls++
	return f.analyzeFn(ctx, url)
}

func (f *fakeEngine) AnalyzeArticle(ctx context.Context, text, token string) (*analysis.ArticleResult, error) {
	f.calls++
	return f.analyzeArticleFn(ctx, text, token)
}

func (f *fakeEngine) RewriteArticle(ctx context.Context, text, token string) (string, error) {
	f.calls++
	return f.rewriteArticleFn(ctx, text, token)
}

func (f *fakeEngine) GenerateReport(ctx context.Context, url string, result *analysis.Result) ([]byte, error) {
	f.calls++
	return f.reportFn(ctx, url, result)
}

func (f *fakeEngine) RewriteSEO(ctx context.Context, req analysis.SEORewriteRequest) (*analysis.SEORewriteResult, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeEngine) RefineContent(ctx context.Context, textSample string) (*analysis.RefinedContent, error) {
	return nil, errors.New("not scripted")
}

func TestAnalyzeSuccess(t *testing.T) {
	engine := &fakeEngine{
		analyzeFn: func(ctx context.Context, url string) (*analysis.Result, error) {
			return &analysis.Result{Scores: analysis.Scores{SEO: intPtr(72)}}, nil
		},
	}
	ctrl := session.NewController(engine, echoLoc{}, logging.NewNop())

	dash, err := ctrl.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, session.Success, ctrl.Status())
	assert.Equal(t, "https://example.com", dash.Source)
	assert.Equal(t, "72", dash.SEO.Badge.Text)

	doc, identifier, ok := ctrl.LastSuccess()
	require.True(t, ok)
	assert.Equal(t, "https://example.com", identifier)
	assert.Equal(t, 72, *doc.Scores.SEO)
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"no scheme", "example.com"},
		{"wrong scheme", "ftp://example.com"},
		{"no host", "https://"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := &fakeEngine{}
			ctrl := session.NewController(engine, echoLoc{}, logging.NewNop())

			_, err := ctrl.Analyze(context.Background(), tc.url)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "invalidUrl", ve.LocaleKey())

			// Validation fails synchronously: no request, no state change.
			assert.Zero(t, engine.calls)
			assert.Equal(t, session.Idle, ctrl.Status())
		})
	}
}

func TestAnalyzeServerError(t *testing.T) {
	engine := &fakeEngine{
		analyzeFn: func(ctx context.Context, url string) (*analysis.Result, error) {
			return nil, &apperr.HTTPError{Status: 500, Message: "Analysis engine overloaded"}
		},
	}
	ctrl := session.NewController(engine, echoLoc{}, logging.NewNop())

	_, err := ctrl.Analyze(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Equal(t, session.Error, ctrl.Status())
	// The engine's own message passes through verbatim.
	assert.Equal(t, "Analysis engine overloaded", ctrl.LastError())
}

func TestAnalyzeNonJSONBody(t *testing.T) {
	engine := &fakeEngine{
		analyzeFn: func(ctx context.Context, url string) (*analysis.Result, error) {
			return nil, &apperr.HTTPError{Status: 502, Message: "<html>Bad Gateway</html>", RawBody: true}
		},
	}
	ctrl := session.NewController(engine, echoLoc{}, logging.NewNop())

	_, err := ctrl.Analyze(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Equal(t, "serverReturnedNonJson (Status: 502): <html>Bad Gateway</html>", ctrl.LastError())
}

func TestAnalyzeTimeout(t *testing.T) {
	engine := &fakeEngine{
		analyzeFn: func(ctx context.Context, url string) (*analysis.Result, error) {
			<-ctx.Done()
			return nil, &apperr.TimeoutError{Op: "analyze"}
		},
	}
	ctrl := session.NewController(engine, echoLoc{}, logging.NewNop())
	ctrl.SetTimeout(1) // nanosecond, expires immediately

	_, err := ctrl.Analyze(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Equal(t, session.Error, ctrl.Status())
	assert.Equal(t, "analysisTimedOut", ctrl.LastError())
}

func TestAnalyzeDropsStaleResult(t *testing.T) {
	failNext := false
	engine := &fakeEngine{}
	engine.analyzeFn = func(ctx context.Context, url string) (*analysis.Result, error) {
		if failNext {
			return nil, &apperr.NetworkError{Op: "analyze", Err: errors.New("connection refused")}
		}
		return &analysis.Result{}, nil
	}
	ctrl := session.NewController(engine, echoLoc{}, logging.NewNop())

	_, err := ctrl.Analyze(context.Background(), "https://first.example.com")
	require.NoError(t, err)
	_, _, ok := ctrl.LastSuccess()
	require.True(t, ok)

	// A new analysis discards the previous result when it starts, so a
	// failure leaves nothing stale behind.
	failNext = true
	_, err = ctrl.Analyze(context.Background(), "https://second.example.com")
	require.Error(t, err)
	_, _, ok = ctrl.LastSuccess()
	assert.False(t, ok)
	assert.Equal(t, "networkError", ctrl.LastError())
}

func TestDashboardRerendersCachedResult(t *testing.T) {
	engine := &fakeEngine{
		analyzeFn: func(ctx context.Context, url string) (*analysis.Result, error) {
			return &analysis.Result{Scores: analysis.Scores{UX: intPtr(55)}}, nil
		},
	}
	ctrl := session.NewController(engine, echoLoc{}, logging.NewNop())

	_, ok := ctrl.Dashboard()
	assert.False(t, ok)

	_, err := ctrl.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)

	dash, ok := ctrl.Dashboard()
	require.True(t, ok)
	assert.Equal(t, "55", dash.UX.Badge.Text)
	// Re-rendering does not hit the engine again.
	assert.Equal(t, 1, engine.calls)
}

func TestReset(t *testing.T) {
	engine := &fakeEngine{
		analyzeFn: func(ctx context.Context, url string) (*analysis.Result, error) {
			return &analysis.Result{}, nil
		},
	}
	ctrl := session.NewController(engine, echoLoc{}, logging.NewNop())

	_, err := ctrl.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)

	ctrl.Reset()
	assert.Equal(t, session.Idle, ctrl.Status())
	_, _, ok := ctrl.LastSuccess()
	assert.False(t, ok)
	assert.Empty(t, ctrl.LastError())
}
