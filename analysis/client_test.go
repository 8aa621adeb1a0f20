package analysis_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webinsight/dashboard/analysis"
	"github.com/webinsight/dashboard/apperr"
	"github.com/webinsight/dashboard/logging"
)

func newClient(t *testing.T, srv *httptest.Server) *analysis.Client {
	t.Helper()
	return analysis.NewClient(srv.URL, func() string { return "fr" }, logging.NewNop())
}

func TestClientAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analyze", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		// The active locale rides along so the engine can localize.
		assert.Equal(t, "fr", r.Header.Get("Accept-Language"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://example.com", req["url"])

		w.Write([]byte(`{
			"scores": {"seo": 82, "speed": 45},
			"page_speed": {"metrics": {"LCP": "2.1 s", "CLS": "0.02"}}
		}`))
	}))
	defer srv.Close()

	result, err := newClient(t, srv).Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, 82, *result.Scores.SEO)
	assert.Nil(t, result.Scores.UX)
	require.NotNil(t, result.PageSpeed)
	assert.Equal(t, []string{"LCP", "CLS"}, result.PageSpeed.Metrics.Keys)
}

func TestClientAnalyzeArticleSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analyze_article_content", r.URL.Path)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"structure_suggestions": "Split it up."}`))
	}))
	defer srv.Close()

	result, err := newClient(t, srv).AnalyzeArticle(context.Background(), "body text", "session-token")
	require.NoError(t, err)
	require.NotNil(t, result.StructureSuggestions)
	assert.Equal(t, "Split it up.", *result.StructureSuggestions)
}

func TestClientServerErrorWithJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Analysis engine overloaded"}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv).Analyze(context.Background(), "https://example.com")

	var he *apperr.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	assert.Equal(t, "Analysis engine overloaded", he.Message)
	assert.False(t, he.RawBody)
}

func TestClientServerErrorWithRawBody(t *testing.T) {
	long := strings.Repeat("x", 300)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(long))
	}))
	defer srv.Close()

	_, err := newClient(t, srv).Analyze(context.Background(), "https://example.com")

	var he *apperr.HTTPError
	require.ErrorAs(t, err, &he)
	assert.True(t, he.RawBody)
	assert.Equal(t, http.StatusBadGateway, he.Status)
	// The body is truncated to keep error surfaces readable.
	assert.Equal(t, strings.Repeat("x", 100)+"...", he.Message)
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newClient(t, srv).Analyze(ctx, "https://example.com")

	var te *apperr.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "analyze", te.Op)
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := analysis.NewClient(srv.URL, nil, logging.NewNop()).Analyze(context.Background(), "https://example.com")

	var ne *apperr.NetworkError
	require.ErrorAs(t, err, &ne)
}

func TestClientGenerateReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate_report", r.URL.Path)

		var req struct {
			URL     string           `json:"url"`
			Results *analysis.Result `json:"results"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://example.com", req.URL)
		require.NotNil(t, req.Results)

		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 report"))
	}))
	defer srv.Close()

	data, err := newClient(t, srv).GenerateReport(context.Background(), "https://example.com", &analysis.Result{})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 report"), data)
}

func TestClientRewriteSEO(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ai_rewrite_seo", r.URL.Path)
		w.Write([]byte(`{"titles": ["Better title"], "meta_descriptions": ["Better description"]}`))
	}))
	defer srv.Close()

	result, err := newClient(t, srv).RewriteSEO(context.Background(), analysis.SEORewriteRequest{
		URL:   "https://example.com",
		Title: "Old title",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Better title"}, result.Titles)
}
