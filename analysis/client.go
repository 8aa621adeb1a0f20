package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/webinsight/dashboard/apperr"
	"github.com/webinsight/dashboard/logging"
)

// maxErrorBody bounds how much of a non-JSON error body is kept for the
// user-facing message.
const maxErrorBody = 100

// Engine is the client interface over the remote analysis engine. The
// session controller and export orchestrator consume this interface; Client
// is the HTTP implementation.
type Engine interface {
	Analyze(ctx context.Context, url string) (*Result, error)
	AnalyzeArticle(ctx context.Context, articleText, token string) (*ArticleResult, error)
	RewriteArticle(ctx context.Context, articleText, token string) (string, error)
	GenerateReport(ctx context.Context, url string, result *Result) ([]byte, error)
	RewriteSEO(ctx context.Context, req SEORewriteRequest) (*SEORewriteResult, error)
	RefineContent(ctx context.Context, textSample string) (*RefinedContent, error)
}

// Client talks to the analysis engine over HTTP. Request deadlines come from
// the caller's context; the transport is tuned for connection reuse.
type Client struct {
	httpClient *http.Client
	baseURL    string
	lang       func() string
	logger     logging.Logger
}

// NewClient creates an engine client. lang supplies the current locale code
// for the Accept-Language header on every request; it may be nil.
func NewClient(baseURL string, lang func() string, logger logging.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		httpClient: &http.Client{Transport: transport},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		lang:       lang,
		logger:     logger,
	}
}

// Analyze submits a URL for analysis and decodes the result document.
func (c *Client) Analyze(ctx context.Context, url string) (*Result, error) {
	var result Result
	err := c.post(ctx, "analyze", "/analyze", "", map[string]string{"url": url}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeArticle submits article text for analysis. Requires a session token.
func (c *Client) AnalyzeArticle(ctx context.Context, articleText, token string) (*ArticleResult, error) {
	var result ArticleResult
	err := c.post(ctx, "analyze_article", "/analyze_article_content", token,
		map[string]string{"article_text": articleText}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RewriteArticle asks the engine to rewrite article text. Requires a session
// token.
func (c *Client) RewriteArticle(ctx context.Context, articleText, token string) (string, error) {
	var result struct {
		RewrittenContent string `json:"rewritten_content"`
	}
	err := c.post(ctx, "rewrite_article", "/rewrite_article", token,
		map[string]string{"article_text": articleText}, &result)
	if err != nil {
		return "", err
	}
	return result.RewrittenContent, nil
}

// GenerateReport submits the analyzed URL and its cached result document and
// returns the PDF bytes.
func (c *Client) GenerateReport(ctx context.Context, url string, result *Result) ([]byte, error) {
	payload := struct {
		URL     string  `json:"url"`
		Results *Result `json:"results"`
	}{URL: url, Results: result}

	resp, err := c.send(ctx, "generate_report", "/generate_report", "", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.NetworkError{Op: "generate_report", Err: err}
	}
	return data, nil
}

// RewriteSEO requests AI rewrites for the title and meta description.
func (c *Client) RewriteSEO(ctx context.Context, req SEORewriteRequest) (*SEORewriteResult, error) {
	var result SEORewriteResult
	if err := c.post(ctx, "ai_rewrite_seo", "/ai_rewrite_seo", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RefineContent requests an AI refinement of the extracted text sample.
func (c *Client) RefineContent(ctx context.Context, textSample string) (*RefinedContent, error) {
	var result RefinedContent
	err := c.post(ctx, "ai_refine_content", "/ai_refine_content",
		"", map[string]string{"text_sample": textSample}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, op, path, token string, payload, out any) error {
	resp, err := c.send(ctx, op, path, token, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperr.HTTPError{Status: resp.StatusCode, Message: "unparseable response body", RawBody: true}
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, path, token string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.lang != nil {
		req.Header.Set("Accept-Language", c.lang())
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("engine request timed out", logging.String("op", op))
			return nil, &apperr.TimeoutError{Op: op}
		}
		c.logger.Warn("engine request failed", logging.String("op", op), logging.Error(err))
		return nil, &apperr.NetworkError{Op: op, Err: err}
	}
	return resp, nil
}

// statusError converts a non-2xx response into an HTTPError, preferring the
// server-localized {error} message when the body is parseable JSON.
func (c *Client) statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return &apperr.HTTPError{Status: resp.StatusCode, Message: body.Error}
	}

	truncated := strings.TrimSpace(string(raw))
	if len(truncated) > maxErrorBody {
		truncated = truncated[:maxErrorBody] + "..."
	}
	return &apperr.HTTPError{Status: resp.StatusCode, Message: truncated, RawBody: true}
}
