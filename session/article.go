package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/webinsight/dashboard/analysis"
	"github.com/webinsight/dashboard/apperr"
	"github.com/webinsight/dashboard/logging"
	"github.com/webinsight/dashboard/render"
)

// ArticleTimeout bounds one article analysis round trip. AI-backed analysis
// is slower than the website variant.
const ArticleTimeout = 180 * time.Second

// RewriteTimeout bounds one article rewrite round trip.
const RewriteTimeout = 240 * time.Second

// ArticleSession drives the article-analysis variant of the dashboard. The
// engine endpoints it uses require a session token, supplied per call by
// the gate.
type ArticleSession struct {
	engine  analysis.Engine
	loc     Localizer
	logger  logging.Logger
	timeout time.Duration

	mu         sync.Mutex
	status     Status
	lastResult *analysis.ArticleResult
	rewriting  bool
}

// NewArticleSession creates an article session with the default timeout.
func NewArticleSession(engine analysis.Engine, loc Localizer, logger logging.Logger) *ArticleSession {
	return &ArticleSession{
		engine:  engine,
		loc:     loc,
		logger:  logger,
		timeout: ArticleTimeout,
	}
}

// SetTimeout overrides the analysis timeout. Used in tests.
func (s *ArticleSession) SetTimeout(d time.Duration) { s.timeout = d }

// Status returns the current lifecycle status.
func (s *ArticleSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Analyze validates the article text and runs one analysis round trip.
func (s *ArticleSession) Analyze(ctx context.Context, articleText, token string) (render.ArticleView, error) {
	text := strings.TrimSpace(articleText)
	if text == "" {
		return render.ArticleView{}, &apperr.ValidationError{Msg: "empty article text", Key: "pleaseEnterArticle"}
	}

	s.mu.Lock()
	s.status = Loading
	s.lastResult = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.engine.AnalyzeArticle(ctx, text, token)
	if err != nil {
		s.mu.Lock()
		s.status = Error
		s.mu.Unlock()
		s.logger.Warn("article analysis failed", logging.Error(err))
		return render.ArticleView{}, err
	}

	s.mu.Lock()
	s.status = Success
	s.lastResult = res
	s.mu.Unlock()

	return render.RenderArticle(res, s.loc), nil
}

// Rewrite asks the engine to rewrite the article text. The trigger control
// is reported busy while the request is in flight and re-enabled
// unconditionally afterwards.
func (s *ArticleSession) Rewrite(ctx context.Context, articleText, token string) (string, error) {
	text := strings.TrimSpace(articleText)
	if text == "" {
		return "", &apperr.ValidationError{Msg: "empty article text", Key: "pleaseEnterArticle"}
	}

	s.setRewriting(true)
	defer s.setRewriting(false)

	ctx, cancel := context.WithTimeout(ctx, RewriteTimeout)
	defer cancel()

	rewritten, err := s.engine.RewriteArticle(ctx, text, token)
	if err != nil {
		s.logger.Warn("article rewrite failed", logging.Error(err))
		return "", err
	}
	if rewritten == "" {
		return s.loc.T("noRewrittenArticle"), nil
	}
	return rewritten, nil
}

// Rewriting reports whether a rewrite request is in flight.
func (s *ArticleSession) Rewriting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewriting
}

func (s *ArticleSession) setRewriting(v bool) {
	s.mu.Lock()
	s.rewriting = v
	s.mu.Unlock()
}

// Reset returns the session to Idle and discards the cached result.
func (s *ArticleSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Idle
	s.lastResult = nil
}
