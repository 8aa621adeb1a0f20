// Package locale loads per-language dictionaries from the locale store and
// exposes the active dictionary to the rest of the dashboard. A locale that
// fails to load degrades silently to the default language; locale problems
// never block analysis.
package locale

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/webinsight/dashboard/logging"
	"github.com/webinsight/dashboard/prefs"
)

// DefaultCode is the default language, whose dictionary is compiled in and
// always available.
const DefaultCode = "en"

// Fetcher loads the dictionary for a language code.
type Fetcher interface {
	Fetch(ctx context.Context, code string) (map[string]string, error)
}

// HTTPFetcher fetches dictionaries from GET {base}/locales/{code}.json.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher creates a fetcher against the given locale store base URL.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, code string) (map[string]string, error) {
	url := fmt.Sprintf("%s/locales/%s.json", f.BaseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("locale store returned status %d for %q", resp.StatusCode, code)
	}

	dict := make(map[string]string)
	if err := json.NewDecoder(resp.Body).Decode(&dict); err != nil {
		return nil, fmt.Errorf("decode dictionary for %q: %w", code, err)
	}
	return dict, nil
}

// Translator owns the active dictionary and the preferred-locale preference.
type Translator struct {
	mu      sync.RWMutex
	dict    map[string]string
	code    string
	fetcher Fetcher
	store   *prefs.Store
	logger  logging.Logger
}

// NewTranslator creates a translator seeded with the static default
// dictionary. store may be nil (nothing is persisted then).
func NewTranslator(fetcher Fetcher, store *prefs.Store, logger logging.Logger) *Translator {
	dict := make(map[string]string, len(fallback))
	for k, v := range fallback {
		dict[k] = v
	}
	return &Translator{
		dict:    dict,
		code:    DefaultCode,
		fetcher: fetcher,
		store:   store,
		logger:  logger,
	}
}

// Code returns the active language code.
func (t *Translator) Code() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.code
}

// Restore re-applies the persisted preferred locale, if any.
func (t *Translator) Restore(ctx context.Context) {
	if t.store == nil {
		return
	}
	if code := t.store.Get(prefs.KeyLocale); code != "" && code != t.Code() {
		t.SetLocale(ctx, code)
	}
}

// SetLocale fetches the dictionary for code and makes it active, persisting
// code as the preferred locale. On failure it retries once with the default
// language; if that also fails the previous dictionary stays active and the
// failure is only logged. SetLocale never reports an error to the caller.
func (t *Translator) SetLocale(ctx context.Context, code string) {
	if t.apply(ctx, code) {
		return
	}
	if code != DefaultCode && t.apply(ctx, DefaultCode) {
		return
	}
	t.logger.Warn("locale load failed, keeping previous dictionary",
		logging.String("requested", code))
}

func (t *Translator) apply(ctx context.Context, code string) bool {
	dict, err := t.fetcher.Fetch(ctx, code)
	if err != nil {
		t.logger.Warn("could not load dictionary",
			logging.String("code", code), logging.Error(err))
		return false
	}

	t.mu.Lock()
	t.dict = dict
	t.code = code
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.Set(prefs.KeyLocale, code); err != nil {
			t.logger.Warn("could not persist preferred locale", logging.Error(err))
		}
	}
	t.logger.Info("locale activated", logging.String("code", code))
	return true
}

// T returns the active dictionary's text for key, falling back to the static
// default dictionary, then to the key itself.
func (t *Translator) T(key string) string {
	t.mu.RLock()
	v, ok := t.dict[key]
	t.mu.RUnlock()
	if ok {
		return v
	}
	if v, ok := fallback[key]; ok {
		return v
	}
	return key
}

// Rebind re-binds currently-visible labels to the active dictionary. labels
// maps a label id to its current text, keys maps a label id to its
// dictionary key. Labels whose key is absent from the active dictionary
// retain their previous text.
func (t *Translator) Rebind(labels map[string]string, keys map[string]string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for id, key := range keys {
		if text, ok := t.dict[key]; ok {
			labels[id] = text
		}
	}
}
