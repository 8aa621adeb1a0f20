package authgate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/webinsight/dashboard/apperr"
	"github.com/webinsight/dashboard/logging"
)

// HTTPClient talks to the authentication provider over HTTP.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	logger     logging.Logger
}

// NewHTTPClient creates an auth provider client rooted at baseURL.
func NewHTTPClient(baseURL string, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Error string `json:"error"`
}

// Login exchanges email and password for a session token.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, string, error) {
	var resp sessionResponse
	err := c.post(ctx, "/login", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", "", err
	}
	if resp.Token == "" {
		return "", "", &apperr.AuthError{Reason: apperr.ServerRejected}
	}
	identity := resp.Email
	if identity == "" {
		identity = email
	}
	return resp.Token, identity, nil
}

// Register creates an account. It does not authenticate.
func (c *HTTPClient) Register(ctx context.Context, email, password string) error {
	return c.post(ctx, "/register", credentialsRequest{Email: email, Password: password}, &sessionResponse{})
}

// VerifyIDToken asks the provider to validate a federated id token and
// returns the identity it vouches for.
func (c *HTTPClient) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	var resp sessionResponse
	err := c.post(ctx, "/verify_id_token", map[string]string{"id_token": idToken}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Email, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("auth provider unreachable", logging.String("path", path), logging.Error(err))
		return &apperr.AuthError{Reason: apperr.AuthNetworkFailure, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &apperr.AuthError{Reason: apperr.AuthNetworkFailure, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &apperr.AuthError{Reason: apperr.ServerRejected, Err: err}
	}
	return nil
}

// classifyStatus maps provider HTTP failures to auth reasons. Credential
// problems and conflicts get specific reasons; anything else is a server
// rejection.
func classifyStatus(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusBadRequest:
		return &apperr.AuthError{Reason: apperr.InvalidCredentials, Err: fmt.Errorf("%s", payload.Error)}
	case status == http.StatusConflict:
		return &apperr.AuthError{Reason: apperr.AccountConflict, Err: fmt.Errorf("%s", payload.Error)}
	default:
		return &apperr.AuthError{Reason: apperr.ServerRejected, Err: fmt.Errorf("status %d: %s", status, payload.Error)}
	}
}
