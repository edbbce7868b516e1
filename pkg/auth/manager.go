// Package auth manages the OAuth2 client-credentials flow against the
// Petfinder token endpoint and tracks credential expiry.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shelterdata/petfinder-collector/pkg/logging"
)

// ErrAuth is returned when the token endpoint rejects the client
// credentials or the response is malformed.
var ErrAuth = errors.New("authentication failed")

// DefaultExpiry is assumed when the token response omits expires_in.
const DefaultExpiry = time.Hour

// Credential is a bearer token with its absolute expiry instant. It is
// owned by the Manager and replaced wholesale on re-authentication.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the credential still has at least leeway of
// validity left. The executor passes a 5 minute leeway so a token never
// expires mid-request.
func (c Credential) Valid(leeway time.Duration) bool {
	if c.AccessToken == "" {
		return false
	}
	return time.Now().Before(c.ExpiresAt.Add(-leeway))
}

// Config holds the Manager configuration.
type Config struct {
	// BaseURL of the API, e.g. "https://api.petfinder.com/v2".
	BaseURL string

	// ClientID and ClientSecret are the API credentials.
	ClientID     string
	ClientSecret string

	// HTTPClient used for the token request. Defaults to a client with a
	// 30s timeout.
	HTTPClient *http.Client
}

// Manager obtains and caches bearer credentials.
type Manager struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       zerolog.Logger

	mu   sync.Mutex
	cred Credential
}

// NewManager creates a credential manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client credentials are required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Manager{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   httpClient,
		logger:       logging.NewLogger("auth"),
	}, nil
}

// tokenResponse is the token endpoint payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Authenticate requests a fresh credential and caches it.
func (m *Manager) Authenticate(ctx context.Context) (Credential, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.baseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: token request: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		m.logger.Error().
			Int("status_code", resp.StatusCode).
			Msg("Token endpoint rejected credentials")
		return Credential{}, fmt.Errorf("%w: token endpoint returned %d: %s",
			ErrAuth, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return Credential{}, fmt.Errorf("%w: decode token response: %v", ErrAuth, err)
	}
	if token.AccessToken == "" {
		return Credential{}, fmt.Errorf("%w: token response missing access_token", ErrAuth)
	}

	expiry := DefaultExpiry
	if token.ExpiresIn > 0 {
		expiry = time.Duration(token.ExpiresIn) * time.Second
	}

	cred := Credential{
		AccessToken: token.AccessToken,
		ExpiresAt:   time.Now().Add(expiry),
	}

	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()

	m.logger.Info().
		Time("expires_at", cred.ExpiresAt).
		Msg("Successfully authenticated")

	return cred, nil
}

// Token returns the currently cached credential. It may be expired; callers
// check Valid and re-authenticate as needed.
func (m *Manager) Token() Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred
}
