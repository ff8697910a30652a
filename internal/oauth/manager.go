package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/toolprint/vibekit/internal/errkind"
)

// state is the authenticate() flow's progression. The zero value is
// idle.
type state string

const (
	stateIdle         state = "idle"
	stateAwaitingCode state = "awaiting_code"
	stateExchanging   state = "exchanging"
	stateActive       state = "active"
)

// Endpoint names the authorization-code and token URLs a Manager talks
// to, plus the OAuth client id it authenticates as.
type Endpoint struct {
	AuthorizationURL string
	TokenURL         string
	ClientID         string
	RedirectURI      string
	Scope            string
}

// Manager is a value type, not a package-level facade: callers
// construct one per provider and hold onto it, matching the
// re-architected "class of statics" described for this subsystem.
type Manager struct {
	storage  Storage
	endpoint Endpoint
	client   *http.Client

	mu          sync.Mutex
	flowState   state
	pkce        pkcePair
	expectState string

	group singleflight.Group
}

// New constructs a Manager backed by storage, talking to endpoint.
// httpClient may be nil, in which case http.DefaultClient is used.
func New(storage Storage, endpoint Endpoint, httpClient *http.Client) *Manager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Manager{
		storage:   storage,
		endpoint:  endpoint,
		client:    httpClient,
		flowState: stateIdle,
	}
}

// Authenticate begins the authorization-code-with-PKCE flow, moving
// idle -> awaiting_code, and returns the URL the caller should present
// to the user. There is no browser automation here: the caller is
// responsible for opening authorizationURL and collecting the
// resulting "code#state" pair for ExchangeCode.
func (m *Manager) Authenticate() (authorizationURL string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair, err := newPKCEPair()
	if err != nil {
		return "", err
	}
	st, err := newState()
	if err != nil {
		return "", err
	}

	m.pkce = pair
	m.expectState = st
	m.flowState = stateAwaitingCode

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", m.endpoint.ClientID)
	q.Set("redirect_uri", m.endpoint.RedirectURI)
	q.Set("code_challenge", pair.challenge)
	q.Set("code_challenge_method", "S256")
	q.Set("state", st)
	if m.endpoint.Scope != "" {
		q.Set("scope", m.endpoint.Scope)
	}
	return m.endpoint.AuthorizationURL + "?" + q.Encode(), nil
}

// ExchangeCode completes the flow given the "code#state" pair the
// caller collected after the user authorized the app. A state
// mismatch resets the flow to idle and returns StateMismatch.
func (m *Manager) ExchangeCode(ctx context.Context, codeAndState string) (Token, error) {
	m.mu.Lock()
	if m.flowState != stateAwaitingCode {
		m.mu.Unlock()
		return Token{}, fmt.Errorf("oauth: ExchangeCode called outside awaiting_code state: %w", errkind.StateMismatch)
	}
	code, gotState, ok := strings.Cut(codeAndState, "#")
	if !ok || gotState != m.expectState {
		m.flowState = stateIdle
		m.mu.Unlock()
		return Token{}, fmt.Errorf("oauth: state mismatch: %w", errkind.StateMismatch)
	}
	m.flowState = stateExchanging
	verifier := m.pkce.verifier
	m.mu.Unlock()

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", m.endpoint.RedirectURI)
	form.Set("client_id", m.endpoint.ClientID)
	form.Set("code_verifier", verifier)

	tok, err := m.postForm(ctx, form)
	if err != nil {
		m.mu.Lock()
		m.flowState = stateIdle
		m.mu.Unlock()
		return Token{}, err
	}

	if err := m.storage.Save(tok); err != nil {
		return Token{}, err
	}

	m.mu.Lock()
	m.flowState = stateActive
	m.mu.Unlock()
	return tok, nil
}

// GetValidToken returns the current access token if unexpired, else
// refreshes it using the stored refresh token. At most one refresh is
// in flight at a time; concurrent callers observe the same result.
func (m *Manager) GetValidToken(ctx context.Context) (string, error) {
	tok, err := m.storage.Load()
	if err != nil {
		return "", fmt.Errorf("oauth: %w", errkind.NotAuthenticated)
	}
	if !tok.Expired(time.Now()) {
		return tok.AccessToken, nil
	}
	if tok.RefreshToken == "" {
		return "", fmt.Errorf("oauth: token expired with no refresh token: %w", errkind.NotAuthenticated)
	}

	refreshed, err, _ := m.group.Do(tok.RefreshToken, func() (any, error) {
		return m.RefreshTokenToAccessToken(ctx, tok.RefreshToken)
	})
	if err != nil {
		return "", err
	}
	return refreshed.(Token).AccessToken, nil
}

// RefreshTokenToAccessToken exchanges refreshToken for a new record
// and persists it. Exported for direct use by import/export tooling;
// GetValidToken routes through this with a singleflight guard.
func (m *Manager) RefreshTokenToAccessToken(ctx context.Context, refreshToken string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", m.endpoint.ClientID)

	tok, err := m.postForm(ctx, form)
	if err != nil {
		return Token{}, fmt.Errorf("oauth: refreshing token: %w: %v", errkind.RefreshFailed, err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	if err := m.storage.Save(tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// Logout clears the stored token record and resets the flow state.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.flowState = stateIdle
	m.mu.Unlock()
	return m.storage.Clear()
}

func (m *Manager) postForm(ctx context.Context, form url.Values) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("oauth: token endpoint request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return Token{}, fmt.Errorf("oauth: token endpoint: %s", errResp.Error)
		}
		return Token{}, fmt.Errorf("oauth: token endpoint returned HTTP %d", resp.StatusCode)
	}

	var wire struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    *int64 `json:"expires_in"`
		Scope        string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return Token{}, fmt.Errorf("oauth: decoding token response: %w: %v", errkind.MalformedToken, err)
	}
	if wire.AccessToken == "" {
		return Token{}, fmt.Errorf("oauth: token response missing access_token: %w", errkind.MalformedToken)
	}

	return Token{
		AccessToken:      wire.AccessToken,
		RefreshToken:     wire.RefreshToken,
		TokenType:        wire.TokenType,
		ExpiresInSeconds: wire.ExpiresIn,
		Scope:            wire.Scope,
		IssuedAtMS:       time.Now().UnixMilli(),
	}, nil
}

// ImportFormat names the accepted shapes for Import.
type ImportFormat string

const (
	ImportToken   ImportFormat = "token"
	ImportRefresh ImportFormat = "refresh"
	ImportEnv     ImportFormat = "env"
	ImportFile    ImportFormat = "file"
)

// Import seeds the stored token record from an external source. For
// ImportToken, value is an opaque access token. For ImportRefresh,
// value is a refresh token that is immediately exchanged for a fresh
// access token. For ImportEnv, value names an environment variable
// holding an access token. For ImportFile, value is a path to a JSON
// file containing a Token.
func (m *Manager) Import(ctx context.Context, format ImportFormat, value string) error {
	switch format {
	case ImportToken:
		return m.storage.Save(Token{AccessToken: value, TokenType: "Bearer", IssuedAtMS: time.Now().UnixMilli()})
	case ImportRefresh:
		_, err := m.RefreshTokenToAccessToken(ctx, value)
		return err
	case ImportEnv:
		tok, err := NewEnvStorage(value).Load()
		if err != nil {
			return fmt.Errorf("oauth: importing from env %s: %w", value, err)
		}
		return m.storage.Save(tok)
	case ImportFile:
		tok, err := NewFileStorage(value).Load()
		if err != nil {
			return fmt.Errorf("oauth: importing from file %s: %w", value, err)
		}
		return m.storage.Save(tok)
	default:
		return fmt.Errorf("oauth: unknown import format %q", format)
	}
}

// ExportFormat names the accepted shapes for Export.
type ExportFormat string

const (
	ExportEnv     ExportFormat = "env"
	ExportJSON    ExportFormat = "json"
	ExportFull    ExportFormat = "full"
	ExportRefresh ExportFormat = "refresh"
)

// Export renders the stored token record in the requested shape.
// ExportEnv and ExportRefresh return a bare value suitable for
// `export VAR=...`; ExportJSON and ExportFull return a JSON document,
// the latter including every field, the former just the access token
// and its type.
func (m *Manager) Export(format ExportFormat) (string, error) {
	tok, err := m.storage.Load()
	if err != nil {
		return "", fmt.Errorf("oauth: %w", errkind.NotAuthenticated)
	}
	switch format {
	case ExportEnv:
		return tok.AccessToken, nil
	case ExportRefresh:
		if tok.RefreshToken == "" {
			return "", fmt.Errorf("oauth: no refresh token stored")
		}
		return tok.RefreshToken, nil
	case ExportJSON:
		data, err := json.Marshal(struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		}{tok.AccessToken, tok.TokenType})
		if err != nil {
			return "", err
		}
		return string(data), nil
	case ExportFull:
		data, err := json.Marshal(tok)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("oauth: unknown export format %q", format)
	}
}
