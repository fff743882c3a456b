package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/akarpovs/authflow/internal/client/models"
	"github.com/akarpovs/authflow/internal/logging"
)

const (
	defaultAccountsEndpoint = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenEndpoint    = "https://securetoken.googleapis.com/v1"

	// refreshLeeway is how long before token expiry a refresh is attempted.
	refreshLeeway = 2 * time.Minute

	// refreshRetryInterval is the delay before retrying a refresh that failed
	// at the transport level. Transport failures keep the session alive: a
	// network blip is not a sign-out.
	refreshRetryInterval = 30 * time.Second

	refreshCallTimeout = 15 * time.Second
)

// RESTConfig carries the connection parameters for a hosted identity API.
type RESTConfig struct {
	APIKey   string
	TenantID string // optional, forwarded on account operations when set

	// AccountsEndpoint and TokenEndpoint override the hosted API locations,
	// mainly for tests and emulators.
	AccountsEndpoint string
	TokenEndpoint    string

	HTTPClient *http.Client
	Logger     logging.Logger
}

// REST talks to an identity-toolkit style HTTP API: accounts:signUp,
// accounts:signInWithPassword, accounts:update for account operations, and a
// secure-token endpoint for refresh.
//
// It keeps the current session's tokens and runs a refresh timer against the
// token endpoint. A refresh rejected by the provider (revoked or expired
// refresh token, disabled account) drops the session and notifies watchers
// with nil; this is the out-of-band session-change source.
type REST struct {
	apiKey      string
	tenantID    string
	accountsURL string
	tokenURL    string
	hc          *http.Client
	log         logging.Logger
	hub         *watchHub

	// retryInterval is refreshRetryInterval in production; tests shorten it
	// to observe the retry without waiting.
	retryInterval time.Duration

	mu     sync.Mutex
	sess   *restSession // nil when signed out
	timer  *time.Timer
	closed bool
}

type restSession struct {
	identity     models.Identity
	idToken      string
	refreshToken string
	expiresAt    time.Time
}

func NewREST(cfg RESTConfig) *REST {
	p := &REST{
		apiKey:        cfg.APIKey,
		tenantID:      cfg.TenantID,
		accountsURL:   cfg.AccountsEndpoint,
		tokenURL:      cfg.TokenEndpoint,
		hc:            cfg.HTTPClient,
		log:           cfg.Logger,
		hub:           newWatchHub(),
		retryInterval: refreshRetryInterval,
	}
	if p.accountsURL == "" {
		p.accountsURL = defaultAccountsEndpoint
	}
	if p.tokenURL == "" {
		p.tokenURL = defaultTokenEndpoint
	}
	if p.hc == nil {
		p.hc = &http.Client{Timeout: 30 * time.Second}
	}
	if p.log == nil {
		p.log = logging.NewDefault()
	}
	return p
}

// signInResponse is the shared shape of signUp / signInWithPassword / update
// responses. ExpiresIn is a decimal string of seconds.
type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// apiErrorResponse is the error envelope returned by the accounts API. The
// message field carries the error code, optionally followed by a colon and
// human-readable detail ("WEAK_PASSWORD : Password should be ...").
type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *REST) call(ctx context.Context, action string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrTransport, err)
	}

	endpoint := fmt.Sprintf("%s/accounts:%s?key=%s", p.accountsURL, action, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var envelope apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Message == "" {
		return fmt.Errorf("%w: http %d", ErrTransport, resp.StatusCode)
	}
	code, detail := splitErrorMessage(envelope.Error.Message)
	return &APIError{Code: code, Message: detail}
}

// splitErrorMessage separates the machine code from the optional detail in an
// accounts API error message.
func splitErrorMessage(msg string) (code, detail string) {
	code, detail, found := strings.Cut(msg, ":")
	code = strings.TrimSpace(code)
	if !found {
		return code, ""
	}
	return code, strings.TrimSpace(detail)
}

func (p *REST) Register(ctx context.Context, email, password string) (*models.Identity, error) {
	payload := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	if p.tenantID != "" {
		payload["tenantId"] = p.tenantID
	}
	var out signInResponse
	if err := p.call(ctx, "signUp", payload, &out); err != nil {
		return nil, err
	}
	return p.establish(&out, email), nil
}

func (p *REST) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	payload := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	if p.tenantID != "" {
		payload["tenantId"] = p.tenantID
	}
	var out signInResponse
	if err := p.call(ctx, "signInWithPassword", payload, &out); err != nil {
		return nil, err
	}
	return p.establish(&out, email), nil
}

func (p *REST) UpdateDisplayName(ctx context.Context, displayName string) error {
	p.mu.Lock()
	sess := p.sess
	p.mu.Unlock()
	if sess == nil {
		return ErrNoSession
	}

	payload := map[string]any{"idToken": sess.idToken, "displayName": displayName, "returnSecureToken": false}
	if err := p.call(ctx, "update", payload, nil); err != nil {
		return err
	}

	p.mu.Lock()
	if p.sess == nil {
		p.mu.Unlock()
		return nil
	}
	identity := p.sess.identity
	identity.DisplayName = displayName
	p.sess.identity = identity
	p.mu.Unlock()

	p.hub.publish(&identity)
	return nil
}

// InvalidateSession drops the session locally. The hosted API has no
// sign-out call: the refresh token simply stops being used.
func (p *REST) InvalidateSession(ctx context.Context) error {
	p.mu.Lock()
	hadSession := p.sess != nil
	p.sess = nil
	p.stopTimerLocked()
	p.mu.Unlock()

	if hadSession {
		p.hub.publish(nil)
	}
	return nil
}

func (p *REST) Watch(listener func(*models.Identity)) func() {
	return p.hub.add(listener)
}

func (p *REST) Close() error {
	p.mu.Lock()
	p.closed = true
	p.stopTimerLocked()
	p.mu.Unlock()
	return nil
}

// establish records the session carried by an auth response, schedules the
// refresh timer and notifies watchers. The response wins over token claims;
// claims fill gaps and supply the authoritative expiry.
func (p *REST) establish(out *signInResponse, fallbackEmail string) *models.Identity {
	identity := models.Identity{ID: out.LocalID, Email: out.Email, DisplayName: out.DisplayName}
	if identity.Email == "" {
		identity.Email = fallbackEmail
	}

	expiresAt := time.Time{}
	if secs, err := strconv.Atoi(out.ExpiresIn); err == nil {
		expiresAt = time.Now().Add(time.Duration(secs) * time.Second)
	}
	if tc, err := parseIDToken(out.IDToken); err == nil {
		if identity.ID == "" {
			identity.ID = tc.UserID
		}
		if identity.Email == "" {
			identity.Email = tc.Email
		}
		if identity.DisplayName == "" {
			identity.DisplayName = tc.Name
		}
		if !tc.Expiry.IsZero() {
			expiresAt = tc.Expiry
		}
	}

	p.mu.Lock()
	p.sess = &restSession{
		identity:     identity,
		idToken:      out.IDToken,
		refreshToken: out.RefreshToken,
		expiresAt:    expiresAt,
	}
	if !expiresAt.IsZero() {
		p.scheduleRefreshLocked(time.Until(expiresAt) - refreshLeeway)
	}
	p.mu.Unlock()

	p.hub.publish(&identity)
	result := identity
	return &result
}

func (p *REST) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *REST) scheduleRefreshLocked(d time.Duration) {
	if p.closed {
		return
	}
	if d < 0 {
		d = 0
	}
	p.stopTimerLocked()
	p.timer = time.AfterFunc(d, p.refresh)
}

// tokenResponse is the secure-token endpoint's refresh response.
type tokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// refresh exchanges the refresh token for fresh credentials. Rejection by the
// provider means the session is gone (revoked, expired, account disabled):
// the session is dropped and watchers are told. Transport failures are
// retried while keeping the session.
func (p *REST) refresh() {
	p.mu.Lock()
	if p.closed || p.sess == nil {
		p.mu.Unlock()
		return
	}
	refreshToken := p.sess.refreshToken
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), refreshCallTimeout)
	defer cancel()

	out, err := p.exchangeRefreshToken(ctx, refreshToken)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			p.log.Info(ctx, "session invalidated by provider", "code", apiErr.Code)
			p.mu.Lock()
			p.sess = nil
			p.stopTimerLocked()
			p.mu.Unlock()
			p.hub.publish(nil)
			return
		}
		p.log.Warn(ctx, "token refresh failed, will retry", "err", err)
		p.mu.Lock()
		if p.sess != nil {
			p.scheduleRefreshLocked(p.retryInterval)
		}
		p.mu.Unlock()
		return
	}

	expiresAt := time.Time{}
	if secs, err := strconv.Atoi(out.ExpiresIn); err == nil {
		expiresAt = time.Now().Add(time.Duration(secs) * time.Second)
	}

	p.mu.Lock()
	if p.sess != nil {
		p.sess.idToken = out.IDToken
		if out.RefreshToken != "" {
			p.sess.refreshToken = out.RefreshToken
		}
		p.sess.expiresAt = expiresAt
		if !expiresAt.IsZero() {
			p.scheduleRefreshLocked(time.Until(expiresAt) - refreshLeeway)
		}
	}
	p.mu.Unlock()
	p.log.Debug(ctx, "session tokens refreshed")
}

func (p *REST) exchangeRefreshToken(ctx context.Context, refreshToken string) (*tokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	endpoint := fmt.Sprintf("%s/token?key=%s", p.tokenURL, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}
	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return &out, nil
}
