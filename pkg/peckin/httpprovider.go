package peckin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/peckin/peckin/backend/go-services/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// ErrSignedOut is returned by AccessToken when no user is signed in.
var ErrSignedOut = errors.New("no user is signed in")

// refreshSkew renews access tokens slightly before they expire.
const refreshSkew = 30 * time.Second

// apiError is a non-2xx response from the backend.
type apiError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

type loginResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    int     `json:"expiresIn"`
	User         UserRef `json:"user"`
}

// HTTPProvider talks to the Peck-In backend auth API. It owns the session
// for the process: the current user, its tokens, and the state listeners.
type HTTPProvider struct {
	transport
	tokens TokenStore
	now    func() time.Time

	mu        sync.Mutex
	user      *UserRef
	access    string
	accessExp time.Time
	refresh   string

	// qmu guards listeners and the delivery queue. Deliveries run outside
	// it, one drainer at a time, in enqueue order.
	qmu       sync.Mutex
	listeners map[uint64]func(*UserRef)
	nextID    uint64
	queue     []delivery
	draining  bool

	refreshGroup singleflight.Group
}

type ProviderOption func(*HTTPProvider)

func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *HTTPProvider) { p.client = c }
}

// WithBaseURL overrides the URL derived from Config.AuthDomain.
func WithBaseURL(u string) ProviderOption {
	return func(p *HTTPProvider) { p.baseURL = u }
}

// WithTokenStore persists the refresh token so Restore can resume the
// session after a restart.
func WithTokenStore(s TokenStore) ProviderOption {
	return func(p *HTTPProvider) { p.tokens = s }
}

func NewHTTPProvider(cfg *Config, opts ...ProviderOption) *HTTPProvider {
	p := &HTTPProvider{
		transport: transport{
			baseURL: cfg.BaseURL(),
			apiKey:  cfg.APIKey,
			client:  &http.Client{Timeout: 15 * time.Second},
		},
		now:       time.Now,
		listeners: map[uint64]func(*UserRef){},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// transport is the JSON-over-HTTP plumbing shared by the provider and the
// document store gateway.
type transport struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func (p *transport) do(ctx context.Context, method, path string, body interface{}, bearer string, out interface{}) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Api-Key", p.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		ae := &apiError{Status: resp.StatusCode}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(b, ae) != nil || ae.Message == "" {
			ae.Message = http.StatusText(resp.StatusCode)
		}
		return ae
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// toAuthError maps backend and transport failures onto AuthError.
func toAuthError(err error) *AuthError {
	var ae *apiError
	if errors.As(err, &ae) {
		return NewAuthError(ae.Code, ae.Message)
	}
	return &AuthError{Kind: AuthUnknown, Code: "auth/network-request-failed", Message: "Network error", Err: err}
}

func (p *HTTPProvider) CreateAccount(ctx context.Context, email, password, displayName string) (*UserRef, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password, "displayName": displayName}
	if err := p.do(ctx, http.MethodPost, "/auth/signup", body, "", &resp); err != nil {
		return nil, toAuthError(err)
	}
	return p.startSession(&resp), nil
}

func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*UserRef, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := p.do(ctx, http.MethodPost, "/auth/login", body, "", &resp); err != nil {
		return nil, toAuthError(err)
	}
	return p.startSession(&resp), nil
}

func (p *HTTPProvider) startSession(resp *loginResponse) *UserRef {
	u := resp.User
	p.mu.Lock()
	p.user = &u
	p.access = resp.AccessToken
	p.accessExp = p.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	p.refresh = resp.RefreshToken
	p.mu.Unlock()
	p.saveRefresh(resp.RefreshToken)
	p.publish()
	return cloneUser(&u)
}

// clearSession drops the local session and returns the tokens it held.
func (p *HTTPProvider) clearSession() (access, refresh string) {
	p.mu.Lock()
	access, refresh = p.access, p.refresh
	p.user, p.access, p.refresh = nil, "", ""
	p.accessExp = time.Time{}
	p.mu.Unlock()
	if p.tokens != nil {
		if err := p.tokens.Clear(); err != nil {
			logger.Warnf("peckin: clear stored session: %v", err)
		}
	}
	p.publish()
	return access, refresh
}

func (p *HTTPProvider) saveRefresh(token string) {
	if p.tokens == nil {
		return
	}
	if err := p.tokens.Save(token); err != nil {
		logger.Warnf("peckin: persist session: %v", err)
	}
}

// SignOut clears the local session first, so listeners see the signed-out
// state even when the backend cannot be reached, then revokes the tokens.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	access, refresh := p.clearSession()
	if refresh == "" {
		return nil
	}
	if err := p.do(ctx, http.MethodPost, "/auth/logout", map[string]string{"refreshToken": refresh}, access, nil); err != nil {
		return toAuthError(err)
	}
	return nil
}

func (p *HTTPProvider) CurrentUser() *UserRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneUser(p.user)
}

// delivery is one state change addressed to a fixed set of listeners.
type delivery struct {
	fns  []func(*UserRef)
	user *UserRef
}

// OnAuthStateChanged registers fn and calls it with the current user, then
// after every change. Listeners may call back into the provider: a change
// made from inside a listener is queued and delivered once the current
// delivery returns.
func (p *HTTPProvider) OnAuthStateChanged(fn func(*UserRef)) func() {
	p.qmu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.queue = append(p.queue, delivery{fns: []func(*UserRef){fn}, user: p.CurrentUser()})
	p.qmu.Unlock()
	p.drain()
	return func() {
		p.qmu.Lock()
		delete(p.listeners, id)
		p.qmu.Unlock()
	}
}

func (p *HTTPProvider) publish() {
	p.qmu.Lock()
	fns := make([]func(*UserRef), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.queue = append(p.queue, delivery{fns: fns, user: p.CurrentUser()})
	p.qmu.Unlock()
	p.drain()
}

// drain delivers queued changes unless another call is already doing so;
// that call picks up whatever was queued behind it.
func (p *HTTPProvider) drain() {
	p.qmu.Lock()
	if p.draining {
		p.qmu.Unlock()
		return
	}
	p.draining = true
	for len(p.queue) > 0 {
		d := p.queue[0]
		p.queue = p.queue[1:]
		p.qmu.Unlock()
		for _, fn := range d.fns {
			fn(cloneUser(d.user))
		}
		p.qmu.Lock()
	}
	p.draining = false
	p.qmu.Unlock()
}

// AccessToken returns a bearer token for the current user, refreshing it
// when it is about to expire. Concurrent callers share one refresh.
func (p *HTTPProvider) AccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.user == nil {
		p.mu.Unlock()
		return "", ErrSignedOut
	}
	if p.access != "" && p.now().Add(refreshSkew).Before(p.accessExp) {
		tok := p.access
		p.mu.Unlock()
		return tok, nil
	}
	refresh := p.refresh
	p.mu.Unlock()

	v, err, _ := p.refreshGroup.Do(refresh, func() (interface{}, error) {
		return p.renew(ctx, refresh)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

func (p *HTTPProvider) renew(ctx context.Context, refresh string) (string, error) {
	var resp refreshResponse
	err := p.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh}, "", &resp)
	if err != nil {
		var ae *apiError
		if errors.As(err, &ae) && ae.Status == http.StatusUnauthorized {
			logger.Infof("peckin: session expired, signing out")
			p.clearSession()
		}
		return "", fmt.Errorf("refresh session: %w", err)
	}
	p.mu.Lock()
	if p.refresh == refresh {
		p.access = resp.AccessToken
		p.accessExp = p.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	p.mu.Unlock()
	return resp.AccessToken, nil
}

// Restore resumes a persisted session, if any. It reports whether a user is
// signed in afterwards. Listeners are notified when a session is resumed.
func (p *HTTPProvider) Restore(ctx context.Context) (bool, error) {
	if p.tokens == nil {
		return false, nil
	}
	refresh, err := p.tokens.Load()
	if err != nil || refresh == "" {
		return false, err
	}
	var resp refreshResponse
	if err := p.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh}, "", &resp); err != nil {
		var ae *apiError
		if errors.As(err, &ae) && ae.Status == http.StatusUnauthorized {
			_ = p.tokens.Clear()
			return false, nil
		}
		return false, fmt.Errorf("restore session: %w", err)
	}
	u, err := userFromToken(resp.AccessToken)
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	p.mu.Lock()
	p.user = u
	p.access = resp.AccessToken
	p.accessExp = p.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	p.refresh = refresh
	p.mu.Unlock()
	p.publish()
	return true, nil
}

// userFromToken reads sub and email from an access token the backend just
// issued over TLS; the signature is the backend's to check.
func userFromToken(raw string) (*UserRef, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("token has no subject")
	}
	email, _ := claims["email"].(string)
	return &UserRef{ID: sub, Email: email}, nil
}
