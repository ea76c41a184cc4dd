package authclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

var (
	ErrNoActiveAccount     = errors.New("no active account found; log in first")
	ErrTokenUnavailable    = errors.New("could not acquire access token")
	ErrInteractionRequired = errors.New("interaction required")
)

const defaultInstance = "https://login.microsoftonline.com/"

// baseScopes are always requested so the login yields an ID token and a refresh token.
var baseScopes = []string{"openid", "profile", "offline_access"}

// TokenProvider acquires access tokens for the signed-in user.
type TokenProvider interface {
	AcquireToken(ctx context.Context, scopes ...string) (string, error)
	Login(ctx context.Context) (*Account, error)
	Logout(ctx context.Context) error
}

// Interactor performs the interactive step of the authorization code flow:
// it sends the user to authURL and returns the code delivered to the redirect URL.
type Interactor interface {
	Authorize(ctx context.Context, authURL, state string) (code string, err error)
}

type Config struct {
	ClientID    string
	TenantID    string
	Instance    string
	RedirectURL string
	LoginScopes []string // defaults to User.Read
	Endpoint    *oauth2.Endpoint
	HTTPClient  *http.Client
}

// OAuthProvider implements TokenProvider with the authorization code flow and PKCE.
// Tokens are cached per scope set. Silent acquisition uses the cached token, or redeems a
// refresh token of the account for the requested scopes; Entra refresh tokens span resources.
type OAuthProvider struct {
	cfg        Config
	endpoint   oauth2.Endpoint
	interactor Interactor
	store      *Store
	cache      Cache
	logger     *logrus.Logger
	now        func() time.Time

	mu     sync.Mutex
	tokens map[string]*oauth2.Token
}

// NewOAuthProvider restores the cached account, when any, into store.
func NewOAuthProvider(cfg Config, interactor Interactor, store *Store, cache Cache, logger *logrus.Logger) (*OAuthProvider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("authclient: client id is required")
	}
	if cfg.TenantID == "" {
		cfg.TenantID = "common"
	}
	if cfg.Instance == "" {
		cfg.Instance = defaultInstance
	}
	if len(cfg.LoginScopes) == 0 {
		cfg.LoginScopes = []string{"User.Read"}
	}
	if store == nil {
		store = NewStore()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	p := &OAuthProvider{
		cfg:        cfg,
		endpoint:   endpointFor(cfg),
		interactor: interactor,
		store:      store,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
		tokens:     make(map[string]*oauth2.Token),
	}
	if cache != nil {
		snap, err := cache.Load()
		if err != nil {
			logger.WithError(err).Warn("token cache unreadable; starting signed out")
		} else {
			for k, t := range snap.Tokens {
				p.tokens[k] = t
			}
			if snap.Account != nil {
				store.SetAccount(snap.Account)
			}
		}
	}
	return p, nil
}

// endpointFor sends client_id in the form body, as Entra expects from public clients.
func endpointFor(cfg Config) oauth2.Endpoint {
	var ep oauth2.Endpoint
	inst := strings.TrimRight(cfg.Instance, "/") + "/"
	switch {
	case cfg.Endpoint != nil:
		ep = *cfg.Endpoint
	case inst == defaultInstance:
		ep = microsoft.AzureADEndpoint(cfg.TenantID)
	default:
		ep = oauth2.Endpoint{
			AuthURL:  inst + cfg.TenantID + "/oauth2/v2.0/authorize",
			TokenURL: inst + cfg.TenantID + "/oauth2/v2.0/token",
		}
	}
	ep.AuthStyle = oauth2.AuthStyleInParams
	return ep
}

func (p *OAuthProvider) Store() *Store { return p.store }

// Login runs the interactive flow for the login scopes and activates the returned account.
func (p *OAuthProvider) Login(ctx context.Context) (*Account, error) {
	tok, err := p.interactive(ctx, p.cfg.LoginScopes, "")
	if err != nil {
		return nil, err
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return nil, errors.New("authclient: token response has no id_token")
	}
	acct, err := accountFromIDToken(idToken, p.endpoint.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("authclient: id token: %w", err)
	}
	p.store.SetAccount(acct)
	p.persist()
	p.logger.WithField("user", acct.Username).Info("signed in")
	return acct, nil
}

// Logout forgets the account and every cached token.
func (p *OAuthProvider) Logout(ctx context.Context) error {
	p.ClearCache()
	p.store.SetAccount(nil)
	p.persist()
	return nil
}

// AcquireToken returns an access token for scopes: silently when possible, otherwise through
// one interactive attempt. Without an active account it fails with ErrNoActiveAccount.
func (p *OAuthProvider) AcquireToken(ctx context.Context, scopes ...string) (string, error) {
	if len(scopes) == 0 {
		scopes = p.cfg.LoginScopes
	}
	if p.store.Account() == nil {
		return "", ErrNoActiveAccount
	}
	tok, err := p.silent(ctx, scopes, false)
	if err == nil {
		return tok.AccessToken, nil
	}
	p.logger.WithError(err).Debug("silent token acquisition failed; trying interactive")

	tok, err = p.interactive(ctx, scopes, p.store.Account().Username)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}
	return tok.AccessToken, nil
}

// ForceRefresh redeems the refresh token even when the cached access token is still valid.
func (p *OAuthProvider) ForceRefresh(ctx context.Context, scopes ...string) (string, error) {
	if len(scopes) == 0 {
		scopes = p.cfg.LoginScopes
	}
	if p.store.Account() == nil {
		return "", ErrNoActiveAccount
	}
	tok, err := p.silent(ctx, scopes, true)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	return tok.AccessToken, nil
}

// IsTokenExpired reports whether the ID token of the active account has expired.
// No account or no claims counts as expired; claims without exp never expire.
func (p *OAuthProvider) IsTokenExpired() bool {
	acct := p.store.Account()
	if acct == nil || acct.IDTokenClaims == nil {
		return true
	}
	exp, ok := acct.IDTokenClaims["exp"].(float64)
	if !ok {
		return false
	}
	return !p.now().Before(time.Unix(int64(exp), 0))
}

// IsSessionActive is true while an account is signed in.
func (p *OAuthProvider) IsSessionActive() bool {
	return p.store.Account() != nil
}

func (p *OAuthProvider) UserInfo() *UserInfo {
	return p.store.Account().UserInfo()
}

// ClearCache drops every cached token but keeps the account.
func (p *OAuthProvider) ClearCache() {
	p.mu.Lock()
	p.tokens = make(map[string]*oauth2.Token)
	p.mu.Unlock()
	p.persist()
}

func (p *OAuthProvider) silent(ctx context.Context, scopes []string, force bool) (*oauth2.Token, error) {
	key := scopeKey(scopes)
	p.mu.Lock()
	cached := p.tokens[key]
	p.mu.Unlock()
	if cached != nil && !force && cached.Valid() {
		return cached, nil
	}

	var refresh string
	if cached != nil {
		refresh = cached.RefreshToken
	}
	if refresh == "" {
		refresh = p.anyRefreshToken()
	}
	if refresh == "" {
		return nil, ErrInteractionRequired
	}

	tok, err := p.redeem(ctx, scopes, refresh)
	if err != nil {
		return nil, err
	}
	p.keep(key, tok)
	return tok, nil
}

// redeem trades a refresh token for tokens on scopes. The scope parameter is sent explicitly:
// oauth2.TokenSource omits it, and without it Entra only reissues the originally granted scopes.
func (p *OAuthProvider) redeem(ctx context.Context, scopes []string, refresh string) (*oauth2.Token, error) {
	conf := p.oauthConfig(scopes)
	return conf.Exchange(p.clientCtx(ctx), "",
		oauth2.SetAuthURLParam("grant_type", "refresh_token"),
		oauth2.SetAuthURLParam("refresh_token", refresh),
		oauth2.SetAuthURLParam("scope", strings.Join(conf.Scopes, " ")),
	)
}

// anyRefreshToken prefers the login scopes' refresh token, then any other cached one.
func (p *OAuthProvider) anyRefreshToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t := p.tokens[scopeKey(p.cfg.LoginScopes)]; t != nil && t.RefreshToken != "" {
		return t.RefreshToken
	}
	keys := make([]string, 0, len(p.tokens))
	for k := range p.tokens {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if t := p.tokens[k]; t != nil && t.RefreshToken != "" {
			return t.RefreshToken
		}
	}
	return ""
}

func (p *OAuthProvider) interactive(ctx context.Context, scopes []string, loginHint string) (*oauth2.Token, error) {
	if p.interactor == nil {
		return nil, ErrInteractionRequired
	}
	p.store.SetInteraction(true)
	defer p.store.SetInteraction(false)

	conf := p.oauthConfig(scopes)
	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
	if loginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", loginHint))
	} else {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", "select_account"))
	}

	code, err := p.interactor.Authorize(ctx, conf.AuthCodeURL(state, opts...), state)
	if err != nil {
		return nil, err
	}
	tok, err := conf.Exchange(p.clientCtx(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, err
	}
	p.keep(scopeKey(scopes), tok)
	return tok, nil
}

func (p *OAuthProvider) keep(key string, tok *oauth2.Token) {
	p.mu.Lock()
	p.tokens[key] = tok
	p.mu.Unlock()
	p.persist()
}

func (p *OAuthProvider) persist() {
	if p.cache == nil {
		return
	}
	p.mu.Lock()
	snap := &Snapshot{Account: p.store.Account(), Tokens: make(map[string]*oauth2.Token, len(p.tokens))}
	for k, t := range p.tokens {
		snap.Tokens[k] = t
	}
	p.mu.Unlock()
	if err := p.cache.Save(snap); err != nil {
		p.logger.WithError(err).Warn("token cache not saved")
	}
}

func (p *OAuthProvider) oauthConfig(scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    p.cfg.ClientID,
		Endpoint:    p.endpoint,
		RedirectURL: p.cfg.RedirectURL,
		Scopes:      withBaseScopes(scopes),
	}
}

func (p *OAuthProvider) clientCtx(ctx context.Context) context.Context {
	if p.cfg.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.cfg.HTTPClient)
}

func withBaseScopes(scopes []string) []string {
	out := slices.Clone(baseScopes)
	for _, s := range scopes {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// scopeKey is order-insensitive and case-insensitive.
func scopeKey(scopes []string) string {
	norm := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !slices.Contains(norm, s) {
			norm = append(norm, s)
		}
	}
	slices.Sort(norm)
	return strings.Join(norm, " ")
}
