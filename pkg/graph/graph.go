// Package graph reads the signed-in user's profile and tenant directory from Microsoft Graph.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	abstractions "github.com/microsoft/kiota-abstractions-go"
	azauth "github.com/microsoft/kiota-authentication-azure-go"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
	"github.com/microsoftgraph/msgraph-sdk-go/users"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultEndpoint = "https://graph.microsoft.com"

// ProfileScopes are requested together for UserProfile.
var ProfileScopes = []string{"User.Read", "Directory.Read.All", "Group.Read.All", "AuditLog.Read.All"}

// TokenSource is satisfied by authclient.TokenProvider.
type TokenSource interface {
	AcquireToken(ctx context.Context, scopes ...string) (string, error)
}

type User struct {
	ID                 string   `json:"id"`
	DisplayName        string   `json:"displayName"`
	GivenName          string   `json:"givenName"`
	Surname            string   `json:"surname"`
	UserPrincipalName  string   `json:"userPrincipalName"`
	Mail               string   `json:"mail"`
	JobTitle           string   `json:"jobTitle,omitempty"`
	Department         string   `json:"department,omitempty"`
	OfficeLocation     string   `json:"officeLocation,omitempty"`
	BusinessPhones     []string `json:"businessPhones"`
	MobilePhone        string   `json:"mobilePhone,omitempty"`
	PreferredLanguage  string   `json:"preferredLanguage,omitempty"`
	AccountEnabled     bool     `json:"accountEnabled"`
	CreatedDateTime    string   `json:"createdDateTime"`
	LastSignInDateTime string   `json:"lastSignInDateTime,omitempty"`
}

type Group struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"displayName"`
	Description     string   `json:"description,omitempty"`
	GroupTypes      []string `json:"groupTypes"`
	Mail            string   `json:"mail,omitempty"`
	Visibility      string   `json:"visibility,omitempty"`
	CreatedDateTime string   `json:"createdDateTime"`
}

type VerifiedDomain struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsDefault bool   `json:"isDefault"`
	IsInitial bool   `json:"isInitial"`
}

type TenantInfo struct {
	ID                string           `json:"id"`
	DisplayName       string           `json:"displayName"`
	TenantType        string           `json:"tenantType,omitempty"`
	CountryLetterCode string           `json:"countryLetterCode,omitempty"`
	CreatedDateTime   string           `json:"createdDateTime"`
	VerifiedDomains   []VerifiedDomain `json:"verifiedDomains"`
}

type SignInActivity struct {
	LastSignInDateTime               string `json:"lastSignInDateTime,omitempty"`
	LastNonInteractiveSignInDateTime string `json:"lastNonInteractiveSignInDateTime,omitempty"`
	LastSuccessfulSignInDateTime     string `json:"lastSuccessfulSignInDateTime,omitempty"`
}

// Profile aggregates the user with optional tenant data. Optional parts are nil or empty
// when the caller lacks the permission to read them.
type Profile struct {
	User           User            `json:"user"`
	TenantInfo     *TenantInfo     `json:"tenantInfo"`
	Groups         []Group         `json:"groups"`
	SignInActivity *SignInActivity `json:"signInActivity"`
	RecentUsers    []User          `json:"recentUsers"`
}

// APIError is a non-2xx Graph response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph: status %d: %s", e.Status, e.Body)
}

var ErrTenantNotFound = errors.New("graph: organization not found")

// Client reads v1.0 resources through the Graph SDK. The beta sign-in activity is fetched
// with a plain request since the v1.0 SDK has no beta surface.
type Client struct {
	Endpoint string
	Tokens   TokenSource
	HTTP     *http.Client
	Logger   *logrus.Logger

	sdk *msgraphsdk.GraphServiceClient
}

// NewClient builds a Graph client for endpoint. A nil httpClient gives the SDK its default
// middleware pipeline (retries, redirects, compression).
func NewClient(endpoint string, tokens TokenSource, logger *logrus.Logger, httpClient *http.Client) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	endpoint = strings.TrimRight(endpoint, "/")
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("graph: invalid endpoint %q", endpoint)
	}
	hosts := []string{u.Hostname()}
	if u.Host != u.Hostname() {
		hosts = append(hosts, u.Host)
	}

	auth, err := azauth.NewAzureIdentityAuthenticationProviderWithScopesAndValidHosts(credential{tokens}, ProfileScopes, hosts)
	if err != nil {
		return nil, fmt.Errorf("graph: auth provider: %w", err)
	}
	adapter, err := msgraphsdk.NewGraphRequestAdapterWithParseNodeFactoryAndSerializationWriterFactoryAndHttpClient(auth, nil, nil, httpClient)
	if err != nil {
		return nil, fmt.Errorf("graph: request adapter: %w", err)
	}
	sdk := msgraphsdk.NewGraphServiceClient(adapter)
	adapter.SetBaseUrl(endpoint + "/v1.0")

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		Endpoint: endpoint,
		Tokens:   tokens,
		HTTP:     httpClient,
		Logger:   logger,
		sdk:      sdk,
	}, nil
}

// UserProfile loads /me and the optional parts concurrently. Only a /me failure fails the call.
func (c *Client) UserProfile(ctx context.Context) (*Profile, error) {
	token, err := c.Tokens.AcquireToken(ctx, ProfileScopes...)
	if err != nil {
		return nil, err
	}
	ctx = withToken(ctx, token)

	var p Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		me, err := c.sdk.Me().Get(gctx, nil)
		if err != nil {
			return wrap(err)
		}
		p.User = toUser(me)
		return nil
	})
	g.Go(func() error {
		p.Groups = c.memberOf(gctx)
		return nil
	})
	g.Go(func() error {
		t, err := c.tenant(gctx)
		if err != nil {
			c.Logger.WithError(err).Warn("tenant info unavailable")
			return nil
		}
		p.TenantInfo = t
		return nil
	})
	g.Go(func() error {
		p.SignInActivity = c.signInActivity(gctx, token)
		return nil
	})
	g.Go(func() error {
		p.RecentUsers = c.users(gctx, 10)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &p, nil
}

// TenantGroups lists every group of the tenant.
func (c *Client) TenantGroups(ctx context.Context) ([]Group, error) {
	token, err := c.Tokens.AcquireToken(ctx, "Group.Read.All")
	if err != nil {
		return nil, err
	}
	res, err := c.sdk.Groups().Get(withToken(ctx, token), nil)
	if err != nil {
		return nil, wrap(err)
	}
	out := make([]Group, 0, len(res.GetValue()))
	for _, g := range res.GetValue() {
		out = append(out, toGroup(g))
	}
	return out, nil
}

// TenantUsers lists up to top users ordered by display name, retrying unordered when ordering fails.
func (c *Client) TenantUsers(ctx context.Context, top int) ([]User, error) {
	if top <= 0 {
		top = 20
	}
	token, err := c.Tokens.AcquireToken(ctx, "User.Read.All")
	if err != nil {
		return nil, err
	}
	return c.users(withToken(ctx, token), top), nil
}

func (c *Client) memberOf(ctx context.Context) []Group {
	res, err := c.sdk.Me().MemberOf().Get(ctx, nil)
	if err != nil {
		c.Logger.WithError(wrap(err)).Warn("group membership unavailable")
		return []Group{}
	}
	out := []Group{}
	for _, obj := range res.GetValue() {
		// directory roles and administrative units are members too
		if g, ok := obj.(models.Groupable); ok {
			out = append(out, toGroup(g))
		}
	}
	return out
}

func (c *Client) tenant(ctx context.Context) (*TenantInfo, error) {
	res, err := c.sdk.Organization().Get(ctx, nil)
	if err != nil {
		return nil, wrap(err)
	}
	orgs := res.GetValue()
	if len(orgs) == 0 {
		return nil, ErrTenantNotFound
	}
	org := orgs[0]
	t := &TenantInfo{
		ID:                deref(org.GetId()),
		DisplayName:       deref(org.GetDisplayName()),
		TenantType:        deref(org.GetTenantType()),
		CountryLetterCode: deref(org.GetCountryLetterCode()),
		CreatedDateTime:   timestamp(org.GetCreatedDateTime()),
		VerifiedDomains:   []VerifiedDomain{},
	}
	for _, d := range org.GetVerifiedDomains() {
		t.VerifiedDomains = append(t.VerifiedDomains, VerifiedDomain{
			Name:      deref(d.GetName()),
			Type:      deref(d.GetTypeEscaped()),
			IsDefault: deref(d.GetIsDefault()),
			IsInitial: deref(d.GetIsInitial()),
		})
	}
	return t, nil
}

// signInActivity reads the beta /me?$select=signInActivity resource.
func (c *Client) signInActivity(ctx context.Context, token string) *SignInActivity {
	var res struct {
		SignInActivity *SignInActivity `json:"signInActivity"`
	}
	if err := c.getBeta(ctx, token, "/me?$select=signInActivity", &res); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden {
			c.Logger.Warn("sign-in activity unavailable: insufficient permissions")
		} else {
			c.Logger.WithError(err).Warn("sign-in activity unavailable")
		}
		return &SignInActivity{}
	}
	if res.SignInActivity == nil {
		return &SignInActivity{}
	}
	return res.SignInActivity
}

func (c *Client) users(ctx context.Context, top int) []User {
	n := int32(top)
	ordered := &users.UsersRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.UsersRequestBuilderGetQueryParameters{Top: &n, Orderby: []string{"displayName"}},
	}
	res, err := c.sdk.Users().Get(ctx, ordered)
	if err != nil {
		c.Logger.WithError(wrap(err)).Warn("ordered user listing failed; retrying unordered")
		plain := &users.UsersRequestBuilderGetRequestConfiguration{
			QueryParameters: &users.UsersRequestBuilderGetQueryParameters{Top: &n},
		}
		if res, err = c.sdk.Users().Get(ctx, plain); err != nil {
			c.Logger.WithError(wrap(err)).Warn("tenant users unavailable")
			return []User{}
		}
	}
	out := make([]User, 0, len(res.GetValue()))
	for _, u := range res.GetValue() {
		out = append(out, toUser(u))
	}
	return out
}

func (c *Client) getBeta(ctx context.Context, token, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/beta"+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// wrap turns SDK failures carrying an HTTP status into *APIError.
func wrap(err error) error {
	var odata *odataerrors.ODataError
	if errors.As(err, &odata) {
		msg := odata.Error()
		if main := odata.GetErrorEscaped(); main != nil && main.GetMessage() != nil {
			msg = *main.GetMessage()
		}
		return &APIError{Status: odata.ResponseStatusCode, Body: msg}
	}
	var api *abstractions.ApiError
	if errors.As(err, &api) {
		return &APIError{Status: api.ResponseStatusCode, Body: api.Message}
	}
	return err
}

func toUser(u models.Userable) User {
	out := User{
		ID:                deref(u.GetId()),
		DisplayName:       deref(u.GetDisplayName()),
		GivenName:         deref(u.GetGivenName()),
		Surname:           deref(u.GetSurname()),
		UserPrincipalName: deref(u.GetUserPrincipalName()),
		Mail:              deref(u.GetMail()),
		JobTitle:          deref(u.GetJobTitle()),
		Department:        deref(u.GetDepartment()),
		OfficeLocation:    deref(u.GetOfficeLocation()),
		BusinessPhones:    nonNil(u.GetBusinessPhones()),
		MobilePhone:       deref(u.GetMobilePhone()),
		PreferredLanguage: deref(u.GetPreferredLanguage()),
		AccountEnabled:    deref(u.GetAccountEnabled()),
		CreatedDateTime:   timestamp(u.GetCreatedDateTime()),
	}
	if sa := u.GetSignInActivity(); sa != nil {
		out.LastSignInDateTime = timestamp(sa.GetLastSignInDateTime())
	}
	return out
}

func toGroup(g models.Groupable) Group {
	return Group{
		ID:              deref(g.GetId()),
		DisplayName:     deref(g.GetDisplayName()),
		Description:     deref(g.GetDescription()),
		GroupTypes:      nonNil(g.GetGroupTypes()),
		Mail:            deref(g.GetMail()),
		Visibility:      deref(g.GetVisibility()),
		CreatedDateTime: timestamp(g.GetCreatedDateTime()),
	}
}

// credential hands the SDK the token already acquired for the call; outside a call it asks
// the token source for the scopes the SDK requests.
type credential struct {
	src TokenSource
}

type tokenKey struct{}

func withToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func (c credential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if tok, ok := ctx.Value(tokenKey{}).(string); ok && tok != "" {
		return azcore.AccessToken{Token: tok, ExpiresOn: time.Now().Add(5 * time.Minute)}, nil
	}
	tok, err := c.src.AcquireToken(ctx, opts.Scopes...)
	if err != nil {
		return azcore.AccessToken{}, err
	}
	return azcore.AccessToken{Token: tok, ExpiresOn: time.Now().Add(5 * time.Minute)}, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func timestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
