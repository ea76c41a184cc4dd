package authclient

import (
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Account is the signed-in identity, built from the ID token of the last interactive login.
type Account struct {
	LocalAccountID string         `json:"localAccountId"`
	HomeAccountID  string         `json:"homeAccountId"`
	Username       string         `json:"username"`
	Name           string         `json:"name"`
	TenantID       string         `json:"tenantId"`
	Environment    string         `json:"environment"`
	IDTokenClaims  map[string]any `json:"idTokenClaims,omitempty"`
}

// UserInfo is the display view of an Account.
type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	DisplayName   string `json:"displayName"`
	TenantID      string `json:"tenantId,omitempty"`
	Environment   string `json:"environment,omitempty"`
	HomeAccountID string `json:"homeAccountId,omitempty"`
}

func (a *Account) UserInfo() *UserInfo {
	if a == nil {
		return nil
	}
	id := a.LocalAccountID
	if id == "" {
		id = a.HomeAccountID
	}
	name := firstNonEmpty(a.Name, a.Username)
	return &UserInfo{
		ID:            id,
		Email:         a.Username,
		Name:          name,
		DisplayName:   firstNonEmpty(name, "Usuario"),
		TenantID:      a.TenantID,
		Environment:   a.Environment,
		HomeAccountID: a.HomeAccountID,
	}
}

// accountFromIDToken reads the ID token claims without verifying the signature.
// The token came straight from the token endpoint over TLS.
func accountFromIDToken(idToken, authURL string) (*Account, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, err
	}
	str := func(k string) string {
		s, _ := claims[k].(string)
		return s
	}
	oid := firstNonEmpty(str("oid"), str("sub"))
	tid := str("tid")
	home := oid
	if tid != "" {
		home = oid + "." + tid
	}
	env := ""
	if u, err := url.Parse(authURL); err == nil {
		env = u.Host
	}
	return &Account{
		LocalAccountID: oid,
		HomeAccountID:  home,
		Username:       firstNonEmpty(str("preferred_username"), str("upn"), str("email")),
		Name:           str("name"),
		TenantID:       tid,
		Environment:    env,
		IDTokenClaims:  claims,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
