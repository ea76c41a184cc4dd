package entra

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the typed view of an Entra ID access token.
type Claims struct {
	jwt.RegisteredClaims

	Name              string   `json:"name,omitempty"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
	UPN               string   `json:"upn,omitempty"`
	Email             string   `json:"email,omitempty"`
	ObjectID          string   `json:"oid,omitempty"`
	TenantID          string   `json:"tid,omitempty"`
	Scope             string   `json:"scp,omitempty"`
	Roles             []string `json:"roles,omitempty"`
	AuthorizedParty   string   `json:"azp,omitempty"`
	AppID             string   `json:"appid,omitempty"`
	Version           string   `json:"ver,omitempty"`

	raw map[string]any
}

// Username prefers the display name, then the sign-in names.
func (c *Claims) Username() string {
	for _, v := range []string{c.Name, c.PreferredUsername, c.UPN, c.Email} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Scopes splits the space separated scp claim.
func (c *Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}

func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes() {
		if s == scope {
			return true
		}
	}
	return false
}

// ClientID is azp for v2 tokens and appid for v1 tokens.
func (c *Claims) ClientID() string {
	if c.AuthorizedParty != "" {
		return c.AuthorizedParty
	}
	return c.AppID
}

func (c *Claims) Issuer() string { return c.RegisteredClaims.Issuer }

// Audience returns the audiences joined by a comma.
func (c *Claims) Audience() string {
	return strings.Join(c.RegisteredClaims.Audience, ",")
}

func (c *Claims) Expiration() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Pair is one claim as a type/value string pair.
type Pair struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// All flattens every claim of the token, sorted by type. Array claims yield one pair per element.
func (c *Claims) All() ([]Pair, error) {
	if c.raw == nil {
		return []Pair{}, nil
	}
	keys := make([]string, 0, len(c.raw))
	for k := range c.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Pair, 0, len(keys))
	for _, k := range keys {
		switch v := c.raw[k].(type) {
		case []any:
			for _, item := range v {
				s, err := claimString(item)
				if err != nil {
					return nil, fmt.Errorf("claim %s: %w", k, err)
				}
				out = append(out, Pair{Type: k, Value: s})
			}
		default:
			s, err := claimString(v)
			if err != nil {
				return nil, fmt.Errorf("claim %s: %w", k, err)
			}
			out = append(out, Pair{Type: k, Value: s})
		}
	}
	return out, nil
}

func claimString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case nil:
		return "", nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
