package authclient

import (
	"net/http"
	"strings"
)

// Transport attaches a bearer token to requests whose URL contains one of Protected.
// When no token can be acquired the request goes out unauthenticated and the server decides.
type Transport struct {
	Base      http.RoundTripper
	Provider  TokenProvider
	Scopes    []string
	Protected []string // defaults to "/api"
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if !t.needsAuth(req) || req.Header.Get("Authorization") != "" {
		return base.RoundTrip(req)
	}
	token, err := t.Provider.AcquireToken(req.Context(), t.Scopes...)
	if err != nil || token == "" {
		return base.RoundTrip(req)
	}
	authReq := req.Clone(req.Context())
	authReq.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(authReq)
}

func (t *Transport) needsAuth(req *http.Request) bool {
	protected := t.Protected
	if len(protected) == 0 {
		protected = []string{"/api"}
	}
	u := req.URL.String()
	for _, p := range protected {
		if strings.Contains(u, p) {
			return true
		}
	}
	return false
}
