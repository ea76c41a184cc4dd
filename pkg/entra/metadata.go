package entra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultInstance = "https://login.microsoftonline.com/"

// Metadata is the subset of the OpenID Connect discovery document the validator needs.
type Metadata struct {
	Issuer                string `json:"issuer"`
	JWKSURI               string `json:"jwks_uri"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
}

// MetadataURL returns {instance}{tenant}/v2.0/.well-known/openid-configuration.
func MetadataURL(instance, tenantID string) string {
	if instance == "" {
		instance = DefaultInstance
	}
	if !strings.HasSuffix(instance, "/") {
		instance += "/"
	}
	return instance + tenantID + "/v2.0/.well-known/openid-configuration"
}

// DiscoverMetadata fetches and decodes the tenant's discovery document.
func DiscoverMetadata(ctx context.Context, client *http.Client, url string) (*Metadata, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch openid metadata: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch openid metadata: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var md Metadata
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return nil, fmt.Errorf("decode openid metadata: %w", err)
	}
	if md.JWKSURI == "" {
		return nil, fmt.Errorf("openid metadata at %s has no jwks_uri", url)
	}
	return &md, nil
}

// DefaultIssuers lists the v1 and v2 issuers Entra ID uses for a tenant.
func DefaultIssuers(instance, tenantID string) []string {
	if instance == "" {
		instance = DefaultInstance
	}
	if !strings.HasSuffix(instance, "/") {
		instance += "/"
	}
	return []string{
		"https://sts.windows.net/" + tenantID + "/",
		instance + tenantID + "/v2.0",
	}
}

// DefaultAudiences accepts both the App ID URI and the bare client id.
func DefaultAudiences(clientID string) []string {
	return []string{"api://" + clientID, clientID}
}
