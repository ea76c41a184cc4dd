package entra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken    = errors.New("missing bearer token")
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidIssuer   = errors.New("token issuer not allowed")
	ErrInvalidAudience = errors.New("token audience not allowed")
)

// Config describes the Entra ID application the API trusts.
type Config struct {
	Instance  string
	TenantID  string
	ClientID  string
	Audiences []string // defaults to api://{ClientID} and {ClientID}
	Issuers   []string // defaults to the tenant's v1 and v2 issuers
	Leeway    time.Duration

	HTTPClient *http.Client
}

// Validator checks bearer tokens against the tenant's signing keys, issuer and audience.
type Validator struct {
	keyfunc   jwt.Keyfunc
	parser    *jwt.Parser
	issuers   map[string]struct{}
	audiences map[string]struct{}
}

// NewValidator discovers the tenant metadata and starts a JWKS cache that refreshes in the background
// until ctx is done.
func NewValidator(ctx context.Context, cfg Config) (*Validator, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" {
		return nil, errors.New("entra: tenant id and client id are required")
	}
	md, err := DiscoverMetadata(ctx, cfg.HTTPClient, MetadataURL(cfg.Instance, cfg.TenantID))
	if err != nil {
		return nil, err
	}
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{md.JWKSURI})
	if err != nil {
		return nil, fmt.Errorf("entra: jwks %s: %w", md.JWKSURI, err)
	}

	issuers := cfg.Issuers
	if len(issuers) == 0 {
		issuers = append(DefaultIssuers(cfg.Instance, cfg.TenantID), md.Issuer)
	}
	audiences := cfg.Audiences
	if len(audiences) == 0 {
		audiences = DefaultAudiences(cfg.ClientID)
	}
	return NewValidatorWithKeyfunc(kf.Keyfunc, issuers, audiences, cfg.Leeway), nil
}

// NewValidatorWithKeyfunc builds a validator over a caller supplied key source.
func NewValidatorWithKeyfunc(kf jwt.Keyfunc, issuers, audiences []string, leeway time.Duration) *Validator {
	v := &Validator{
		keyfunc:   kf,
		issuers:   make(map[string]struct{}, len(issuers)),
		audiences: make(map[string]struct{}, len(audiences)),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(leeway),
		),
	}
	for _, iss := range issuers {
		if iss != "" {
			v.issuers[iss] = struct{}{}
		}
	}
	for _, aud := range audiences {
		if aud != "" {
			v.audiences[aud] = struct{}{}
		}
	}
	return v
}

// Validate verifies signature, lifetime, issuer and audience and returns the typed claims.
func (v *Validator) Validate(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(token, claims, v.keyfunc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if _, ok := v.issuers[claims.RegisteredClaims.Issuer]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIssuer, claims.RegisteredClaims.Issuer)
	}
	if !v.audienceAllowed(claims.RegisteredClaims.Audience) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAudience, []string(claims.RegisteredClaims.Audience))
	}

	raw, err := v.rawClaims(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims.raw = raw
	return claims, nil
}

func (v *Validator) audienceAllowed(aud jwt.ClaimStrings) bool {
	for _, a := range aud {
		if _, ok := v.audiences[a]; ok {
			return true
		}
	}
	return false
}

// rawClaims decodes the payload segment of an already verified token.
func (v *Validator) rawClaims(token string) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.New("token is malformed")
	}
	payload, err := v.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" when the scheme is not Bearer or the token is empty.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
