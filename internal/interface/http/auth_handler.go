package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-entra-users/internal/interface/middleware"
	"github.com/oksasatya/go-entra-users/pkg/entra"
	"github.com/oksasatya/go-entra-users/pkg/response"
)

const (
	APIVersion        = "1.0.0"
	headerPreviewSize = 50
)

type AuthHandler struct {
	RequiredScope string
	Logger        *logrus.Logger
}

func NewAuthHandler(requiredScope string, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{RequiredScope: requiredScope, Logger: logger}
}

type PublicStatus struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Version   string    `json:"version"`
}

type TokenInfo struct {
	Issuer     string `json:"issuer"`
	Audience   string `json:"audience"`
	Expiration any    `json:"expiration"`
}

type UserInfo struct {
	IsAuthenticated bool      `json:"isAuthenticated"`
	Username        string    `json:"username"`
	AuthType        string    `json:"authType"`
	Roles           []string  `json:"roles"`
	Timestamp       time.Time `json:"timestamp"`
	TokenInfo       TokenInfo `json:"tokenInfo"`
}

// Public is the anonymous connectivity check.
func (h *AuthHandler) Public(c *gin.Context) {
	response.OK(c, http.StatusOK, PublicStatus{
		Message:   "API is up. Public endpoint reachable.",
		Timestamp: time.Now().UTC(),
		Status:    "healthy",
		Version:   APIVersion,
	}, "ok", nil)
}

// Me returns the identity carried by the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "user not authenticated", nil)
		return
	}

	info := UserInfo{
		IsAuthenticated: true,
		Username:        claims.Username(),
		AuthType:        "Bearer",
		Roles:           claims.Roles,
		Timestamp:       time.Now().UTC(),
		TokenInfo: TokenInfo{
			Issuer:     orNA(claims.Issuer()),
			Audience:   orNA(claims.Audience()),
			Expiration: "N/A",
		},
	}
	if info.Roles == nil {
		info.Roles = []string{}
	}
	if exp := claims.Expiration(); !exp.IsZero() {
		info.TokenInfo.Expiration = exp.Unix()
	}
	response.OK(c, http.StatusOK, info, "authenticated user", nil)
}

// DebugHeaders echoes the request headers and whatever identity was resolved.
func (h *AuthHandler) DebugHeaders(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	claims, authenticated := middleware.ClaimsFrom(c)
	pairs, err := claimPairs(claims)
	if err != nil {
		h.diagnosticsFailed(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{
		"hasAuthorizationHeader": authHeader != "",
		"authorizationHeader":    previewHeader(authHeader),
		"allHeaders":             flattenHeaders(c.Request.Header),
		"userIsAuthenticated":    authenticated,
		"userClaims":             pairs,
		"timestamp":              time.Now().UTC(),
	}, "headers", nil)
}

// DebugAuthTest reports what the gateway made of the token.
func (h *AuthHandler) DebugAuthTest(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	claims, authenticated := middleware.ClaimsFrom(c)
	pairs, err := claimPairs(claims)
	if err != nil {
		h.diagnosticsFailed(c, err)
		return
	}

	data := gin.H{
		"hasAuthorizationHeader": authHeader != "",
		"authorizationHeader":    previewHeader(authHeader),
		"userIsAuthenticated":    authenticated,
		"userAuthenticationType": nil,
		"userName":               nil,
		"userClaims":             pairs,
		"claimsCount":            len(pairs),
		"timestamp":              time.Now().UTC(),
		"tokenDiagnostics": gin.H{
			"audience":         nil,
			"issuer":           nil,
			"scope":            nil,
			"clientId":         nil,
			"hasRequiredScope": false,
		},
	}
	if authenticated {
		data["userAuthenticationType"] = "Bearer"
		data["userName"] = claims.Username()
		data["tokenDiagnostics"] = gin.H{
			"audience":         claims.Audience(),
			"issuer":           claims.Issuer(),
			"scope":            claims.Scope,
			"clientId":         claims.ClientID(),
			"hasRequiredScope": claims.HasScope(h.RequiredScope),
		}
	}
	response.OK(c, http.StatusOK, data, "auth diagnostics", nil)
}

func (h *AuthHandler) diagnosticsFailed(c *gin.Context, err error) {
	h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("auth diagnostics failed")
	response.Fail(c, http.StatusInternalServerError, "diagnostics failed", nil)
}

func claimPairs(claims *entra.Claims) ([]entra.Pair, error) {
	if claims == nil {
		return []entra.Pair{}, nil
	}
	return claims.All()
}

// previewHeader keeps the first 50 characters followed by "...".
func previewHeader(v string) string {
	r := []rune(v)
	if len(r) > headerPreviewSize {
		r = r[:headerPreviewSize]
	}
	return string(r) + "..."
}

// flattenHeaders joins multi-value headers and never echoes a full Authorization value.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		v := strings.Join(vals, ", ")
		if strings.EqualFold(k, "Authorization") {
			v = previewHeader(v)
		}
		out[k] = v
	}
	return out
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
