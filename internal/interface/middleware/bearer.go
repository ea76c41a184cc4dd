package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-entra-users/pkg/entra"
	"github.com/oksasatya/go-entra-users/pkg/metrics"
	"github.com/oksasatya/go-entra-users/pkg/response"
)

const CtxClaimsKey = "entra_claims"

// TokenValidator is satisfied by *entra.Validator.
type TokenValidator interface {
	Validate(token string) (*entra.Claims, error)
}

// Bearer requires a valid Entra ID access token in the Authorization header.
// On success the typed claims are stored under CtxClaimsKey and the object id under "userID".
func Bearer(v TokenValidator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticate(c, v, logger)
		if err != nil {
			msg := "invalid access token"
			if errors.Is(err, entra.ErrMissingToken) {
				msg = "missing access token"
			}
			resp := response.Error[any](c, http.StatusUnauthorized, msg, nil)
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalBearer authenticates when a token is present and valid but never rejects the request.
func OptionalBearer(v TokenValidator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := authenticate(c, v, logger); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims set by Bearer or OptionalBearer.
func ClaimsFrom(c *gin.Context) (*entra.Claims, bool) {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*entra.Claims)
	return claims, ok && claims != nil
}

func setClaims(c *gin.Context, claims *entra.Claims) {
	c.Set(CtxClaimsKey, claims)
	c.Set("userID", claims.ObjectID)
}

func authenticate(c *gin.Context, v TokenValidator, logger *logrus.Logger) (*entra.Claims, error) {
	header := c.GetHeader("Authorization")
	logger.WithFields(logrus.Fields{
		"request_id":    c.GetString("request_id"),
		"token_present": header != "",
	}).Debug("bearer message received")

	if v == nil {
		return nil, errors.New("token validator not configured")
	}
	claims, err := v.Validate(entra.BearerToken(header))
	if err != nil {
		if !errors.Is(err, entra.ErrMissingToken) {
			metrics.AuthFailures.WithLabelValues(failureReason(err)).Inc()
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Warn("bearer authentication failed")
		}
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"user":       claims.Username(),
		"claims":     len(claims.Roles) + len(claims.Scopes()),
	}).Debug("bearer token validated")
	return claims, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, entra.ErrInvalidIssuer):
		return "issuer"
	case errors.Is(err, entra.ErrInvalidAudience):
		return "audience"
	default:
		return "token"
	}
}
