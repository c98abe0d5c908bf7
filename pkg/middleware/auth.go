package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

type claimsKey struct{}

// Claims holds the identity asserted by a verified bearer token.
type Claims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Issuer  string `json:"iss"`
}

// ClaimsFrom returns the verified claims stored on the request context, if any.
func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}

// TokenVerifier verifies a raw bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (Claims, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier creates a verifier backed by the issuer's remote JWKS.
// Keys are fetched lazily on first verification.
func NewOIDCVerifier(ctx context.Context, cfg *AuthConfig) TokenVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
	return &oidcVerifier{
		verifier: oidc.NewVerifier(cfg.Issuer, keySet, &oidc.Config{
			ClientID: cfg.Audience,
		}),
	}
}

func (v *oidcVerifier) Verify(ctx context.Context, raw string) (Claims, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return Claims{}, err
	}

	var claims Claims
	if err := token.Claims(&claims); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// Auth returns middleware that requires a valid bearer token on every request.
// Passes through when disabled. Verified claims are stored on the request context.
func Auth(cfg *AuthConfig, verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				logger.Warn("token verification failed", "error", err, "uri", r.URL.RequestURI())
				unauthorized(w)
				return
			}

			if len(cfg.AllowedEmails) > 0 && !contains(cfg.AllowedEmails, claims.Email) {
				logger.Warn("token principal not allowed", "email", claims.Email)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"forbidden"}`))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized"}`))
}
