package identity

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/visamate/visamate/internal/apperr"
)

// Claims are the bearer token claims the API reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens signed with a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier. An empty secret yields nil, which
// Middleware treats as authentication disabled.
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		return nil
	}
	return &Verifier{secret: []byte(secret)}
}

// Issue signs a token for subject valid for ttl.
func (v *Verifier) Issue(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	return s, eris.Wrap(err, "identity: sign token")
}

// Verify parses token and returns its claims. Tokens must be HS256, carry a
// subject and an expiry in the future.
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, apperr.Unauthorized("verify token", err.Error())
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthorized("verify token", "token has no subject")
	}
	return claims, nil
}

type claimsKey struct{}

// ClaimsFrom returns the verified claims stored on ctx by Middleware.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// UserID returns the verified subject on ctx, or "" when unauthenticated.
func UserID(ctx context.Context) string {
	if c, ok := ClaimsFrom(ctx); ok {
		return c.Subject
	}
	return ""
}

// Middleware rejects requests without a valid bearer token. A nil Verifier
// lets every request through.
func (v *Verifier) Middleware(onError func(http.ResponseWriter, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				onError(w, apperr.Unauthorized("authenticate", "missing bearer token"))
				return
			}
			claims, err := v.Verify(raw)
			if err != nil {
				zap.L().Debug("rejected bearer token", zap.String("path", r.URL.Path), zap.Error(err))
				onError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
