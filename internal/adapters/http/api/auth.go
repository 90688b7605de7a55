// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is the identity provider that mints the ID tokens the
// API accepts.
const tokenIssuer = "https://access.line.me"

type contextKey string

const userIDKey contextKey = "user_id"

// Verifier validates bearer ID tokens and resolves the caller.
type Verifier struct {
	secret   []byte
	audience string
	issuer   string
}

// VerifierOption customizes a Verifier.
type VerifierOption func(*Verifier)

// WithIssuer overrides the expected token issuer.
func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) {
		if issuer != "" {
			v.issuer = issuer
		}
	}
}

// NewVerifier builds a Verifier for HS256 ID tokens signed with the
// login channel secret and scoped to the login channel id.
func NewVerifier(channelSecret, clientID string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		secret:   []byte(channelSecret),
		audience: clientID,
		issuer:   tokenIssuer,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyIDToken checks the token signature and claims and returns the
// subject user id.
func (v *Verifier) VerifyIDToken(raw string) (string, error) {
	token, err := jwt.Parse(raw,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("verify id token: %w", err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrUnauthorized
	}
	return sub, nil
}

// Require wraps a handler so it only runs for requests carrying a
// valid bearer token; the resolved user id travels on the context.
func (v *Verifier) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
			return
		}
		userID, err := v.VerifyIDToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

// callerID extracts the authenticated user id placed by Require.
func callerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
