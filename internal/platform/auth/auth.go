// Package auth resolves the caller of a progression request from its bearer
// token or the gateway's user header.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/progression-service/internal/platform/apierror"
)

// Mode selects how bearer tokens are checked.
type Mode string

const (
	// ModeClerk verifies Clerk-issued RS256 tokens against a JWKS endpoint.
	ModeClerk Mode = "clerk"
	// ModeNoop skips verification and uses the token itself as the user ID.
	ModeNoop Mode = "noop"
)

// Config selects and parameterizes a Verifier.
type Config struct {
	Mode     Mode
	JWKSURL  string
	Audience string
	Issuer   string
	// HTTPClient fetches JWKS documents; http.DefaultClient when nil.
	HTTPClient *http.Client
}

// Principal is the verified caller of a request.
type Principal struct {
	UserID    string
	SessionID string
	ExpiresAt int64
	Token     string
}

// Verifier turns a bearer token into a Principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// UserHeader is set by the gateway on service-to-service calls.
const UserHeader = "X-User-ID"

var (
	errMissingCredentials = errors.New("missing credentials")
	errMalformedHeader    = errors.New("authorization header must be a bearer token")
)

type principalKey struct{}

// Middleware rejects requests whose credentials the verifier does not accept
// and stores the resolved Principal on the request context. A nil verifier
// lets every request through untouched.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if verifier == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := credentials(r)
			if err != nil {
				unauthorized(w, r, err)
				return
			}
			p, err := verifier.Verify(r.Context(), token)
			if err != nil {
				unauthorized(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// credentials returns the gateway user header when present, else the bearer
// token from Authorization.
func credentials(r *http.Request) (string, error) {
	if id := strings.TrimSpace(r.Header.Get(UserHeader)); id != "" {
		return id, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingCredentials
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", errMalformedHeader
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errMalformedHeader
	}
	return token, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(apierror.ErrorResponse{
		Code:      apierror.CodeUnauthorized,
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the Principal stored by Middleware, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// NewVerifier builds the Verifier for cfg.Mode.
func NewVerifier(cfg Config) (Verifier, error) {
	switch cfg.Mode {
	case ModeClerk:
		return newClerkVerifier(cfg)
	case ModeNoop:
		return devVerifier{}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", cfg.Mode)
	}
}
