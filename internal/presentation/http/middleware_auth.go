package httppresentation

import (
	"context"
	"errors"
	"net/http"
	"strings"

	appaccount "github.com/Zhima-Mochi/shophub/internal/application/account"
	domaccount "github.com/Zhima-Mochi/shophub/internal/domain/account"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	"github.com/Zhima-Mochi/shophub/internal/observability/logctx"
)

// Authenticator verifies bearer tokens for one principal kind.
type Authenticator interface {
	Authenticate(token string, kind domaccount.Kind) (domaccount.Principal, error)
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p domaccount.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// principalFrom returns the authenticated caller, if any.
func principalFrom(ctx context.Context) (domaccount.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domaccount.Principal)
	return p, ok
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// requireAuth rejects requests without a valid token of the given kind.
func (h *Handler) requireAuth(kind domaccount.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "No token provided")
				return
			}
			p, err := h.auth.Authenticate(token, kind)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, appaccount.ErrInvalidTokenType) {
					msg = "Invalid token type"
				}
				writeMessage(w, http.StatusUnauthorized, msg)
				return
			}
			ctx := withPrincipal(r.Context(), p)
			ctx = logctx.Enrich(ctx, h.log,
				observability.F("principal_id", p.ID),
				observability.F("principal_kind", string(p.Kind)),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// optionalUser attaches a shopper identity when a valid user token is present and ignores anything else.
func (h *Handler) optionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if p, err := h.auth.Authenticate(token, domaccount.KindUser); err == nil {
				ctx := logctx.Enrich(withPrincipal(r.Context(), p), h.log, observability.F("principal_id", p.ID))
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}
