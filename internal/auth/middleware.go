package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridian-crm/meridian/internal/platform/httpx"
)

// SnapshotLoader resolves a user id to its cached snapshot, falling
// back to persistence on miss.
type SnapshotLoader interface {
	Load(ctx context.Context, userID int64) (Snapshot, error)
}

type principalContextKey struct{}

// ContextWithPrincipal stores the authenticated snapshot in context.
func ContextWithPrincipal(ctx context.Context, p Snapshot) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the authenticated snapshot.
func PrincipalFromContext(ctx context.Context) (Snapshot, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Snapshot)
	return p, ok
}

// Guard authenticates bearer tokens and gates requests on account state
// and role.
type Guard struct {
	codec  *TokenCodec
	loader SnapshotLoader
	logger *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(codec *TokenCodec, loader SnapshotLoader, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{codec: codec, loader: loader, logger: logger}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "could not validate credentials")
}

// Authenticate verifies the access token, resolves the principal, and
// rejects inactive accounts.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			unauthorized(w)
			return
		}
		claims, err := g.codec.Verify(token, PurposeAccess)
		if err != nil {
			unauthorized(w)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			unauthorized(w)
			return
		}
		principal, err := g.loader.Load(r.Context(), userID)
		if err != nil {
			g.logger.Warn("load principal", slog.Int64("user_id", userID), slog.Any("error", err))
			unauthorized(w)
			return
		}
		if !principal.IsActive {
			unauthorized(w)
			return
		}
		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireVerified rejects principals whose email is unverified.
func (g *Guard) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}
		if !principal.IsVerified {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "email not verified")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects principals whose role does not match exactly.
func (g *Guard) RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if principal.Role != role {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
