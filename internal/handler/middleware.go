package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/msomdec/estate-listings/internal/authz"
	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/ratelimit"
	"github.com/msomdec/estate-listings/internal/service"
)

type contextKey string

const (
	userContextKey     contextKey = "user"
	resourceContextKey contextKey = "resource"
)

// UserFromContext extracts the authenticated user from the request context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// IdentityFromContext returns the caller's id and role. The second value is
// false for unauthenticated requests.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	user := UserFromContext(ctx)
	if user == nil {
		return domain.Identity{}, false
	}
	return user.Identity(), true
}

// ResourceFromContext returns the record loaded by RequireOwnership.
func ResourceFromContext[T any](ctx context.Context) (T, bool) {
	res, ok := ctx.Value(resourceContextKey).(T)
	return res, ok
}

// loadedResource returns the record RequireOwnership stored for this request.
// A route mounted without the guard gets a 500, never an unchecked write.
func loadedResource[T any](w http.ResponseWriter, r *http.Request, action string) (T, bool) {
	res, ok := ResourceFromContext[T](r.Context())
	if !ok {
		writeServiceError(w, action, fmt.Errorf("%s: no ownership check on route %s", action, r.URL.Path))
	}
	return res, ok
}

// RequireAuth reads the bearer token, validates it, loads the user and puts
// it in the request context. Pre-flight requests pass through untouched.
func RequireAuth(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Not authorized")
				return
			}
			userID, err := auth.ValidateToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			// The account may be gone while its token is still unexpired.
			user, err := auth.GetUserByID(r.Context(), userID)
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "User not found")
				return
			}
			if err != nil {
				writeServiceError(w, "load session user", err)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole rejects callers whose role is not in roles. It must run after
// RequireAuth.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Not authorized")
				return
			}
			if !authz.HasRole(who, roles...) {
				writeError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnership loads the resource named by the {id} route parameter and
// applies the guard's predicate to the caller. The loaded resource is made
// available through ResourceFromContext.
func RequireOwnership[T any](guard authz.Guard[T]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Not authorized")
				return
			}
			res, err := guard.Check(r.Context(), chi.URLParam(r, "id"), who)
			if err != nil {
				writeServiceError(w, "check ownership", err)
				return
			}
			ctx := context.WithValue(r.Context(), resourceContextKey, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit answers 429 once a client IP exhausts its allowance. A nil
// limiter disables the check.
func RateLimit(limiter ratelimit.Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), scope+":"+clientIP(r)) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP uses the connection's address. Forwarded headers are ignored
// because any client can set them.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SecurityHeaders sets response headers that keep browsers from sniffing or
// framing API responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Recoverer turns a panic into a JSON 500. The stack is included in the body
// only in development.
func Recoverer(development bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				stack := string(debug.Stack())
				slog.Error("panic recovered", "panic", fmt.Sprint(rvr), "path", r.URL.Path, "stack", stack)

				body := map[string]string{"message": "Internal server error"}
				if development {
					body["message"] = fmt.Sprint(rvr)
					body["stack"] = stack
				}
				writeJSON(w, http.StatusInternalServerError, body)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
