package middleware

import (
	"context"
	"net/http"

	"geodir/internal/app/service"
	"geodir/internal/common"
	"geodir/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const actorCtxKey contextKey = "actor"

// Authenticator rejects requests whose bearer token is missing, malformed,
// expired, or whose subject no longer resolves to an active user. The
// signature/expiry check itself happens in jwtauth.Verifier upstream; this
// middleware consumes its result.
func Authenticator(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "invalid or missing authorization token")
				return
			}

			actor, err := authService.VerifySession(r.Context(), claims)
			if err != nil {
				common.RespondWithDomainError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), actorCtxKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActorFromContext(r.Context())
		if !ok || actor.Role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetActorFromContext(ctx context.Context) (service.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey).(service.Actor)
	return actor, ok
}
