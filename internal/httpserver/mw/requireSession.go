package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
)

// RequireSession rejects requests with 401 while nobody is signed in.
func RequireSession(current func() (domain.Identity, bool), log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := current(); !ok {
				log.Debugf("RequireSession: %s %s REJECTED, no active account", r.Method, r.URL.Path)
				reject(w, http.StatusUnauthorized, domain.ErrNoActiveAccount.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
