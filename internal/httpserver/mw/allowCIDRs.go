package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/gitmark/internal/logger"
)

// AllowCIDRs restricts a route group to the listed IPs and CIDRs.
// An empty list lets everything through.
func AllowCIDRs(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	set, invalid := parsePrefixes(allowed)
	for _, s := range invalid {
		log.Warn("ignoring invalid allowed address", logger.String("value", s))
	}
	if len(set) == 0 {
		log.Debug("AllowCIDRs: no rules, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustProxy)
			if !set.contains(ip) {
				log.Debug("AllowCIDRs: rejected",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				reject(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
