package middleware

import (
	"net"
	"net/http"

	"github.com/ecomm-dev/accounts/backend/internal/middleware/ratelimit"
	"github.com/ecomm-dev/accounts/shared/errors"
	"github.com/ecomm-dev/accounts/shared/logger"
	"github.com/ecomm-dev/accounts/shared/utils"
)

// KeyFunc names the bucket a request is charged to. ok is false when the
// request carries nothing to key on, such requests are not charged.
type KeyFunc func(r *http.Request) (key string, ok bool)

// RateLimit charges the request to every bucket named by keys and rejects it
// with RL-1 once any of them is empty.
func RateLimit(limiter *ratelimit.Limiter, keys ...KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, keyFn := range keys {
				key, ok := keyFn(r)
				if !ok {
					continue
				}
				if !limiter.Allow(key) {
					logger.Log.Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
					utils.WriteError(w, r, errors.RateLimited("RL-1", "Too many requests, please try again later"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ByIP keys on the peer address of the connection. Headers are ignored, a
// client could name a new address on every request.
func ByIP(r *http.Request) (string, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || net.ParseIP(host) == nil {
		return "", false
	}
	return "ip:" + host, true
}

// ByForwardedIP keys on the address from X-Real-IP or X-Forwarded-For. Use it
// only behind a proxy that overwrites those headers.
func ByForwardedIP(r *http.Request) (string, bool) {
	ip, err := utils.GetIP(r)
	if err != nil {
		return "", false
	}
	return "ip:" + ip, true
}

// ByBodyField keys on a string field of the json body, the body is left
// readable for the next stage.
func ByBodyField(name string) KeyFunc {
	return func(r *http.Request) (string, bool) {
		value, ok := fieldValue(r, name)
		if !ok {
			return "", false
		}
		return name + ":" + value, true
	}
}
