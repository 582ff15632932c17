package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ecomm-dev/accounts/shared/config"
	"github.com/ecomm-dev/accounts/shared/errors"
	"github.com/ecomm-dev/accounts/shared/logger"
	"github.com/ecomm-dev/accounts/shared/utils"
)

// Counter counts stored accounts whose field equals value.
type Counter interface {
	Count(ctx context.Context, field, value string) (int64, error)
}

// Unique rejects requests whose body repeats a value that must be unique.
// It is a fast path only, the store's unique index has the final word.
type Unique struct {
	counter  Counter
	messages config.Messages
	timeout  time.Duration
}

func NewUnique(counter Counter, messages config.Messages) *Unique {
	return &Unique{counter: counter, messages: messages, timeout: 5 * time.Second}
}

// Field guards the json body field name.
func (u *Unique) Field(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value, ok := fieldValue(r, name)
			if !ok {
				// missing or malformed input is reported by the handler
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), u.timeout)
			defer cancel()

			count, err := u.counter.Count(ctx, name, value)
			if err != nil {
				logger.Log.Error("uniqueness check failed", "field", name, "error", err)
				utils.WriteError(w, r, errors.Unknown("UV-2", err))
				return
			}
			if count > 0 {
				utils.WriteError(w, r, errors.Duplicate("UV-1", u.messages.Duplicate(name)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func fieldValue(r *http.Request, name string) (string, bool) {
	body, err := utils.PeekBody(r)
	if err != nil || len(body) == 0 {
		return "", false
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false
	}
	value, ok := fields[name].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
