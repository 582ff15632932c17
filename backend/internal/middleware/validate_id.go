package middleware

import (
	"net/http"

	"github.com/ecomm-dev/accounts/shared/errors"
	"github.com/ecomm-dev/accounts/shared/utils"
	"github.com/go-chi/chi/v5"
)

// ValidateID rejects requests whose url parameter param is empty or not an
// id the configured store could have issued.
func ValidateID(param string, valid func(string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, param)
			if id == "" || !valid(id) {
				utils.WriteError(w, r, errors.Validation("VIP-1", "Invalid Id Provided"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
