package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ecomm-dev/accounts/shared/api"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	valid := func(id string) bool { return len(id) == 24 }

	r := chi.NewRouter()
	r.With(ValidateID("id", valid)).Get("/api/user/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "valid", path: "/api/user/5b9ff8f4558ca01054196469", wantStatus: http.StatusOK},
		{name: "invalid", path: "/api/user/abc", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusBadRequest {
				var env api.Envelope
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
				assert.Equal(t, "VIP-1", env.ErrorCode)
				assert.Equal(t, "DataValidationError", env.ErrorType)
				assert.Equal(t, "Invalid Id Provided", env.Message)
			}
		})
	}
}

func TestValidateIDWithoutParam(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { t.Fatal("next must not run") })
	rr := httptest.NewRecorder()
	ValidateID("id", func(string) bool { return true })(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
