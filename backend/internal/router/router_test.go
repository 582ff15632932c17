package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ecomm-dev/accounts/backend/internal/setup"
	"github.com/ecomm-dev/accounts/backend/internal/storage/memory"
	"github.com/ecomm-dev/accounts/shared/api"
	"github.com/ecomm-dev/accounts/shared/config"
	"github.com/ecomm-dev/accounts/shared/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	router *chi.Mux
	deps   *setup.Dependencies
	store  *memory.Storage
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		Public: config.Public{
			HttpPort:        8080,
			Storage:         config.Storage{Driver: "memory"},
			HashConcurrency: 4,
			Messages: config.Messages{
				Fields: map[string]config.FieldMessage{
					"email": {Duplicate: "An account already exists with the provided email Id"},
				},
			},
		},
		Private: config.Private{JwtKey: "router-test-key"},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	store := memory.New()
	deps, err := setup.Build(cfg, store, bcrypt.MinCost)
	require.NoError(t, err)
	return &testServer{router: New(deps), deps: deps, store: store}
}

type response struct {
	Code int
	Env  api.Envelope
	Data map[string]any
	Raw  string
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	res := response{Code: rr.Code, Raw: rr.Body.String()}
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res.Env), res.Raw)
		var raw struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
		res.Data = raw.Data
	}
	return res
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

const registerBody = `{"email":"a@x.com","password":"secret123","firstName":"A","lastName":"B"}`

func (s *testServer) register(t *testing.T) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/user/create", registerBody, nil)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	return res.Data["userId"].(string)
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/user/login", `{"email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	return res.Data["token"].(string)
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	token, err := s.deps.Jwt.NewToken(domain.Identity{Id: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", Email: "root@x.com", Admin: true})
	require.NoError(t, err)
	return token
}

func TestRegisterScenario(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodPost, "/api/user/create", registerBody, nil)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	assert.False(t, res.Env.Error)
	assert.Equal(t, 201, res.Env.Status)
	assert.Equal(t, "User created successfully!!!", res.Env.Message)
	assert.Equal(t, "a@x.com", res.Data["email"])
	assert.Equal(t, "A", res.Data["firstName"])
	assert.NotEmpty(t, res.Data["userId"])
	assert.NotContains(t, res.Data, "password")
	assert.NotContains(t, res.Raw, "secret123")
	assert.NotContains(t, res.Raw, "$2a$")

	stored, err := s.store.AccountByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PassHash), []byte("secret123")))
	assert.False(t, stored.Admin)
}

func TestRegisterDuplicateScenario(t *testing.T) {
	s := newTestServer(t)
	s.register(t)

	res := s.do(t, http.MethodPost, "/api/user/create", registerBody, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "UV-1", res.Env.ErrorCode)
	assert.Equal(t, "DuplicateDataError", res.Env.ErrorType)
	assert.Equal(t, "An account already exists with the provided email Id", res.Env.Message)
}

func TestRegisterValidationScenario(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"password":"secret123","firstName":"A","lastName":"B"}`,
		`{"email":"b@x.com","firstName":"A","lastName":"B"}`,
		`{"email":"b@x.com","password":"secret123","lastName":"B"}`,
		`{"email":"b@x.com","password":"secret123","firstName":"A"}`,
		`not json`,
	} {
		res := s.do(t, http.MethodPost, "/api/user/create", body, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code, body)
		assert.Equal(t, "UC-CU-1", res.Env.ErrorCode, body)
		assert.Equal(t, "DataValidationError", res.Env.ErrorType, body)
	}
}

func TestLoginScenarios(t *testing.T) {
	s := newTestServer(t)
	id := s.register(t)

	t.Run("success", func(t *testing.T) {
		res := s.do(t, http.MethodPost, "/api/user/login", `{"email":"a@x.com","password":"secret123"}`, nil)
		require.Equal(t, http.StatusOK, res.Code, res.Raw)
		assert.Equal(t, "User Logged In Successfully...", res.Env.Message)
		assert.EqualValues(t, 3600, res.Data["expiryDuration"])
		assert.Equal(t, "A B", res.Data["username"])
		assert.Equal(t, id, res.Data["userId"])

		claims, err := s.deps.Jwt.DecodeToken(res.Data["token"].(string))
		require.NoError(t, err)
		assert.Equal(t, domain.Identity{Id: id, Email: "a@x.com", Admin: false}, claims.Identity())
		assert.Equal(t, int64(3600), claims.ExpiresAt.Unix()-claims.IssuedAt.Unix())
	})

	t.Run("wrong password", func(t *testing.T) {
		res := s.do(t, http.MethodPost, "/api/user/login", `{"email":"a@x.com","password":"wrong"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, "UC-LU-3", res.Env.ErrorCode)
		assert.Equal(t, "OAuthError", res.Env.ErrorType)
	})

	t.Run("unregistered email", func(t *testing.T) {
		res := s.do(t, http.MethodPost, "/api/user/login", `{"email":"nobody@x.com","password":"secret123"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, "UC-LU-2", res.Env.ErrorCode)
	})

	t.Run("missing password", func(t *testing.T) {
		res := s.do(t, http.MethodPost, "/api/user/login", `{"email":"a@x.com"}`, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "UC-LU-1", res.Env.ErrorCode)
	})
}

func TestSelfScenarios(t *testing.T) {
	s := newTestServer(t)
	id := s.register(t)
	token := s.login(t, "a@x.com", "secret123")

	t.Run("no authorization header", func(t *testing.T) {
		res := s.do(t, http.MethodGet, "/api/user/@self", "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, "CA-1", res.Env.ErrorCode)
		assert.Equal(t, "OAuthError", res.Env.ErrorType)
	})

	t.Run("tampered token", func(t *testing.T) {
		res := s.do(t, http.MethodGet, "/api/user/@self", "", bearer(token+"x"))
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, "CA-1", res.Env.ErrorCode)
	})

	t.Run("valid token", func(t *testing.T) {
		res := s.do(t, http.MethodGet, "/api/user/@self", "", bearer(token))
		require.Equal(t, http.StatusOK, res.Code, res.Raw)
		assert.Equal(t, "User Data Fetched Successfully!!!", res.Env.Message)
		assert.Equal(t, id, res.Data["userId"])
		assert.Equal(t, []any{}, res.Data["orders"])
		assert.NotEmpty(t, res.Data["createdOn"])
		assert.NotContains(t, res.Raw, "$2a$")
	})

	t.Run("deleted account", func(t *testing.T) {
		require.NoError(t, s.store.DeleteAccount(context.Background(), id))

		res := s.do(t, http.MethodGet, "/api/user/@self", "", bearer(token))
		assert.Equal(t, http.StatusInternalServerError, res.Code)
		assert.Equal(t, "UC-GU-1", res.Env.ErrorCode)
		assert.Equal(t, "UnknownError", res.Env.ErrorType)
		assert.Equal(t, "Something went wrong, please try again later!!!", res.Env.Message)
	})
}

func TestElevationScenarios(t *testing.T) {
	s := newTestServer(t)

	t.Run("isadmin without token", func(t *testing.T) {
		res := s.do(t, http.MethodPost, "/api/user/create", registerBody, map[string]string{"isadmin": "true"})
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, "CA-1", res.Env.ErrorCode)

		_, err := s.store.AccountByEmail(context.Background(), "a@x.com")
		assert.Error(t, err, "nothing may be persisted")
	})

	t.Run("isadmin with a regular token", func(t *testing.T) {
		s.do(t, http.MethodPost, "/api/user/create", `{"email":"user@x.com","password":"secret123","firstName":"U","lastName":"S"}`, nil)
		token := s.login(t, "user@x.com", "secret123")

		headers := bearer(token)
		headers["isadmin"] = "true"
		res := s.do(t, http.MethodPost, "/api/user/create", registerBody, headers)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, "CA-3", res.Env.ErrorCode)
	})

	t.Run("isadmin with an admin token", func(t *testing.T) {
		headers := bearer(s.adminToken(t))
		headers["isadmin"] = "yes"
		res := s.do(t, http.MethodPost, "/api/user/create", registerBody, headers)
		require.Equal(t, http.StatusCreated, res.Code, res.Raw)

		claims, err := s.deps.Jwt.DecodeToken(s.login(t, "a@x.com", "secret123"))
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin)
	})
}

func TestAdminGetUserScenarios(t *testing.T) {
	s := newTestServer(t)
	id := s.register(t)
	userToken := s.login(t, "a@x.com", "secret123")
	adminToken := s.adminToken(t)

	tests := []struct {
		name       string
		path       string
		headers    map[string]string
		wantStatus int
		wantCode   string
	}{
		{name: "admin reads account", path: "/api/user/" + id, headers: bearer(adminToken), wantStatus: http.StatusOK},
		{name: "no token", path: "/api/user/" + id, wantStatus: http.StatusUnauthorized, wantCode: "CA-1"},
		{name: "not an admin", path: "/api/user/" + id, headers: bearer(userToken), wantStatus: http.StatusUnauthorized, wantCode: "CA-3"},
		{name: "malformed id", path: "/api/user/not-an-id", headers: bearer(adminToken), wantStatus: http.StatusBadRequest, wantCode: "VIP-1"},
		{name: "unknown id", path: "/api/user/0f8fad5b-d9cb-469f-a165-70867728950e", headers: bearer(adminToken), wantStatus: http.StatusBadRequest, wantCode: "UC-GA-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.do(t, http.MethodGet, tt.path, "", tt.headers)
			assert.Equal(t, tt.wantStatus, res.Code, res.Raw)
			assert.Equal(t, tt.wantCode, res.Env.ErrorCode)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, id, res.Data["userId"])
			}
		})
	}
}

func TestAmbientRoutes(t *testing.T) {
	s := newTestServer(t)

	t.Run("unknown route", func(t *testing.T) {
		res := s.do(t, http.MethodGet, "/api/orders", "", nil)
		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Equal(t, "The route you are trying to access is not valid!!!", res.Env.Message)
	})

	t.Run("health", func(t *testing.T) {
		res := s.do(t, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, res.Code)
		res = s.do(t, http.MethodGet, "/ready", "", nil)
		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("security headers", func(t *testing.T) {
		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/user/login", nil)
		req.Header.Set("Origin", "http://shop.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("metrics", func(t *testing.T) {
		s.do(t, http.MethodGet, "/health", "", nil)
		res := s.do(t, http.MethodGet, "/metrics", "", nil)
		assert.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, res.Raw, "http_requests_total")
	})
}

func TestLoginRateLimitScenario(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Public.LoginRateLimit = config.RateLimit{PerMinute: 1, Burst: 3}
	})
	require.NotNil(t, s.deps.LoginLimiter)
	s.register(t)

	for i := 0; i < 3; i++ {
		res := s.do(t, http.MethodPost, "/api/user/login", `{"email":"a@x.com","password":"wrong"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	}

	res := s.do(t, http.MethodPost, "/api/user/login", `{"email":"a@x.com","password":"secret123"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "RL-1", res.Env.ErrorCode)

	res = s.do(t, http.MethodPost, "/api/user/create", `{"email":"c@x.com","password":"secret123","firstName":"C","lastName":"D"}`, nil)
	assert.Equal(t, http.StatusCreated, res.Code, "only login is throttled")
}

func TestLoginRateLimitForwardedHeaders(t *testing.T) {
	cases := []struct {
		name  string
		trust bool
		codes []int
	}{
		{name: "headers ignored by default", trust: false, codes: []int{401, 401, 429}},
		{name: "headers trusted behind a proxy", trust: true, codes: []int{401, 401, 401}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, func(cfg *config.Config) {
				cfg.Public.LoginRateLimit = config.RateLimit{PerMinute: 1, Burst: 2, TrustProxyHeaders: tc.trust}
			})

			codes := make([]int, 0, len(tc.codes))
			for i, addr := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
				body := fmt.Sprintf(`{"email":"user%d@x.com","password":"wrong"}`, i)
				res := s.do(t, http.MethodPost, "/api/user/login", body, map[string]string{"X-Real-IP": addr})
				codes = append(codes, res.Code)
			}
			assert.Equal(t, tc.codes, codes)
		})
	}
}

func TestRegisterPasswordTooLongScenario(t *testing.T) {
	s := newTestServer(t)

	body := `{"email":"long@x.com","password":"` + strings.Repeat("p", 73) + `","firstName":"A","lastName":"B"}`
	res := s.do(t, http.MethodPost, "/api/user/create", body, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code, res.Raw)
	assert.Equal(t, "UC-CU-1", res.Env.ErrorCode)
	assert.Equal(t, "DataValidationError", res.Env.ErrorType)

	body = `{"email":"edge@x.com","password":"` + strings.Repeat("p", 72) + `","firstName":"A","lastName":"B"}`
	res = s.do(t, http.MethodPost, "/api/user/create", body, nil)
	assert.Equal(t, http.StatusCreated, res.Code, res.Raw)
}
