package handler

import (
	"context"
	"net/http"

	"github.com/ecomm-dev/accounts/backend/internal/service"
	"github.com/ecomm-dev/accounts/shared/api"
	"github.com/ecomm-dev/accounts/shared/utils"
)

// ElevationHeader asks for the new account to be an admin.
const ElevationHeader = "isadmin"

// HealthChecker reports whether the account store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	accounts service.AccountService
	health   HealthChecker
}

func New(accounts service.AccountService, health HealthChecker) *Handler {
	return &Handler{accounts: accounts, health: health}
}

// NotFound answers every request that matched no route.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, api.Envelope{
		Error:   true,
		Message: "The route you are trying to access is not valid!!!",
		Status:  http.StatusNotFound,
	})
}
