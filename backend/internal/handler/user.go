package handler

import (
	"net/http"

	"github.com/ecomm-dev/accounts/shared/api"
	"github.com/ecomm-dev/accounts/shared/domain"
	"github.com/ecomm-dev/accounts/shared/errors"
	mw "github.com/ecomm-dev/accounts/shared/middleware"
	"github.com/ecomm-dev/accounts/shared/utils"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body api.CreateUserRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteError(w, r, errors.Validation("UC-CU-1", "Invalid request"))
		return
	}

	// the elevation guard in front of this handler only lets admins send the header
	elevate := mw.RequestsElevation(r, ElevationHeader)

	account, err := h.accounts.Register(r.Context(), body.Registration(), elevate)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	utils.WriteJSON(w, api.Success(http.StatusCreated, "User created successfully!!!", api.NewCreatedUser(account)))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body api.LoginRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteError(w, r, errors.Validation("UC-LU-1", "Invalid request"))
		return
	}

	session, err := h.accounts.Login(r.Context(), domain.Credentials{Email: body.Email, Password: body.Password})
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	utils.WriteJSON(w, api.Success(http.StatusOK, "User Logged In Successfully...", api.NewLoginResponse(session)))
}

// Self returns the account of the token owner.
func (h *Handler) Self(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentityFromContext(r)
	if identity == nil {
		utils.WriteError(w, r, errors.OAuth("CA-2", "Authentication Failed"))
		return
	}

	account, err := h.accounts.Self(r.Context(), identity.Id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	utils.WriteJSON(w, api.Success(http.StatusOK, "User Data Fetched Successfully!!!", api.NewUser(account)))
}

// GetUser returns any account by id, admin only.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Account(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	utils.WriteJSON(w, api.Success(http.StatusOK, "User Data Fetched Successfully!!!", api.NewUser(account)))
}
