package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/ecomm-dev/accounts/backend/internal/service/utils"
	"github.com/ecomm-dev/accounts/shared/config"
	"github.com/ecomm-dev/accounts/shared/crypto"
	"github.com/ecomm-dev/accounts/shared/domain"
	"github.com/ecomm-dev/accounts/shared/errors"
	jwt_internal "github.com/ecomm-dev/accounts/shared/jwt"
	"github.com/ecomm-dev/accounts/shared/logger"
	"github.com/go-playground/validator/v10"
)

type AccountService interface {
	Register(ctx context.Context, reg domain.Registration, elevate bool) (domain.Account, error)
	Login(ctx context.Context, creds domain.Credentials) (domain.Session, error)
	Self(ctx context.Context, id domain.AccountId) (domain.Account, error)
	Account(ctx context.Context, id domain.AccountId) (domain.Account, error)
}

type AccountStorage interface {
	CreateAccount(ctx context.Context, account domain.Account) (domain.AccountId, error)
	AccountByEmail(ctx context.Context, email domain.Email) (domain.Account, error)
	AccountByID(ctx context.Context, id domain.AccountId) (domain.Account, error)
}

type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}

type Jwt interface {
	NewToken(identity domain.Identity) (string, error)
}

type Account struct {
	storage  AccountStorage
	hasher   Hasher
	jwt      Jwt
	cfg      *config.Public
	validate *validator.Validate
	now      func() time.Time
}

func NewAccount(storage AccountStorage, hasher Hasher, jwt Jwt, cfg *config.Public) *Account {
	return &Account{
		storage:  storage,
		hasher:   hasher,
		jwt:      jwt,
		cfg:      cfg,
		validate: validator.New(),
		now:      time.Now,
	}
}

const (
	invalidRequest  = "Invalid request"
	passwordTooLong = "Password must not be longer than 72 bytes"
)

// Register validates reg, hashes the password and persists a new account.
// elevate sets the admin flag, callers decide whether the request may ask for it.
func (a *Account) Register(ctx context.Context, reg domain.Registration, elevate bool) (domain.Account, error) {
	reg = normalize(reg)
	if err := a.validate.Struct(reg); err != nil {
		return domain.Account{}, errors.Validation("UC-CU-1", invalidRequest)
	}
	// bcrypt limit, counted in bytes
	if len(reg.Password) > crypto.MaxPasswordBytes {
		return domain.Account{}, errors.Validation("UC-CU-1", passwordTooLong)
	}

	passHash, err := a.hasher.Hash(ctx, reg.Password)
	if err != nil {
		if stderrors.Is(err, crypto.ErrPasswordTooLong) {
			return domain.Account{}, errors.Validation("UC-CU-1", passwordTooLong)
		}
		return domain.Account{}, errors.Unknown("UC-CU-2", err)
	}

	account := domain.Account{
		Email:     reg.Email,
		PassHash:  passHash,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Phone:     reg.Phone,
		Admin:     elevate,
		CreatedAt: a.now().UTC().Truncate(time.Millisecond),
		Orders:    []string{},
	}
	if !reg.Address.IsZero() {
		address := reg.Address
		account.Address = &address
	}

	id, err := a.storage.CreateAccount(ctx, account)
	if err != nil {
		if errors.IsDuplicate(err) {
			// lost the race against a concurrent registration past the uniqueness guard
			return domain.Account{}, errors.Duplicate("UV-1", a.cfg.Messages.Duplicate("email"))
		}
		return domain.Account{}, errors.Unknown("UC-CU-2", err)
	}
	account.Id = id

	logger.Log.Info("account created", "user_id", id, "admin", account.Admin)
	return account, nil
}

// Login checks credentials and issues a token valid for jwt.TTL.
func (a *Account) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	// stored emails are trimmed at registration
	creds.Email = strings.TrimSpace(creds.Email)
	if err := a.validate.Struct(creds); err != nil {
		return domain.Session{}, errors.Validation("UC-LU-1", invalidRequest)
	}

	account, err := a.storage.AccountByEmail(ctx, creds.Email)
	if err != nil {
		if errors.IsNotFound(err) {
			return domain.Session{}, errors.OAuth("UC-LU-2", "Invalid username provided")
		}
		return domain.Session{}, errors.Unknown("UC-LU-4", err)
	}

	ok, err := a.hasher.Verify(ctx, creds.Password, account.PassHash)
	if err != nil {
		return domain.Session{}, errors.Unknown("UC-LU-4", err)
	}
	if !ok {
		return domain.Session{}, errors.OAuth("UC-LU-3", "Invalid Authentication Credentials")
	}

	token, err := a.jwt.NewToken(domain.Identity{Id: account.Id, Email: account.Email, Admin: account.Admin})
	if err != nil {
		return domain.Session{}, errors.Unknown("UC-LU-4", err)
	}

	return domain.Session{
		Token:          token,
		ExpiryDuration: jwt_internal.TTL,
		Username:       account.DisplayName(),
		UserId:         account.Id,
	}, nil
}

// Self loads the account of an authenticated caller. The token outliving its
// account is not special cased and surfaces as UC-GU-1.
func (a *Account) Self(ctx context.Context, id domain.AccountId) (domain.Account, error) {
	account, err := a.storage.AccountByID(ctx, id)
	if err != nil {
		return domain.Account{}, errors.Unknown("UC-GU-1", fmt.Errorf("account %s: %w", id, err))
	}
	return account, nil
}

// Account is the admin lookup of any account by id.
func (a *Account) Account(ctx context.Context, id domain.AccountId) (domain.Account, error) {
	account, err := a.storage.AccountByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return domain.Account{}, errors.Validation("UC-GA-1", "No user found with the provided id")
		}
		return domain.Account{}, errors.Unknown("UC-GA-2", err)
	}
	return account, nil
}

// normalize trims profile strings and strips markup from them. Email and
// password are compared byte for byte, only the email is trimmed.
func normalize(reg domain.Registration) domain.Registration {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.FirstName = utils.Text(reg.FirstName)
	reg.LastName = utils.Text(reg.LastName)
	reg.Address = domain.Address{
		Street:  utils.Text(reg.Address.Street),
		City:    utils.Text(reg.Address.City),
		State:   utils.Text(reg.Address.State),
		Country: utils.Text(reg.Address.Country),
		Pin:     utils.Text(reg.Address.Pin),
	}
	return reg
}
