package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecomm-dev/accounts/shared/domain"
	internal_errors "github.com/ecomm-dev/accounts/shared/errors"
	shared_pg "github.com/ecomm-dev/accounts/shared/storage/pg"
	"github.com/google/uuid"
)

const opTimeout = 5 * time.Second

// countable lists the document fields Count accepts. The field name reaches
// the query as a bind parameter, the list keeps arbitrary keys out anyway.
var countable = map[string]bool{"email": true}

type addressDoc struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	Pin     string `json:"pin,omitempty"`
}

type accountDoc struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Admin     bool        `json:"hasAdminPrevilieges"`
	Orders    []string    `json:"orders"`
	Phone     []int64     `json:"phone,omitempty"`
	Address   *addressDoc `json:"address,omitempty"`
}

// =========================================================================
// Public Methods (satisfy the service.AccountStorage interface)
// =========================================================================

// CreateAccount inserts account inside a transaction and returns its new id.
// A taken email is reported as errors.ErrDuplicate.
func (s *Storage) CreateAccount(ctx context.Context, account domain.Account) (domain.AccountId, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	id := uuid.NewString()
	err := shared_pg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.insertAccount(ctx, tx, id, account)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Storage) AccountByEmail(ctx context.Context, email domain.Email) (domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.account(ctx, s.db, "email = $1", email)
}

func (s *Storage) AccountByID(ctx context.Context, id domain.AccountId) (domain.Account, error) {
	if !s.ValidID(id) {
		return domain.Account{}, fmt.Errorf("account %s: %w", id, internal_errors.ErrNotFound)
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.account(ctx, s.db, "id = $1", id)
}

// Count counts accounts whose document field equals value.
func (s *Storage) Count(ctx context.Context, field, value string) (int64, error) {
	if !countable[field] {
		return 0, fmt.Errorf("count by %q is not supported", field)
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM accounts WHERE doc->>$1 = $2`, field, value).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count accounts by %s: %w", field, err)
	}
	return n, nil
}

// =========================================================================
// Internal Methods (accept a Querier to run in or out of a transaction)
// =========================================================================

func (s *Storage) insertAccount(ctx context.Context, q shared_pg.Querier, id string, account domain.Account) error {
	doc, err := json.Marshal(toDoc(account))
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO accounts (id, email, doc, created_at) VALUES ($1, $2, $3, $4)`,
		id, account.Email, doc, account.CreatedAt,
	)
	if err != nil {
		if shared_pg.IsUniqueViolation(err) {
			return fmt.Errorf("insert account: %w", internal_errors.ErrDuplicate)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// account loads one row matching where, which must use $1 for arg.
func (s *Storage) account(ctx context.Context, q shared_pg.Querier, where string, arg any) (domain.Account, error) {
	var (
		id        string
		raw       []byte
		createdAt time.Time
	)
	err := q.QueryRowContext(ctx, `SELECT id, doc, created_at FROM accounts WHERE `+where, arg).Scan(&id, &raw, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, fmt.Errorf("find account: %w", internal_errors.ErrNotFound)
		}
		return domain.Account{}, fmt.Errorf("find account: %w", err)
	}

	var doc accountDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Account{}, fmt.Errorf("decode account %s: %w", id, err)
	}
	account := doc.account()
	account.Id = id
	account.CreatedAt = createdAt.UTC()
	return account, nil
}

func toDoc(a domain.Account) accountDoc {
	doc := accountDoc{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Password:  a.PassHash,
		Admin:     a.Admin,
		Orders:    a.Orders,
		Phone:     a.Phone,
	}
	if doc.Orders == nil {
		doc.Orders = []string{}
	}
	if a.Address != nil {
		doc.Address = &addressDoc{
			Street:  a.Address.Street,
			City:    a.Address.City,
			State:   a.Address.State,
			Country: a.Address.Country,
			Pin:     a.Address.Pin,
		}
	}
	return doc
}

func (d accountDoc) account() domain.Account {
	a := domain.Account{
		Email:     d.Email,
		PassHash:  d.Password,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Phone:     d.Phone,
		Admin:     d.Admin,
		Orders:    d.Orders,
	}
	if d.Address != nil {
		a.Address = &domain.Address{
			Street:  d.Address.Street,
			City:    d.Address.City,
			State:   d.Address.State,
			Country: d.Address.Country,
			Pin:     d.Address.Pin,
		}
	}
	return a
}
