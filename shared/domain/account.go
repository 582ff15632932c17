package domain

import "time"

type AccountId = string
type Email = string
type Password = string

type Address struct {
	Street  string
	City    string
	State   string
	Country string
	Pin     string
}

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

type Account struct {
	Id        AccountId
	Email     Email
	PassHash  string
	FirstName string
	LastName  string
	Phone     []int64
	Address   *Address
	Admin     bool
	CreatedAt time.Time
	Orders    []string
}

// DisplayName is what login returns as "username".
func (a Account) DisplayName() string {
	return a.FirstName + " " + a.LastName
}

type Credentials struct {
	Email    Email    `validate:"required"`
	Password Password `validate:"required"`
}

// Registration is the input of account creation, validated by the account service.
type Registration struct {
	Email     Email    `validate:"required"`
	FirstName string   `validate:"required"`
	LastName  string   `validate:"required"`
	Password  Password `validate:"required"`
	Phone     []int64
	Address   Address
}

// Identity is the request scoped projection of verified token claims.
type Identity struct {
	Id    AccountId
	Email Email
	Admin bool
}

// Session is the result of a successful login.
type Session struct {
	Token          string
	ExpiryDuration time.Duration
	Username       string
	UserId         AccountId
}
