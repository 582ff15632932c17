package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecomm-dev/accounts/shared/domain"
)

// Request DTOs

// PostalCode accepts both a JSON number and a JSON string.
type PostalCode string

func (p *PostalCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PostalCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("pin must be a number or a string: %w", err)
	}
	*p = PostalCode(n.String())
	return nil
}

type CreateUserRequest struct {
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Password  string     `json:"password"`
	Phone     []int64    `json:"phone"`
	Street    string     `json:"street"`
	City      string     `json:"city"`
	State     string     `json:"state"`
	Country   string     `json:"country"`
	Pin       PostalCode `json:"pin"`
}

func (r CreateUserRequest) Registration() domain.Registration {
	return domain.Registration{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
		Phone:     r.Phone,
		Address: domain.Address{
			Street:  r.Street,
			City:    r.City,
			State:   r.State,
			Country: r.Country,
			Pin:     string(r.Pin),
		},
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Response DTOs
// None of them carries the password hash.

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	Pin     string `json:"pin,omitempty"`
}

type CreatedUser struct {
	UserId    string   `json:"userId"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     []int64  `json:"phone"`
	Address   *Address `json:"address,omitempty"`
}

type User struct {
	UserId    string    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     []int64   `json:"phone"`
	CreatedOn time.Time `json:"createdOn"`
	Address   *Address  `json:"address,omitempty"`
	Orders    []string  `json:"orders"`
}

type LoginResponse struct {
	Token          string `json:"token"`
	ExpiryDuration int64  `json:"expiryDuration"`
	Username       string `json:"username"`
	UserId         string `json:"userId"`
}

func address(a *domain.Address) *Address {
	if a == nil || a.IsZero() {
		return nil
	}
	return &Address{Street: a.Street, City: a.City, State: a.State, Country: a.Country, Pin: a.Pin}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func NewCreatedUser(a domain.Account) CreatedUser {
	return CreatedUser{
		UserId:    a.Id,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     nonNil(a.Phone),
		Address:   address(a.Address),
	}
}

func NewUser(a domain.Account) User {
	return User{
		UserId:    a.Id,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     nonNil(a.Phone),
		CreatedOn: a.CreatedAt,
		Address:   address(a.Address),
		Orders:    nonNil(a.Orders),
	}
}

func NewLoginResponse(s domain.Session) LoginResponse {
	return LoginResponse{
		Token:          s.Token,
		ExpiryDuration: int64(s.ExpiryDuration.Seconds()),
		Username:       s.Username,
		UserId:         s.UserId,
	}
}
