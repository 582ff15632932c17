package errors

import (
	"errors"
	"net/http"
	"strings"
)

// Storage level sentinels. Storages wrap them with %w, services test with errors.Is.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type Kind string

const (
	KindValidation Kind = "DataValidationError"
	KindDuplicate  Kind = "DuplicateDataError"
	KindOAuth      Kind = "OAuthError"
	KindUnknown    Kind = "UnknownError"
	KindRateLimit  Kind = "RateLimitError"
)

// GenericMessage is the only message a client ever sees for KindUnknown.
const GenericMessage = "Something went wrong, please try again later!!!"

// AppError is what handlers and guards return to the client.
// Code is stable and used for log correlation, Err is never shown to the client.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Tag returns the function tag of the code, "UC-CU-2" -> "UC-CU".
func (e *AppError) Tag() string {
	if i := strings.LastIndex(e.Code, "-"); i > 0 {
		return e.Code[:i]
	}
	return e.Code
}

func Validation(code, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message, Status: http.StatusBadRequest}
}

func Duplicate(code, message string) *AppError {
	return &AppError{Kind: KindDuplicate, Code: code, Message: message, Status: http.StatusBadRequest}
}

func OAuth(code, message string) *AppError {
	return &AppError{Kind: KindOAuth, Code: code, Message: message, Status: http.StatusUnauthorized}
}

func RateLimited(code, message string) *AppError {
	return &AppError{Kind: KindRateLimit, Code: code, Message: message, Status: http.StatusTooManyRequests}
}

func Unknown(code string, err error) *AppError {
	return &AppError{Kind: KindUnknown, Code: code, Message: GenericMessage, Status: http.StatusInternalServerError, Err: err}
}

// As is errors.As for *AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
