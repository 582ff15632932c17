package api

import (
	"net/http"

	"github.com/ecomm-dev/accounts/shared/errors"
)

// Envelope is the body of every response.
type Envelope struct {
	Error     bool   `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Data      any    `json:"data,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
}

// Success builds a success envelope. A zero status means 200.
func Success(status int, message string, data any) Envelope {
	if status == 0 {
		status = http.StatusOK
	}
	return Envelope{Message: message, Status: status, Data: data}
}

// Failure builds an error envelope. Internal causes never reach the message.
func Failure(e *errors.AppError) Envelope {
	message := e.Message
	if e.Kind == errors.KindUnknown || message == "" {
		message = errors.GenericMessage
	}
	status := e.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	kind := e.Kind
	if kind == "" {
		kind = errors.KindUnknown
	}
	return Envelope{
		Error:     true,
		Message:   message,
		Status:    status,
		ErrorCode: e.Code,
		ErrorType: string(kind),
	}
}
