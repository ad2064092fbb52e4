package utils

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ServerErrorMessage is shown for failures whose cause must not reach the client.
const ServerErrorMessage = "Server error. Please try again."

// UserError carries the message a client may see. Kind is the sentinel callers
// match with errors.Is; Err is the underlying cause, if any.
type UserError struct {
	Kind    error
	Message string
	Err     error
}

func NewUserError(kind error, message string, cause error) *UserError {
	return &UserError{Kind: kind, Message: message, Err: cause}
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UserMessage returns the client-safe message for err.
func UserMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return ServerErrorMessage
}

// WriteError writes err in the response envelope. Only UserError messages are echoed.
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, ErrorResponse(UserMessage(err), http.StatusText(status)))
}
