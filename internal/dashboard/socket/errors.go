package socket

import "fmt"

// Handshake failure codes surfaced to the transport.
const (
	CodeCredentialsBadFormat = "credentials_bad_format"
	CodeCredentialsRequired  = "credentials_required"
	CodeInvalidToken         = "invalid_token"
	CodeInternalError        = "internal_error"
)

// UnauthorizedError is a terminal handshake failure. Validation codes
// describe the credential problem; CodeInternalError wraps an
// underlying storage fault instead of leaking it raw.
type UnauthorizedError struct {
	Code    string
	Message string
	Err     error
}

func (e *UnauthorizedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("socket: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("socket: %s: %s", e.Code, e.Message)
}

func (e *UnauthorizedError) Unwrap() error { return e.Err }

func unauthorized(code, message string) *UnauthorizedError {
	return &UnauthorizedError{Code: code, Message: message}
}
