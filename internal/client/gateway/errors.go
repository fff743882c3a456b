package gateway

import (
	"errors"

	"github.com/akarpovs/authflow/internal/client/provider"
)

// Sentinel errors forming the gateway's failure taxonomy. Every provider
// failure is normalized to exactly one of these or to an UnknownError before
// it leaves the package. Callers match with errors.Is.
var (
	ErrEmailInUse          = errors.New("email already in use")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrWeakPassword        = errors.New("weak password")
	ErrOperationNotAllowed = errors.New("operation not allowed")
	ErrUserNotFound        = errors.New("user not found")
	ErrWrongPassword       = errors.New("wrong password")
	ErrUserDisabled        = errors.New("user disabled")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrNetwork             = errors.New("network error")
	ErrProviderUnavailable = errors.New("auth provider unavailable")
)

// UnknownError carries a provider failure whose code has no table entry. The
// original provider message is preserved for display and logging.
type UnknownError struct {
	Message string
}

func (e *UnknownError) Error() string {
	if e.Message == "" {
		return "unknown auth error"
	}
	return e.Message
}

// codeTable maps provider error codes onto the taxonomy. Codes absent from
// the table become UnknownError, so the mapping is total by construction.
var codeTable = map[string]error{
	"EMAIL_EXISTS":                ErrEmailInUse,
	"INVALID_EMAIL":               ErrInvalidEmail,
	"MISSING_EMAIL":               ErrInvalidEmail,
	"WEAK_PASSWORD":               ErrWeakPassword,
	"OPERATION_NOT_ALLOWED":       ErrOperationNotAllowed,
	"EMAIL_NOT_FOUND":             ErrUserNotFound,
	"USER_NOT_FOUND":              ErrUserNotFound,
	"INVALID_PASSWORD":            ErrWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   ErrWrongPassword,
	"USER_DISABLED":               ErrUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER": ErrTooManyRequests,
}

// normalize converts any provider failure into the taxonomy.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *provider.APIError
	switch {
	case errors.Is(err, provider.ErrUnavailable):
		return ErrProviderUnavailable
	case errors.Is(err, provider.ErrTransport):
		return ErrNetwork
	case errors.As(err, &apiErr):
		if mapped, ok := codeTable[apiErr.Code]; ok {
			return mapped
		}
		return &UnknownError{Message: apiErr.Message}
	default:
		return &UnknownError{Message: err.Error()}
	}
}

// Message renders the user-facing text for a normalized gateway failure.
// Unknown errors fall back to their preserved provider message.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmailInUse):
		return "This email address is already in use."
	case errors.Is(err, ErrInvalidEmail):
		return "The email address is not valid."
	case errors.Is(err, ErrWeakPassword):
		return "The password is too weak. It must be at least 6 characters."
	case errors.Is(err, ErrOperationNotAllowed):
		return "This operation is not allowed."
	case errors.Is(err, ErrUserNotFound):
		return "No account was found for this email address."
	case errors.Is(err, ErrWrongPassword):
		return "Incorrect password."
	case errors.Is(err, ErrUserDisabled):
		return "This account has been disabled."
	case errors.Is(err, ErrTooManyRequests):
		return "Too many failed attempts. Please try again later."
	case errors.Is(err, ErrNetwork):
		return "Connection error. Check your internet connection."
	case errors.Is(err, ErrProviderUnavailable):
		return "The authentication service is not available right now."
	}
	var unknown *UnknownError
	if errors.As(err, &unknown) && unknown.Message != "" {
		return unknown.Message
	}
	return "Something went wrong. Please try again."
}
