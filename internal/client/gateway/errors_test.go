package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akarpovs/authflow/internal/client/provider"
)

func TestNormalize_CodeTable(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"EMAIL_EXISTS", ErrEmailInUse},
		{"INVALID_EMAIL", ErrInvalidEmail},
		{"MISSING_EMAIL", ErrInvalidEmail},
		{"WEAK_PASSWORD", ErrWeakPassword},
		{"OPERATION_NOT_ALLOWED", ErrOperationNotAllowed},
		{"EMAIL_NOT_FOUND", ErrUserNotFound},
		{"USER_NOT_FOUND", ErrUserNotFound},
		{"INVALID_PASSWORD", ErrWrongPassword},
		{"INVALID_LOGIN_CREDENTIALS", ErrWrongPassword},
		{"USER_DISABLED", ErrUserDisabled},
		{"TOO_MANY_ATTEMPTS_TRY_LATER", ErrTooManyRequests},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			got := normalize(&provider.APIError{Code: tc.code})
			require.ErrorIs(t, got, tc.want)
		})
	}
}

func TestNormalize_UnrecognizedCodeKeepsMessage(t *testing.T) {
	got := normalize(&provider.APIError{Code: "SOMETHING_NEW", Message: "the provider said so"})
	var unknown *UnknownError
	require.ErrorAs(t, got, &unknown)
	require.Equal(t, "the provider said so", unknown.Message)
}

func TestNormalize_TransportAndUnavailable(t *testing.T) {
	transport := fmt.Errorf("%w: connection refused", provider.ErrTransport)
	require.ErrorIs(t, normalize(transport), ErrNetwork)
	require.ErrorIs(t, normalize(provider.ErrUnavailable), ErrProviderUnavailable)
}

func TestNormalize_ArbitraryErrorBecomesUnknown(t *testing.T) {
	got := normalize(errors.New("boom"))
	var unknown *UnknownError
	require.ErrorAs(t, got, &unknown)
	require.Equal(t, "boom", unknown.Message)
	require.Nil(t, normalize(nil))
}

func TestMessage_CoversWholeTaxonomy(t *testing.T) {
	taxonomy := []error{
		ErrEmailInUse, ErrInvalidEmail, ErrWeakPassword, ErrOperationNotAllowed,
		ErrUserNotFound, ErrWrongPassword, ErrUserDisabled, ErrTooManyRequests,
		ErrNetwork, ErrProviderUnavailable,
	}
	seen := map[string]bool{}
	for _, err := range taxonomy {
		msg := Message(err)
		require.NotEmpty(t, msg, "no message for %v", err)
		require.False(t, seen[msg], "duplicate message %q", msg)
		seen[msg] = true
	}

	require.Equal(t, "kept as is", Message(&UnknownError{Message: "kept as is"}))
	require.NotEmpty(t, Message(&UnknownError{}))
	require.Empty(t, Message(nil))
}
