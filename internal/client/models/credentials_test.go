package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, field, verr.Field)
}

func TestSignInData_Validate(t *testing.T) {
	tests := []struct {
		name  string
		data  SignInData
		field string // empty means valid
	}{
		{name: "valid", data: SignInData{Email: "a@b.com", Password: "secret1"}},
		{name: "empty email", data: SignInData{Password: "secret1"}, field: "email"},
		{name: "not an address", data: SignInData{Email: "nope", Password: "secret1"}, field: "email"},
		{name: "address with extras", data: SignInData{Email: "A B <a@b.com>", Password: "secret1"}, field: "email"},
		{name: "empty password", data: SignInData{Email: "a@b.com"}, field: "password"},
		{name: "short password", data: SignInData{Email: "a@b.com", Password: "short"}, field: "password"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.data.Validate()
			if tc.field == "" {
				require.NoError(t, err)
				return
			}
			requireFieldError(t, err, tc.field)
		})
	}
}

func TestSignUpData_Validate(t *testing.T) {
	valid := SignUpData{Email: "x@y.com", Password: "secret1", Confirm: "secret1", DisplayName: "X"}
	require.NoError(t, valid.Validate())

	mismatch := valid
	mismatch.Confirm = "secret2"
	requireFieldError(t, mismatch.Validate(), "confirm")

	noName := valid
	noName.DisplayName = ""
	requireFieldError(t, noName.Validate(), "displayName")

	short := valid
	short.Password, short.Confirm = "abc", "abc"
	requireFieldError(t, short.Validate(), "password")
}

func TestValidationError_MatchesErrorsAs(t *testing.T) {
	err := SignInData{}.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.NotEmpty(t, verr.Error())
}
