package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/akarpovs/authflow/internal/client/models"
	"github.com/akarpovs/authflow/internal/common"
)

// Login collects credentials and runs the sign-in action. Validation
// failures are shown inline; anything else surfaces through the session
// store's last error.
func (a *App) Login(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	defer common.WipeByteArray(password)

	err = a.coordinator.SignIn(ctx, models.SignInData{Email: email, Password: string(password)})
	a.reportOutcome(err, "Login successful")
}

// Register collects the registration payload and runs the sign-up action.
func (a *App) Register(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	name, err := GetSimpleText(a.reader, "Enter display name", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	defer common.WipeByteArray(password)
	confirm, err := GetPassword("Confirm password", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	defer common.WipeByteArray(confirm)

	err = a.coordinator.SignUp(ctx, models.SignUpData{
		Email:       email,
		Password:    string(password),
		Confirm:     string(confirm),
		DisplayName: name,
	})
	a.reportOutcome(err, "Registration successful")
}

// Logout runs the sign-out action.
func (a *App) Logout(ctx context.Context) {
	err := a.coordinator.SignOut(ctx)
	a.reportOutcome(err, "Logged out")
}

// WhoAmI prints the current session state.
func (a *App) WhoAmI() {
	current := a.store.Current()
	if !current.SignedIn() {
		fmt.Fprintln(a.out, "not signed in")
		return
	}
	identity := current.Identity
	fmt.Fprintf(a.out, "id: %s\nemail: %s\nname: %s\n", identity.ID, identity.Email, identity.DisplayName)
}

// reportOutcome shows the one-shot acknowledgement for a finished action.
// Validation errors are field feedback; everything else is already recorded
// in the store's last error.
func (a *App) reportOutcome(err error, success string) {
	if err == nil {
		fmt.Fprintln(a.out, success)
		return
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(a.out, "invalid %s: %s\n", verr.Field, verr.Message)
		return
	}
	if lastError := a.store.Current().LastError; lastError != "" {
		fmt.Fprintln(a.out, lastError)
	}
}
