package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pup/internal/client/models"
	"github.com/dmitrijs2005/pup/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) credentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Signup creates an account and signs in with it.
func (a *App) Signup(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return a.reportPlain(err)
	}
	defer common.WipeByteArray(password)

	user, err := a.auth.Signup(ctx, email, string(password))
	if err != nil {
		return a.report(err)
	}

	a.email = user.Email
	fmt.Fprintf(a.out, "Welcome, %s! Run 'edit' to fill in your profile.\n", user.Email)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return a.reportPlain(err)
	}
	defer common.WipeByteArray(password)

	user, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		return a.report(err)
	}

	a.email = user.Email
	fmt.Fprintf(a.out, "Signed in as %s\n", user.Email)
	if user.IsNew {
		fmt.Fprintln(a.out, "Your profile is empty. Run 'edit' to get started.")
	}
	return nil
}

// Logout ends the session here and on the server. The local session is
// dropped even when the server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	err := a.auth.Logout(ctx)
	a.email = ""
	a.last = models.BrowseQuery{}
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	user, err := a.auth.Whoami(ctx)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%s (id %s, %s)\n", user.Email, user.ID, user.Role)
	return nil
}
