package cli

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email, a display name and a password, creates the
// account and signs it in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	displayName, err := getSimpleText(a.reader, "Enter display name (optional)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.gate.Signup(ctx, email, string(password), displayName)
	if err != nil {
		a.println("Registration failed:", err)
		return err
	}

	a.printf("Welcome, %s!\n", s.User.Name())
	return nil
}

// Login prompts for credentials and opens a session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.gate.Login(ctx, email, string(password))
	if err != nil {
		a.println("Login unsuccessful:", err)
		return err
	}

	a.printf("Logged in as %s\n", s.User.Name())
	return nil
}

// Logout ends the session here and on the server. The local session is
// dropped even when the server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	err := a.gate.Logout(ctx)
	if err != nil {
		a.println("Server logout failed:", err)
	}
	a.println("Logged out")
	return err
}

// ResetPassword requests a reset token by mail and, when the user already
// has one, sets the new password.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	if email != "" {
		if err := a.gate.ResetPassword(ctx, email); err != nil {
			a.println("Reset request failed:", err)
			return err
		}
		a.println("If the account exists, a reset token is on its way.")
	}

	token, err := getSimpleText(a.reader, "Enter reset token (empty to finish later)", a.out)
	if err != nil || token == "" {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.gate.ConfirmPasswordReset(ctx, token, string(password)); err != nil {
		a.println("Password reset failed:", err)
		return err
	}
	a.println("Password changed, you can login now.")
	return nil
}
