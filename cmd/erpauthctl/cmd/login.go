package cmd

import (
	"errors"

	"github.com/ispops/erpauth"
	"github.com/ispops/erpauth/flows"
	"github.com/ispops/erpauth/session"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const maxCodeTries = 3

var (
	loginEmail    string
	loginRemember bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with password and emailed code",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		email, err := prompt("email", loginEmail, false)
		if err != nil {
			return err
		}
		password, err := prompt("password", "", true)
		if err != nil {
			return err
		}

		f := flows.NewLoginFlow(engine)
		if err := f.SubmitPassword(ctx, email, password); err != nil {
			return err
		}
		if !f.Done() {
			if msg := f.Message(); msg != "" {
				pterm.Info.Println(msg)
			}
			pterm.Info.Printf("A verification code was sent to %s\n", email)
			err := askCode(func(code string) error {
				return f.SubmitOTP(ctx, code, loginRemember)
			})
			if err != nil {
				return err
			}
		}

		signedIn(f.Session())
		return nil
	},
}

var passwordlessCmd = &cobra.Command{
	Use:   "passwordless",
	Short: "Sign in with an emailed code only",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		email, err := prompt("email", loginEmail, false)
		if err != nil {
			return err
		}

		f := flows.NewPasswordlessFlow(engine)
		if err := f.Request(ctx, email); err != nil {
			return err
		}
		pterm.Info.Printf("If %s has an account, a code and sign-in link were sent to it\n", email)

		err = askCode(func(code string) error {
			return f.Verify(ctx, code)
		})
		if err != nil {
			return err
		}
		signedIn(f.Session())
		return nil
	},
}

var magicLinkCmd = &cobra.Command{
	Use:   "magic-link <token>",
	Short: "Sign in with the token from an emailed link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := flows.NewMagicLinkFlow(engine)
		if err := f.Verify(cmd.Context(), args[0]); err != nil {
			if f.Failed() {
				pterm.Warning.Println("Request a new link with: erpauthctl passwordless")
			}
			return err
		}
		signedIn(f.Session())
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, passwordlessCmd} {
		c.Flags().StringVarP(&loginEmail, "email", "e", "", "account email (env ERPAUTH_EMAIL)")
	}
	loginCmd.Flags().BoolVar(&loginRemember, "remember", true, "keep the session after this command exits")
}

// askCode prompts for a code until submit accepts it. Only a rejected code is
// retried; lockouts and every other failure end the loop.
func askCode(submit func(code string) error) error {
	var err error
	for range maxCodeTries {
		var code string
		code, err = prompt("code", "", false)
		if err != nil {
			return err
		}
		err = submit(code)
		if err == nil {
			return nil
		}
		var lock *erpauth.LockoutError
		if nonInteractive || errors.As(err, &lock) || !errors.Is(err, erpauth.ErrInvalidOTP) {
			return err
		}
		pterm.Warning.Println(flows.Message(err))
	}
	return err
}

func signedIn(s *session.Session) {
	if s == nil {
		pterm.Success.Println("Signed in")
		return
	}
	name := s.User.FullName
	if name == "" {
		name = s.User.Email
	}
	pterm.Success.Printf("Signed in as %s\n", name)
}
