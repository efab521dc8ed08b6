package cmd

import (
	"strconv"

	"github.com/ispops/erpauth/flows"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	regEmail        string
	regName         string
	regPhone        string
	regDepartment   string
	regDepartmentID int64
	regRole         string
	regSkipPassword bool

	resetEmail string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a staff account and request a role",
	Long: `register creates an account with an emailed code, optionally sets a
password, and submits the department and requested role. The account stays
pending until an administrator approves it.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		email, err := prompt("email", regEmail, false)
		if err != nil {
			return err
		}
		name, err := prompt("full name", regName, false)
		if err != nil {
			return err
		}

		f := flows.NewOnboardingFlow(engine)
		form := flows.RegistrationDetailsForm{Email: email, FullName: name, Phone: regPhone}
		if err := f.SubmitDetails(ctx, form); err != nil {
			return err
		}
		step(f.Progress(), "Verification code sent to "+email)

		err = askCode(func(code string) error {
			return f.SubmitOTP(ctx, code)
		})
		if err != nil {
			return err
		}
		step(f.Progress(), "Email verified")

		if regSkipPassword {
			if err := f.SkipPassword(); err != nil {
				return err
			}
		} else {
			pw, err := prompt("new password", "", true)
			if err != nil {
				return err
			}
			confirm, err := prompt("confirm password", "", true)
			if err != nil {
				return err
			}
			if err := f.SetPassword(ctx, pw, confirm); err != nil {
				return err
			}
		}
		step(f.Progress(), "Password step complete")

		roles, err := f.Roles(ctx)
		if err != nil {
			return err
		}
		if len(roles) > 0 && regRole == "" {
			data := pterm.TableData{{"ROLE", "DESCRIPTION"}}
			for _, r := range roles {
				data = append(data, []string{r.Name, r.Description})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
				return err
			}
		}
		role, err := prompt("requested role", regRole, false)
		if err != nil {
			return err
		}

		profile := flows.OnboardingForm{RequestedRole: role, Phone: regPhone}
		if regDepartmentID > 0 {
			id := regDepartmentID
			profile.DepartmentID = &id
		} else {
			dept, err := prompt("department", regDepartment, false)
			if err != nil {
				return err
			}
			profile.Department = dept
		}
		if err := f.SubmitProfile(ctx, profile); err != nil {
			return err
		}

		step(f.Progress(), "Registration submitted")
		pterm.Info.Println("An administrator must approve your account before you can use the ERP.")
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Reset a forgotten password with an emailed code",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		f := flows.NewPasswordResetFlow(engine)

		email, err := prompt("email", resetEmail, false)
		if err != nil {
			return err
		}
		if err := f.SubmitIdentity(email); err != nil {
			return err
		}
		if err := f.RequestCode(ctx); err != nil {
			return err
		}
		pterm.Info.Printf("If %s has an account, a reset code was sent to it\n", email)

		for range maxCodeTries {
			code, err := prompt("code", "", false)
			if err != nil {
				return err
			}
			if err := f.SubmitCode(code); err != nil {
				return err
			}
			pw, err := prompt("new password", "", true)
			if err != nil {
				return err
			}
			confirm, err := prompt("confirm password", "", true)
			if err != nil {
				return err
			}

			err = f.SubmitNewPassword(ctx, pw, confirm)
			if err == nil {
				pterm.Success.Println("Password updated. Sign in with: erpauthctl login")
				return nil
			}
			// A rejected code moves the flow back to the code step.
			if nonInteractive || f.Step() != flows.ResetCode {
				return err
			}
			pterm.Warning.Println(flows.Message(err))
		}
		return f.Err()
	},
}

var setPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Set or change the signed-in user's password",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if _, err := restore(cmd); err != nil {
			return err
		}

		current, _ := cmd.Flags().GetBool("change")
		var oldPw string
		if current {
			var err error
			if oldPw, err = prompt("current password", "", true); err != nil {
				return err
			}
		}
		pw, err := prompt("new password", "", true)
		if err != nil {
			return err
		}

		if current {
			err = engine.ChangePassword(ctx, oldPw, pw)
		} else {
			confirm, perr := prompt("confirm password", "", true)
			if perr != nil {
				return perr
			}
			err = engine.SetPassword(ctx, pw, confirm)
		}
		if err != nil {
			return err
		}
		pterm.Success.Println("Password saved")
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVarP(&regEmail, "email", "e", "", "account email (env ERPAUTH_EMAIL)")
	registerCmd.Flags().StringVar(&regName, "name", "", "full name")
	registerCmd.Flags().StringVar(&regPhone, "phone", "", "phone number")
	registerCmd.Flags().StringVar(&regDepartment, "department", "", "department name")
	registerCmd.Flags().Int64Var(&regDepartmentID, "department-id", 0, "department id, instead of --department")
	registerCmd.Flags().StringVar(&regRole, "role", "", "role to request")
	registerCmd.Flags().BoolVar(&regSkipPassword, "skip-password", false, "keep the account passwordless")

	resetPasswordCmd.Flags().StringVarP(&resetEmail, "email", "e", "", "account email (env ERPAUTH_EMAIL)")

	setPasswordCmd.Flags().Bool("change", false, "change an existing password; asks for the current one")
}

func step(progress int, msg string) {
	pterm.Info.Println("[" + strconv.Itoa(progress) + "%] " + msg)
}
