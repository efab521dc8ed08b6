package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ispops/erpauth"
	"github.com/ispops/erpauth/session"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user, roles and permissions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := restore(cmd)
		if err != nil {
			return err
		}

		u := s.User
		pterm.DefaultSection.Println("User")
		pterm.Info.Printf("ID: %d\n", u.ID)
		pterm.Info.Printf("Email: %s\n", u.Email)
		pterm.Info.Printf("Name: %s\n", u.FullName)
		if u.DepartmentID != nil {
			pterm.Info.Printf("Department: %d\n", *u.DepartmentID)
		}
		if u.IsSuperuser {
			pterm.Warning.Println("Superuser: every permission is granted")
		}
		if roles := engine.UserRoles(); len(roles) > 0 {
			pterm.Info.Printf("Roles: %s\n", strings.Join(roles, ", "))
		}

		perms := s.Permissions().Sorted()
		pterm.DefaultSection.Printf("Permissions (%d)\n", len(perms))
		for _, p := range perms {
			pterm.Println("  " + p)
		}

		if menus := engine.Menus(); len(menus) > 0 {
			pterm.DefaultSection.Println("Menus")
			printMenus(menus, 1)
		}
		return nil
	},
}

var canCmd = &cobra.Command{
	Use:   "can <permission>...",
	Short: "Check permissions locally, or against the backend with --remote",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := restore(cmd); err != nil {
			return err
		}

		remote, _ := cmd.Flags().GetBool("remote")
		data := pterm.TableData{{"PERMISSION", "GRANTED", "RULE", "SOURCE"}}

		if remote {
			res, err := engine.CheckRemoteBatch(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, p := range args {
				data = append(data, []string{p, strconv.FormatBool(res[p]), "backend", ""})
			}
		} else {
			for _, p := range args {
				d := engine.Explain(p)
				src := ""
				if d.Granted && d.Matched != "" {
					src = d.Grant.Source.String()
					if d.Grant.Origin != "" {
						src += " (" + d.Grant.Origin + ")"
					}
				}
				data = append(data, []string{p, strconv.FormatBool(d.Granted), d.Rule.String(), src})
			}
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the stored token's expiry, or print it with --raw",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := restore(cmd); err != nil {
			return err
		}

		if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
			if err := engine.RefreshToken(cmd.Context()); err != nil {
				return err
			}
			pterm.Success.Println("Token refreshed")
		}
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Println(engine.Token())
			return nil
		}

		info := engine.TokenInfo()
		pterm.Info.Printf("Subject: %s\n", info.Subject)
		pterm.Info.Printf("Remembered: %t\n", info.Remembered)
		if !info.ExpiresAt.IsZero() {
			pterm.Info.Printf("Expires: %s (in %s)\n", info.ExpiresAt.Format(time.RFC1123), info.ExpiresIn.Round(time.Second))
		}
		if info.ExpiringSoon {
			pterm.Warning.Println("The session expires soon. Run: erpauthctl token --refresh")
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Logout works from the stored token even when the backend is down.
		_, _ = engine.Restore(cmd.Context())
		if err := engine.Logout(cmd.Context()); err != nil {
			return err
		}
		pterm.Success.Println("Signed out")
		return nil
	},
}

func init() {
	canCmd.Flags().Bool("remote", false, "ask the backend instead of evaluating locally")
	tokenCmd.Flags().Bool("raw", false, "print the bearer token")
	tokenCmd.Flags().Bool("refresh", false, "exchange the token for a fresh one first")
}

func restore(cmd *cobra.Command) (*session.Session, error) {
	s, err := engine.Restore(cmd.Context())
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: run erpauthctl login", erpauth.ErrNotAuthenticated)
	}
	return s, nil
}

func printMenus(items []session.MenuItem, depth int) {
	for _, m := range items {
		pterm.Println(strings.Repeat("  ", depth) + m.Label)
		printMenus(m.Children, depth+1)
	}
}
