// Account commands for the taskboard CLI: signup, verify, login, logout,
// reset-password and whoami.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mesh-intelligence/taskboard/internal/render"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// readPassword prompts without echo on a terminal and reads a plain line
// otherwise.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", sysErr(fmt.Errorf("read password: %w", err))
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", sysErr(fmt.Errorf("read password: %w", err))
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func passwordFlag(cmd *cobra.Command, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return readPassword(cmd, prompt)
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return userErr(fmt.Errorf("--%s is required", name))
	}
	return nil
}

func newSignUpCmd(a *app) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an account. A verification code is sent to the email address;
confirm it with "taskboard verify".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("email", email); err != nil {
				return err
			}
			pw, err := passwordFlag(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			svc, err := a.authService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res, err := svc.SignUp(cmd.Context(), email, pw, name)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return render.JSON(cmd.OutOrStdout(), res)
			}
			return printer(cmd).Message(render.SeverityDefault, "Registration successful",
				"Please check your email to verify your account.")
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var email, code string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm an email address with the code sent at sign-up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("email", email); err != nil {
				return err
			}
			if err := requireFlag("code", code); err != nil {
				return err
			}
			svc, err := a.authService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			sess, err := svc.Verify(cmd.Context(), email, code)
			if err != nil {
				return err
			}
			return a.printSession(cmd, sess)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&code, "code", "", "verification code")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("email", email); err != nil {
				return err
			}
			pw, err := passwordFlag(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			svc, err := a.authService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			sess, err := svc.SignIn(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return render.JSON(cmd.OutOrStdout(), sess)
			}
			return printer(cmd).Message(render.SeverityDefault, "Login successful", "Welcome back!")
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.authService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := svc.SignOut(cmd.Context()); err != nil {
				return err
			}
			return printer(cmd).Message(render.SeverityDefault, "Signed out", "")
		},
	}
}

func newResetPasswordCmd(a *app) *cobra.Command {
	var email, code, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Request a reset code, or set a new password with one",
		Long: `Without --code, send a password reset code to the email address.
With --code, set a new password and sign out every session of the account.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("email", email); err != nil {
				return err
			}
			svc, err := a.authService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			p := printer(cmd)
			if code == "" {
				if err := svc.RequestPasswordReset(cmd.Context(), email); err != nil {
					return err
				}
				return p.Message(render.SeverityDefault, "Reset email sent",
					"Check your email for password reset instructions.")
			}
			pw, err := passwordFlag(cmd, password, "New password: ")
			if err != nil {
				return err
			}
			if err := svc.ResetPassword(cmd.Context(), email, code, pw); err != nil {
				return err
			}
			return p.Message(render.SeverityDefault, "Password updated", "Sign in with your new password.")
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&code, "code", "", "reset code")
	cmd.Flags().StringVar(&password, "password", "", "new password (prompted when omitted)")
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.authService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			sess, ok := svc.CurrentSession(cmd.Context())
			if !ok {
				return userErr(types.ErrNoSession)
			}
			return a.printSession(cmd, sess)
		},
	}
}

func (a *app) printSession(cmd *cobra.Command, sess types.Session) error {
	if a.jsonMode {
		return render.JSON(cmd.OutOrStdout(), sess)
	}
	return printer(cmd).Session(sess)
}
