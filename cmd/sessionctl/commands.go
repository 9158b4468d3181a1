package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/aussiebroadwan/modconsole/pkg/authsdk"
)

var errUsage = errors.New("invalid usage")

// userError prints the message meant for the person at the terminal while
// keeping the cause for errors.Is and the debug log.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

type cli struct {
	session *authsdk.Session
	in      *bufio.Scanner
	out     io.Writer
}

func newCLI(session *authsdk.Session, in io.Reader, out io.Writer) *cli {
	return &cli{session: session, in: bufio.NewScanner(in), out: out}
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	name, rest := args[0], args[1:]
	switch name {
	case "signin":
		return c.signIn(ctx, rest)
	case "2fa":
		return c.twoFactor(ctx, rest)
	case "signup":
		return c.signUp(ctx, rest)
	case "status":
		return c.status()
	case "whoami":
		return c.whoami(ctx)
	case "signout":
		c.session.SignOut(ctx)
		fmt.Fprintln(c.out, "signed out")
		return nil
	case "shell":
		return c.shell(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func (c *cli) signIn(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signin", flag.ContinueOnError)
	fs.SetOutput(c.out)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted if empty)")
	code := fs.String("code", "", "two-factor code (prompted if required and empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		*email = c.prompt("email: ")
	}
	if *password == "" {
		*password = c.prompt("password: ")
	}

	state, err := c.session.SignIn(ctx, *email, *password)
	if err != nil {
		return &userError{msg: authsdk.UserMessage(err), err: err}
	}

	if state == authsdk.StateTwoFactorPending {
		if *code == "" {
			*code = c.prompt("two-factor code: ")
		}
		return c.verify(ctx, *code)
	}

	fmt.Fprintf(c.out, "signed in as %s\n", c.session.Snapshot().Role)
	return nil
}

func (c *cli) twoFactor(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: 2fa <code>", errUsage)
	}
	return c.verify(ctx, args[0])
}

func (c *cli) verify(ctx context.Context, code string) error {
	if err := c.session.Verify2FA(ctx, code); err != nil {
		if c.session.Snapshot().IsTwoFactorPending() {
			fmt.Fprintln(c.out, "code rejected, the challenge is still open")
		}
		return err
	}
	fmt.Fprintf(c.out, "signed in as %s\n", c.session.Snapshot().Role)
	return nil
}

func (c *cli) signUp(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(c.out)

	var req authsdk.SignUpRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Password, "password", "", "account password")
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	fs.StringVar(&req.Username, "username", "", "username (defaults to the email's local part)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return fmt.Errorf("%w: signup needs -email and -password", errUsage)
	}

	if err := c.session.SignUp(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "account created, signed in")
	return nil
}

func (c *cli) status() error {
	snap := c.session.Snapshot()
	fmt.Fprintf(c.out, "state:   %s\n", snap.State)
	fmt.Fprintf(c.out, "role:    %s\n", snap.Role)
	fmt.Fprintf(c.out, "refresh: %t\n", snap.RefreshToken != "")
	fmt.Fprintf(c.out, "landing: %s\n", authsdk.LandingRoute(snap))
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	if !c.session.Snapshot().IsAuthorized() {
		return errors.New("not signed in")
	}

	info, err := c.session.GetUserInfo(ctx)
	if err != nil {
		return err
	}

	name := info.DisplayName
	if name == "" {
		name = info.Username
	}
	fmt.Fprintf(c.out, "%s <%s> (%s)\n", name, info.Email, c.session.Snapshot().Role)
	fmt.Fprintf(c.out, "id:       %s\n", info.UserID)
	fmt.Fprintf(c.out, "verified: %t\n", info.IsVerified)
	if info.Bio != "" {
		fmt.Fprintf(c.out, "bio:      %s\n", info.Bio)
	}
	return nil
}

// shell keeps one process alive so a pending two-factor challenge, which is
// never persisted, can be answered with a later "2fa" line.
func (c *cli) shell(ctx context.Context) error {
	fmt.Fprint(c.out, "> ")
	for c.in.Scan() {
		line := strings.Fields(c.in.Text())
		switch {
		case len(line) == 0:
		case line[0] == "quit" || line[0] == "exit":
			return nil
		case line[0] == "shell":
			fmt.Fprintln(c.out, "already in a shell")
		default:
			if err := c.dispatch(ctx, line); err != nil {
				fmt.Fprintln(c.out, "error:", err)
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(c.out, "> ")
	}
	return c.in.Err()
}

func (c *cli) prompt(label string) string {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		return ""
	}
	return strings.TrimSpace(c.in.Text())
}
