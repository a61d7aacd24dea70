package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/luxoras/storefront/internal/api"
	"github.com/luxoras/storefront/internal/session"
)

// readHidden is a test seam for term.ReadPassword.
var readHidden = term.ReadPassword

// stdin is where login reads a pasted callback from.
var stdin = os.Stdin

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "sign in through an OAuth provider (github|google)",
		ArgsUsage: "<provider>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "code", Usage: "authorization code from the provider callback"},
			&cli.StringFlag{Name: "state", Usage: "state from the provider callback"},
		},
		Action: withSession(loginAction),
	}
}

func loginAction(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
	provider, err := api.ParseProvider(cmd.Args().First())
	if err != nil {
		return err
	}

	code, state := cmd.String("code"), cmd.String("state")
	if code == "" {
		w := output(cmd)
		fmt.Fprintf(w, "Open this URL to sign in:\n\n  %s\n\n", sess.Client().Endpoint(provider).AuthURL)

		input, err := prompt(w, stdin, "Paste the callback URL or the authorization code: ")
		if err != nil {
			return fmt.Errorf("reading authorization code: %w", err)
		}
		code, state = parseCallback(input, state)
	}

	_, err = sess.Exchange(ctx, code, state, string(provider))
	if errors.Is(err, session.ErrCookieSync) {
		fmt.Fprintln(output(cmd), "Signed in. The frontend server cookie could not be updated.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(output(cmd), "Signed in.")
	return nil
}

// prompt reads one line, without echo when in is a terminal.
func prompt(w io.Writer, in *os.File, text string) (string, error) {
	fmt.Fprint(w, text)

	if fd := int(in.Fd()); term.IsTerminal(fd) {
		line, err := readHidden(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(line)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// parseCallback accepts either a bare code or a callback URL carrying code and state.
// A state found in the URL overrides fallbackState.
func parseCallback(input, fallbackState string) (code, state string) {
	u, err := url.Parse(input)
	if err != nil || u.RawQuery == "" {
		return input, fallbackState
	}

	query := u.Query()
	state = fallbackState
	if s := query.Get("state"); s != "" {
		state = s
	}
	return query.Get("code"), state
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "sign out and clear the stored token",
		Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
			if _, err := sess.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(output(cmd), "Signed out.")
			return nil
		}),
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "exchange the stored token for a fresh one",
		Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
			return reportStatus(cmd, "refresh", sess.Refresh(ctx))
		}),
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "check the stored token, refreshing it when rejected",
		Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
			return reportStatus(cmd, "verify", sess.Verify(ctx))
		}),
	}
}

// reportStatus prints a session status surrogate and fails on anything but 200.
func reportStatus(cmd *cli.Command, op string, status int) error {
	switch status {
	case http.StatusOK:
		fmt.Fprintln(output(cmd), "Session is valid.")
		return nil
	case http.StatusForbidden:
		return fmt.Errorf("%s: not signed in", op)
	default:
		return fmt.Errorf("%s: failed with status %d, please log in again", op, status)
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "print the signed-in user",
		Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
			user, err := sess.UserInfo(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, user)
		}),
	}
}

func requestCommand() *cli.Command {
	return &cli.Command{
		Name:      "request",
		Usage:     "send an authenticated request to the API and print the response body",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "method", Aliases: []string{"X"}, Value: http.MethodGet, Usage: "HTTP method"},
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON request body"},
		},
		Action: withSession(requestAction),
	}
}

func requestAction(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
	path := cmd.Args().First()
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must start with /")
	}

	var body io.Reader
	if data := cmd.String("data"); data != "" {
		body = strings.NewReader(data)
	}

	// strings.Reader bodies get GetBody, so the request can be replayed after a refresh
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(cmd.String("method")), sess.Client().URL(path, nil), body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := sess.HTTPClient().Do(req)
	if err != nil {
		return session.ExpiredError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return api.DecodeError(resp)
	}

	_, err = io.Copy(output(cmd), resp.Body)
	return err
}
