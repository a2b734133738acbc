// Package cli implements the authctl commands.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/client/tokenfile"
	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// getPassword is replaced in tests.
var getPassword = promptPassword

type API interface {
	Login(ctx context.Context, username string, password []byte) (*client.TokenPair, error)
	Register(ctx context.Context, username string, password []byte) (*client.RegisteredUser, error)
	Refresh(ctx context.Context, refreshToken string) (*client.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	WhoAmI(ctx context.Context, accessToken string) (string, error)
}

var ErrUsage = errors.New("usage: authctl [-s url] [-f token-file] [-t seconds] [-c config.json] login|register|refresh|logout|whoami [username]")

type App struct {
	config *config.Config
	api    API
	reader *bufio.Reader
	fd     int
	out    io.Writer
}

func NewApp(c *config.Config, in io.Reader, out io.Writer) *App {
	return &App{
		config: c,
		api:    client.New(c.ServerURL, c.Timeout),
		reader: bufio.NewReader(in),
		fd:     fdOf(in),
		out:    out,
	}
}

func fdOf(in io.Reader) int {
	if f, ok := in.(interface{ Fd() uintptr }); ok {
		return int(f.Fd())
	}
	return noTerminal
}

// Run executes one command. args[0] is the command name.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	cmd, operands := args[0], args[1:]
	switch cmd {
	case "login":
		return a.Login(ctx, operands)
	case "register":
		return a.Register(ctx, operands)
	case "refresh":
		return a.Refresh(ctx)
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.WhoAmI(ctx)
	case "help":
		fmt.Fprintln(a.out, ErrUsage.Error())
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%w", cmd, ErrUsage)
	}
}

func (a *App) credentials(operands []string) (string, []byte, error) {
	var username string
	if len(operands) > 0 {
		username = strings.TrimSpace(operands[0])
	} else {
		var err error
		username, err = promptUsername(a.reader, a.out)
		if err != nil {
			return "", nil, err
		}
	}
	if username == "" {
		return "", nil, ErrEmptyUsername
	}

	password, err := getPassword(a.reader, a.out, a.fd)
	if err != nil {
		return "", nil, err
	}
	return username, password, nil
}

func (a *App) Login(ctx context.Context, operands []string) error {
	username, password, err := a.credentials(operands)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	pair, err := a.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := tokenfile.Save(a.config.TokenFile, pair); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s (access token valid for %ds)\n", username, pair.ExpiresIn)
	return nil
}

func (a *App) Register(ctx context.Context, operands []string) error {
	username, password, err := a.credentials(operands)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.api.Register(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (id %d)\n", u.Username, u.ID)
	return nil
}

// Refresh rotates the saved refresh token. A rejected token ends the local
// session, since it can never be used again.
func (a *App) Refresh(ctx context.Context) error {
	if _, err := a.refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

func (a *App) refresh(ctx context.Context) (*client.TokenPair, error) {
	saved, err := tokenfile.Load(a.config.TokenFile)
	if err != nil {
		return nil, err
	}

	pair, err := a.api.Refresh(ctx, saved.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = tokenfile.Clear(a.config.TokenFile)
		}
		return nil, err
	}
	if err := tokenfile.Save(a.config.TokenFile, pair); err != nil {
		return nil, err
	}
	return pair, nil
}

func (a *App) Logout(ctx context.Context) error {
	saved, err := tokenfile.Load(a.config.TokenFile)
	if errors.Is(err, tokenfile.ErrNoSession) {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	if err != nil {
		return err
	}

	if err := a.api.Logout(ctx, saved.RefreshToken); err != nil {
		return err
	}
	if err := tokenfile.Clear(a.config.TokenFile); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// WhoAmI asks the server who the saved access token belongs to, refreshing
// once if the access token was rejected.
func (a *App) WhoAmI(ctx context.Context) error {
	saved, err := tokenfile.Load(a.config.TokenFile)
	if err != nil {
		return err
	}

	name, err := a.api.WhoAmI(ctx, saved.AccessToken)
	if errors.Is(err, client.ErrUnauthorized) && saved.RefreshToken != "" {
		pair, rerr := a.refresh(ctx)
		if rerr != nil {
			return rerr
		}
		name, err = a.api.WhoAmI(ctx, pair.AccessToken)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, name)
	return nil
}
